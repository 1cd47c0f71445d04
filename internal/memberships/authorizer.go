package memberships

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

type roleChecker interface {
	UserHasRole(ctx context.Context, userID, storeID uuid.UUID, roles ...enums.MemberRole) (bool, error)
}

// Authorizer decides whether an actor may manage a store.
type Authorizer struct {
	repo *Repository
}

func NewAuthorizer(repo *Repository) *Authorizer {
	return &Authorizer{repo: repo}
}

// AuthorizeStore lets platform super admins and the system actor through, and
// otherwise requires the store owner or an owner/admin membership. tx may be nil.
func (a *Authorizer) AuthorizeStore(ctx context.Context, tx *gorm.DB, actor auth.Actor, store *models.Store) error {
	return authorize(ctx, a.repo.WithTx(tx), actor, store)
}

func authorize(ctx context.Context, checker roleChecker, actor auth.Actor, store *models.Store) error {
	if store == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	if actor.Role.BypassesStoreScope() {
		return nil
	}
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if store.OwnerUserID == actor.UserID {
		return nil
	}

	ok, err := checker.UserHasRole(ctx, actor.UserID, store.ID, enums.OrderManagingRoles()...)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check store membership")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "actor cannot manage this store")
	}
	return nil
}
