package memberships

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

func TestAuthorizeStore(t *testing.T) {
	conn := dbtest.Open(t)
	authorizer := NewAuthorizer(NewRepository(conn))
	ctx := context.Background()

	owner := uuid.New()
	admin := uuid.New()
	staff := uuid.New()
	stranger := uuid.New()

	store := dbtest.Store(t, conn, owner)
	dbtest.Membership(t, conn, store.ID, admin, enums.MemberRoleAdmin)
	dbtest.Membership(t, conn, store.ID, staff, enums.MemberRoleStaff)

	cases := []struct {
		name  string
		actor auth.Actor
		code  pkgerrors.Code
	}{
		{name: "owner", actor: auth.Actor{UserID: owner, Role: enums.PlatformRoleUser}},
		{name: "admin member", actor: auth.Actor{UserID: admin, Role: enums.PlatformRoleUser}},
		{name: "super admin", actor: auth.Actor{UserID: stranger, Role: enums.PlatformRoleSuperAdmin}},
		{name: "system", actor: auth.SystemActor()},
		{name: "staff member", actor: auth.Actor{UserID: staff, Role: enums.PlatformRoleUser}, code: pkgerrors.CodeForbidden},
		{name: "stranger", actor: auth.Actor{UserID: stranger, Role: enums.PlatformRoleUser}, code: pkgerrors.CodeForbidden},
		{name: "anonymous", actor: auth.Actor{Role: enums.PlatformRoleUser}, code: pkgerrors.CodeUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := authorizer.AuthorizeStore(ctx, nil, tc.actor, &store)
			if tc.code == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.As(err).Code())
		})
	}
}

type failingChecker struct{}

func (failingChecker) UserHasRole(context.Context, uuid.UUID, uuid.UUID, ...enums.MemberRole) (bool, error) {
	return false, errors.New("db down")
}

func TestAuthorizeWrapsLookupFailure(t *testing.T) {
	store := dbtest.Store(t, dbtest.Open(t), uuid.New())
	err := authorize(context.Background(), failingChecker{}, auth.Actor{UserID: uuid.New()}, &store)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
