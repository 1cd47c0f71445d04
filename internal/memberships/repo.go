package memberships

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// Repository exposes membership lookups.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// UserHasRole reports whether the user holds one of the provided roles for the store.
func (r *Repository) UserHasRole(ctx context.Context, userID, storeID uuid.UUID, roles ...enums.MemberRole) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StoreMembership{}).
		Where("user_id = ? AND store_id = ? AND role IN ?", userID, storeID, roles).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
