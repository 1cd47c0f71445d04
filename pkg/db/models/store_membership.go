package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// StoreMembership links a user with a store and captures their role.
type StoreMembership struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID        `gorm:"column:store_id;type:uuid;not null"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Role      enums.MemberRole `gorm:"column:role;type:member_role;not null"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (m *StoreMembership) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
