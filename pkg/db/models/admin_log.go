package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/types"
)

// AdminLog is an append-only audit entry. AdminID is nil for system actions.
type AdminLog struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Action    enums.AdminAction `gorm:"column:action;type:text;not null"`
	AdminID   *uuid.UUID        `gorm:"column:admin_id;type:uuid"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	Details   types.JSONMap     `gorm:"column:details;type:jsonb;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (a *AdminLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
