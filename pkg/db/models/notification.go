package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to stores.
type Notification struct {
	ID        uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID   uuid.UUID                  `gorm:"type:uuid;not null" json:"storeId"`
	OrderID   *uuid.UUID                 `gorm:"type:uuid" json:"orderId,omitempty"`
	Category  enums.NotificationCategory `gorm:"type:text;not null" json:"category"`
	Priority  enums.NotificationPriority `gorm:"type:text;not null" json:"priority"`
	Title     string                     `gorm:"type:text;not null" json:"title"`
	Message   string                     `gorm:"type:text;not null" json:"message"`
	Link      *string                    `gorm:"type:text" json:"link,omitempty"`
	ReadAt    *time.Time                 `gorm:"type:timestamptz" json:"readAt,omitempty"`
	CreatedAt time.Time                  `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
