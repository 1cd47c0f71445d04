package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a chat-bot user known to a store.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null"`
	ChatID    *string   `gorm:"column:chat_id"`
	Name      string    `gorm:"column:name;not null"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
