package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store represents the canonical tenant model.
type Store struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	OwnerUserID uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null"`
	Currency    string    `gorm:"column:currency;type:text;not null;default:'IDR'"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Store) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
