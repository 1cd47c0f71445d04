package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. A nil Stock means the product is not stock-tracked.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID       `gorm:"column:store_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null"`
	Stock     *int            `gorm:"column:stock"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVariant overrides price and stock of its product when set.
type ProductVariant struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Name      string           `gorm:"column:name;not null"`
	Price     *decimal.Decimal `gorm:"column:price;type:numeric(14,2)"`
	Stock     *int             `gorm:"column:stock"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
