package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// StockMovement records one stock change caused by an order item. At most one
// reserve and one restore exist per item.
type StockMovement struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID uuid.UUID               `gorm:"column:order_item_id;type:uuid;not null"`
	Target      enums.StockTarget       `gorm:"column:target;type:text;not null"`
	TargetID    uuid.UUID               `gorm:"column:target_id;type:uuid;not null"`
	Kind        enums.StockMovementKind `gorm:"column:kind;type:text;not null"`
	Quantity    int                     `gorm:"column:quantity;not null"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
