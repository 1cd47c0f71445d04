package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/types"
)

// Order is a storefront order placed through the chat-bot.
type Order struct {
	ID                     uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber            string             `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number" json:"orderNumber"`
	StoreID                uuid.UUID          `gorm:"column:store_id;type:uuid;not null" json:"storeId"`
	CustomerID             uuid.UUID          `gorm:"column:customer_id;type:uuid;not null" json:"customerId"`
	TotalAmount            decimal.Decimal    `gorm:"column:total_amount;type:numeric(14,2);not null" json:"totalAmount"`
	Currency               string             `gorm:"column:currency;type:text;not null" json:"currency"`
	Status                 enums.OrderStatus  `gorm:"column:status;type:order_status;not null;default:'PENDING_ADMIN'" json:"status"`
	CustomerInfo           types.CustomerInfo `gorm:"column:customer_info;type:jsonb;not null" json:"customerInfo"`
	ClientRequestID        *string            `gorm:"column:client_request_id" json:"clientRequestId,omitempty"`
	PaymentProofRef        *string            `gorm:"column:payment_proof_ref" json:"paymentProofRef,omitempty"`
	PaymentProofConfidence *float64           `gorm:"column:payment_proof_confidence" json:"paymentProofConfidence,omitempty"`
	RejectionReason        *string            `gorm:"column:rejection_reason" json:"rejectionReason,omitempty"`
	CancellationReason     *string            `gorm:"column:cancellation_reason" json:"cancellationReason,omitempty"`
	TrackingNumber         *string            `gorm:"column:tracking_number" json:"trackingNumber,omitempty"`
	Carrier                *string            `gorm:"column:carrier" json:"carrier,omitempty"`
	DeliveryNotes          *string            `gorm:"column:delivery_notes" json:"deliveryNotes,omitempty"`
	PaidAt                 *time.Time         `gorm:"column:paid_at" json:"paidAt,omitempty"`
	ShippedAt              *time.Time         `gorm:"column:shipped_at" json:"shippedAt,omitempty"`
	DeliveredAt            *time.Time         `gorm:"column:delivered_at" json:"deliveredAt,omitempty"`
	RejectedAt             *time.Time         `gorm:"column:rejected_at" json:"rejectedAt,omitempty"`
	CancelledAt            *time.Time         `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	Items                  []OrderItem        `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt              time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt              time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is an immutable line of an order. UnitPrice is captured at order time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null" json:"orderId"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"productId"`
	VariantID   *uuid.UUID      `gorm:"column:variant_id;type:uuid" json:"variantId,omitempty"`
	ProductName string          `gorm:"column:product_name;not null" json:"productName"`
	VariantName *string         `gorm:"column:variant_name" json:"variantName,omitempty"`
	Quantity    int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null" json:"unitPrice"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(14,2);not null" json:"lineTotal"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
