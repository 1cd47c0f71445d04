package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/types"
)

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID     uuid.UUID        `json:"productId" validate:"required"`
	VariantID     *uuid.UUID       `json:"variantId,omitempty"`
	Quantity      int              `json:"quantity" validate:"required,gt=0"`
	PriceOverride *decimal.Decimal `json:"priceOverride,omitempty" validate:"omitempty,money"`
}

// CreateOrderInput is a cart submitted by the chat-bot or the console.
type CreateOrderInput struct {
	StoreID         uuid.UUID          `json:"storeId"`
	CustomerID      uuid.UUID          `json:"customerId" validate:"required"`
	Items           []ItemInput        `json:"items" validate:"required,min=1,dive"`
	CustomerInfo    types.CustomerInfo `json:"customerInfo"`
	ClientRequestID *string            `json:"clientRequestId,omitempty" validate:"omitempty,max=128"`
}

// CreateOrderResult carries the order and whether it was an idempotent replay.
type CreateOrderResult struct {
	Order    *models.Order
	Replayed bool
}

// ShipInput carries optional tracking metadata.
type ShipInput struct {
	TrackingNumber *string `json:"trackingNumber,omitempty" validate:"omitempty,max=128"`
	Carrier        *string `json:"carrier,omitempty" validate:"omitempty,max=64"`
}

// ListParams configures a store's order listing.
type ListParams struct {
	StoreID uuid.UUID
	Status  *enums.OrderStatus
	Limit   int
	Cursor  string
}

// ListResult is one page of orders.
type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}
