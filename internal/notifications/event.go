// Package notifications fans order events out to the store console, the
// realtime feed, the chat-bot and analytics, and serves the in-app inbox.
package notifications

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// Recipient is one party an event is delivered to. Store recipients reach the
// store's admins; customer recipients are reached through the chat-bot.
type Recipient struct {
	Kind    enums.RecipientKind
	ID      uuid.UUID
	StoreID uuid.UUID
	ChatID  *string
	Name    string
}

// StoreRecipient addresses the admins of storeID.
func StoreRecipient(storeID uuid.UUID) Recipient {
	return Recipient{Kind: enums.RecipientKindStore, ID: storeID, StoreID: storeID}
}

// Payload is the machine-readable body consumed by the chat-bot and realtime
// clients.
type Payload struct {
	Type           enums.NotificationCategory `json:"type"`
	OrderID        *uuid.UUID                 `json:"orderId,omitempty"`
	OrderNumber    string                     `json:"orderNumber,omitempty"`
	StoreID        uuid.UUID                  `json:"storeId"`
	CustomerID     *uuid.UUID                 `json:"customerId,omitempty"`
	TotalAmount    *decimal.Decimal           `json:"totalAmount,omitempty"`
	Currency       string                     `json:"currency,omitempty"`
	Reason         *string                    `json:"reason,omitempty"`
	TrackingNumber *string                    `json:"trackingNumber,omitempty"`
	Carrier        *string                    `json:"carrier,omitempty"`
}

// Event is one notification to fan out.
type Event struct {
	ID         uuid.UUID
	Category   enums.NotificationCategory
	Priority   enums.NotificationPriority
	Title      string
	Message    string
	Link       *string
	Recipients []Recipient
	Channels   []enums.NotificationChannel
	Payload    Payload
}

// BulkMessage is the same text sent to many recipients.
type BulkMessage struct {
	StoreID  uuid.UUID
	Category enums.NotificationCategory
	Priority enums.NotificationPriority
	Title    string
	Message  string
	Channels []enums.NotificationChannel
}

// BulkResult counts recipients reached on every requested channel.
type BulkResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

func (m BulkMessage) event(recipient Recipient) Event {
	return Event{
		ID:         uuid.New(),
		Category:   m.Category,
		Priority:   m.Priority,
		Title:      m.Title,
		Message:    m.Message,
		Recipients: []Recipient{recipient},
		Channels:   m.Channels,
		Payload:    Payload{Type: m.Category, StoreID: m.StoreID},
	}
}
