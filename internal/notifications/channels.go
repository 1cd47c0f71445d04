package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/retry"
)

// InAppChannel persists a notification record for store recipients.
type InAppChannel struct {
	repo Repository
}

func NewInAppChannel(repo Repository) (*InAppChannel, error) {
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	return &InAppChannel{repo: repo}, nil
}

func (c *InAppChannel) Name() enums.NotificationChannel { return enums.NotificationChannelInApp }

func (c *InAppChannel) Deliver(ctx context.Context, event Event, recipient Recipient) error {
	if recipient.Kind != enums.RecipientKindStore {
		return ErrNotApplicable
	}
	record := &models.Notification{
		StoreID:  recipient.ID,
		OrderID:  event.Payload.OrderID,
		Category: event.Category,
		Priority: event.Priority,
		Title:    event.Title,
		Message:  event.Message,
		Link:     event.Link,
	}
	return c.repo.Create(ctx, record)
}

// Publisher is the redis surface used by RealtimeChannel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// RealtimeChannel publishes events to a redis channel per recipient, consumed
// by the console's websocket gateway.
type RealtimeChannel struct {
	publisher Publisher
	prefix    string
}

func NewRealtimeChannel(publisher Publisher, prefix string) (*RealtimeChannel, error) {
	if publisher == nil {
		return nil, errors.New("realtime publisher required")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "chatstore:realtime"
	}
	return &RealtimeChannel{publisher: publisher, prefix: prefix}, nil
}

func (c *RealtimeChannel) Name() enums.NotificationChannel { return enums.NotificationChannelRealtime }

// Topic is the redis channel recipient listens on.
func (c *RealtimeChannel) Topic(recipient Recipient) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, recipient.Kind, recipient.ID)
}

type realtimeMessage struct {
	ID       uuid.UUID                  `json:"id"`
	Category enums.NotificationCategory `json:"category"`
	Priority enums.NotificationPriority `json:"priority"`
	Title    string                     `json:"title"`
	Message  string                     `json:"message"`
	Link     *string                    `json:"link,omitempty"`
	Payload  Payload                    `json:"payload"`
}

func (c *RealtimeChannel) Deliver(ctx context.Context, event Event, recipient Recipient) error {
	body, err := json.Marshal(realtimeMessage{
		ID:       event.ID,
		Category: event.Category,
		Priority: event.Priority,
		Title:    event.Title,
		Message:  event.Message,
		Link:     event.Link,
		Payload:  event.Payload,
	})
	if err != nil {
		return retry.Permanent(fmt.Errorf("encode realtime message: %w", err))
	}
	if _, err := c.publisher.Publish(ctx, c.Topic(recipient), body); err != nil {
		return fmt.Errorf("publish realtime message: %w", err)
	}
	return nil
}

// MessagePublisher is the pub/sub surface used by ChatbotChannel.
type MessagePublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// ErrNoChatID marks a customer the chat-bot cannot reach.
var ErrNoChatID = errors.New("customer has no chat id")

// ChatbotChannel asks the chat-bot to direct-message a customer.
type ChatbotChannel struct {
	publisher MessagePublisher
}

func NewChatbotChannel(publisher MessagePublisher) (*ChatbotChannel, error) {
	if publisher == nil {
		return nil, errors.New("chatbot publisher required")
	}
	return &ChatbotChannel{publisher: publisher}, nil
}

func (c *ChatbotChannel) Name() enums.NotificationChannel { return enums.NotificationChannelChatbot }

type chatbotMessage struct {
	ChatID  string  `json:"chatId"`
	Text    string  `json:"text"`
	Payload Payload `json:"payload"`
}

func (c *ChatbotChannel) Deliver(ctx context.Context, event Event, recipient Recipient) error {
	if recipient.Kind != enums.RecipientKindCustomer {
		return ErrNotApplicable
	}
	if recipient.ChatID == nil || strings.TrimSpace(*recipient.ChatID) == "" {
		return retry.Permanent(ErrNoChatID)
	}

	text := event.Message
	if event.Title != "" {
		text = event.Title + "\n" + event.Message
	}
	body, err := json.Marshal(chatbotMessage{ChatID: *recipient.ChatID, Text: text, Payload: event.Payload})
	if err != nil {
		return retry.Permanent(fmt.Errorf("encode chatbot message: %w", err))
	}
	attrs := map[string]string{
		"event_id": event.ID.String(),
		"type":     string(event.Category),
		"store_id": recipient.StoreID.String(),
	}
	if _, err := c.publisher.Publish(ctx, body, attrs); err != nil {
		return fmt.Errorf("publish chatbot message: %w", err)
	}
	return nil
}

// RowWriter is the bigquery surface used by AnalyticsChannel.
type RowWriter interface {
	Insert(ctx context.Context, row any) error
}

// AnalyticsChannel streams one order event row per recipient into BigQuery.
type AnalyticsChannel struct {
	writer RowWriter
	now    func() time.Time
}

func NewAnalyticsChannel(writer RowWriter) (*AnalyticsChannel, error) {
	if writer == nil {
		return nil, errors.New("analytics writer required")
	}
	return &AnalyticsChannel{writer: writer, now: time.Now}, nil
}

func (c *AnalyticsChannel) Name() enums.NotificationChannel { return enums.NotificationChannelAnalytics }

// OrderEventRow is the order_events table schema.
type OrderEventRow struct {
	EventID       string
	Type          string
	OrderID       string
	OrderNumber   string
	StoreID       string
	CustomerID    string
	TotalAmount   string
	Currency      string
	RecipientKind string
	RecipientID   string
	OccurredAt    time.Time
}

// Save implements bigquery.ValueSaver; the insert id dedupes retried inserts.
func (r OrderEventRow) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"event_id":       r.EventID,
		"type":           r.Type,
		"order_id":       r.OrderID,
		"order_number":   r.OrderNumber,
		"store_id":       r.StoreID,
		"customer_id":    r.CustomerID,
		"total_amount":   r.TotalAmount,
		"currency":       r.Currency,
		"recipient_kind": r.RecipientKind,
		"recipient_id":   r.RecipientID,
		"occurred_at":    r.OccurredAt,
	}, r.EventID + ":" + r.RecipientID, nil
}

func (c *AnalyticsChannel) Deliver(ctx context.Context, event Event, recipient Recipient) error {
	p := event.Payload
	row := OrderEventRow{
		EventID:       event.ID.String(),
		Type:          string(event.Category),
		OrderNumber:   p.OrderNumber,
		StoreID:       p.StoreID.String(),
		Currency:      p.Currency,
		RecipientKind: string(recipient.Kind),
		RecipientID:   recipient.ID.String(),
		OccurredAt:    c.now().UTC(),
	}
	if p.OrderID != nil {
		row.OrderID = p.OrderID.String()
	}
	if p.CustomerID != nil {
		row.CustomerID = p.CustomerID.String()
	}
	if p.TotalAmount != nil {
		row.TotalAmount = p.TotalAmount.StringFixed(2)
	}
	if err := c.writer.Insert(ctx, row); err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}
