package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/chatstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/retry"
)

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) (int64, error) {
	f.channel = channel
	f.payload = payload
	return 1, f.err
}

type fakeMessagePublisher struct {
	data  []byte
	attrs map[string]string
	err   error
}

func (f *fakeMessagePublisher) Publish(_ context.Context, data []byte, attrs map[string]string) (string, error) {
	f.data = data
	f.attrs = attrs
	return "msg-1", f.err
}

type fakeRowWriter struct {
	rows []any
}

func (f *fakeRowWriter) Insert(_ context.Context, row any) error {
	f.rows = append(f.rows, row)
	return nil
}

func orderEvent() Event {
	orderID := uuid.New()
	customerID := uuid.New()
	total := decimal.RequireFromString("150000")
	reason := "stok habis"
	return Event{
		ID:       uuid.New(),
		Category: enums.NotificationCategoryOrderRejected,
		Priority: enums.NotificationPriorityHigh,
		Title:    "Pesanan ditolak",
		Message:  "Pesanan 0326-00001 ditolak",
		Payload: Payload{
			Type:        enums.NotificationCategoryOrderRejected,
			OrderID:     &orderID,
			OrderNumber: "0326-00001",
			StoreID:     uuid.New(),
			CustomerID:  &customerID,
			TotalAmount: &total,
			Currency:    "IDR",
			Reason:      &reason,
		},
	}
}

func TestRealtimeChannelPublishesPerRecipientTopic(t *testing.T) {
	pub := &fakePublisher{}
	ch, err := NewRealtimeChannel(pub, "chatstore:realtime:")
	require.NoError(t, err)

	event := orderEvent()
	store := StoreRecipient(event.Payload.StoreID)
	require.NoError(t, ch.Deliver(context.Background(), event, store))

	assert.Equal(t, "chatstore:realtime:store:"+store.ID.String(), pub.channel)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pub.payload, &decoded))
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, "order_rejected", payload["type"])
	assert.Equal(t, "0326-00001", payload["orderNumber"])
	assert.Equal(t, "stok habis", payload["reason"])
	assert.Equal(t, "150000", payload["totalAmount"])
	assert.NotContains(t, payload, "trackingNumber")

	pub.err = errors.New("conn reset")
	err = ch.Deliver(context.Background(), event, store)
	require.Error(t, err)
	assert.False(t, retry.IsPermanent(err))
}

func TestChatbotChannel(t *testing.T) {
	pub := &fakeMessagePublisher{}
	ch, err := NewChatbotChannel(pub)
	require.NoError(t, err)
	event := orderEvent()

	err = ch.Deliver(context.Background(), event, StoreRecipient(uuid.New()))
	assert.ErrorIs(t, err, ErrNotApplicable)

	err = ch.Deliver(context.Background(), event, Recipient{Kind: enums.RecipientKindCustomer, ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNoChatID)
	assert.True(t, retry.IsPermanent(err))

	chatID := "628111@c.us"
	recipient := Recipient{Kind: enums.RecipientKindCustomer, ID: uuid.New(), StoreID: event.Payload.StoreID, ChatID: &chatID}
	require.NoError(t, ch.Deliver(context.Background(), event, recipient))

	var msg chatbotMessage
	require.NoError(t, json.Unmarshal(pub.data, &msg))
	assert.Equal(t, chatID, msg.ChatID)
	assert.Equal(t, "Pesanan ditolak\nPesanan 0326-00001 ditolak", msg.Text)
	assert.Equal(t, "0326-00001", msg.Payload.OrderNumber)
	assert.Equal(t, "order_rejected", pub.attrs["type"])
	assert.Equal(t, event.ID.String(), pub.attrs["event_id"])
}

func TestAnalyticsChannelWritesOrderEventRow(t *testing.T) {
	writer := &fakeRowWriter{}
	ch, err := NewAnalyticsChannel(writer)
	require.NoError(t, err)
	ch.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	event := orderEvent()
	recipient := StoreRecipient(event.Payload.StoreID)
	require.NoError(t, ch.Deliver(context.Background(), event, recipient))
	require.Len(t, writer.rows, 1)

	row := writer.rows[0].(OrderEventRow)
	values, insertID, err := row.Save()
	require.NoError(t, err)
	assert.Equal(t, event.ID.String()+":"+recipient.ID.String(), insertID)
	assert.Equal(t, "150000.00", values["total_amount"])
	assert.Equal(t, "0326-00001", values["order_number"])
	assert.Equal(t, "store", values["recipient_kind"])
}

func TestInAppChannelPersistsStoreNotifications(t *testing.T) {
	conn := dbtest.Open(t)
	ch, err := NewInAppChannel(NewRepository(conn))
	require.NoError(t, err)
	event := orderEvent()

	err = ch.Deliver(context.Background(), event, Recipient{Kind: enums.RecipientKindCustomer, ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotApplicable)

	storeID := event.Payload.StoreID
	require.NoError(t, ch.Deliver(context.Background(), event, StoreRecipient(storeID)))

	var rows []models.Notification
	require.NoError(t, conn.Where("store_id = ?", storeID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.NotificationCategoryOrderRejected, rows[0].Category)
	assert.Equal(t, enums.NotificationPriorityHigh, rows[0].Priority)
	require.NotNil(t, rows[0].OrderID)
	assert.Equal(t, *event.Payload.OrderID, *rows[0].OrderID)
	assert.Nil(t, rows[0].ReadAt)
}

func TestChannelConstructorsRequireDependencies(t *testing.T) {
	_, err := NewInAppChannel(nil)
	assert.Error(t, err)
	_, err = NewRealtimeChannel(nil, "")
	assert.Error(t, err)
	_, err = NewChatbotChannel(nil)
	assert.Error(t, err)
	_, err = NewAnalyticsChannel(nil)
	assert.Error(t, err)
}
