package notifications

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

const maxBroadcastMessageLength = 1000

type customerDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	ListReachableCustomers(ctx context.Context, storeID uuid.UUID) ([]models.Customer, error)
}

type storeAuthorizer interface {
	AuthorizeStore(ctx context.Context, tx *gorm.DB, actor auth.Actor, store *models.Store) error
}

type bulkSender interface {
	BulkSend(ctx context.Context, msg BulkMessage, recipients []Recipient) BulkResult
}

// BroadcastInput is an announcement from a store to its chat-bot customers.
type BroadcastInput struct {
	StoreID  uuid.UUID
	Title    string
	Message  string
	Priority enums.NotificationPriority
}

// Broadcaster sends store announcements to every reachable customer.
type Broadcaster struct {
	logg       *logger.Logger
	stores     customerDirectory
	authorizer storeAuthorizer
	sender     bulkSender
}

func NewBroadcaster(logg *logger.Logger, stores customerDirectory, authorizer storeAuthorizer, sender bulkSender) (*Broadcaster, error) {
	switch {
	case logg == nil:
		return nil, errors.New("logger required")
	case stores == nil:
		return nil, errors.New("store directory required")
	case authorizer == nil:
		return nil, errors.New("authorizer required")
	case sender == nil:
		return nil, errors.New("bulk sender required")
	}
	return &Broadcaster{logg: logg, stores: stores, authorizer: authorizer, sender: sender}, nil
}

// Broadcast delivers the message over the chat-bot. Per-recipient failures
// are counted in the result, not returned.
func (b *Broadcaster) Broadcast(ctx context.Context, actor auth.Actor, input BroadcastInput) (*BulkResult, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if len([]rune(message)) > maxBroadcastMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is too long").
			WithDetails(map[string]any{"maxLength": maxBroadcastMessageLength})
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.NotificationPriorityNormal
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}

	store, err := b.stores.FindByID(ctx, input.StoreID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if err := b.authorizer.AuthorizeStore(ctx, nil, actor, store); err != nil {
		return nil, err
	}

	customers, err := b.stores.ListReachableCustomers(ctx, store.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store customers")
	}
	recipients := make([]Recipient, 0, len(customers))
	for _, c := range customers {
		recipients = append(recipients, Recipient{
			Kind:    enums.RecipientKindCustomer,
			ID:      c.ID,
			StoreID: c.StoreID,
			ChatID:  c.ChatID,
			Name:    c.Name,
		})
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = store.Name
	}
	ctx = b.logg.WithFields(ctx, map[string]any{"store_id": store.ID.String(), "recipients": len(recipients)})
	b.logg.Info(ctx, "store broadcast started")

	result := b.sender.BulkSend(ctx, BulkMessage{
		StoreID:  store.ID,
		Category: enums.NotificationCategoryBroadcast,
		Priority: priority,
		Title:    title,
		Message:  message,
		Channels: []enums.NotificationChannel{enums.NotificationChannelChatbot},
	}, recipients)
	return &result, nil
}
