package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/internal/auditlog"
	"github.com/angelmondragon/chatstore-backend/internal/inventory"
	"github.com/angelmondragon/chatstore-backend/internal/notifications"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByClientRequestID(ctx context.Context, storeID uuid.UUID, key string) (*models.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateIfStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (int64, error)
	List(ctx context.Context, params listParams) ([]models.Order, *pagination.Cursor, error)
	ListCreatedBetween(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.Order, error)
	ListPendingCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
}

// StoreAuthorizer checks an actor may manage a store.
type StoreAuthorizer interface {
	AuthorizeStore(ctx context.Context, tx *gorm.DB, actor auth.Actor, store *models.Store) error
}

// StockLedger reserves and restores stock on the caller's transaction.
type StockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, item inventory.Item) error
	Restore(ctx context.Context, tx *gorm.DB, orderItemID uuid.UUID) error
}

// NumberAllocator hands out order numbers on the caller's transaction.
type NumberAllocator interface {
	Next(ctx context.Context, tx *gorm.DB, at time.Time) (string, error)
}

// AuditRecorder appends audit entries on the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input auditlog.RecordInput) (*models.AdminLog, error)
	History(ctx context.Context, orderID uuid.UUID) ([]auditlog.Entry, error)
}

// Notifier fans an event out; it never fails the caller.
type Notifier interface {
	Send(ctx context.Context, event notifications.Event) notifications.Report
}
