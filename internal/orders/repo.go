package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	"github.com/angelmondragon/chatstore-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order row only; items go through CreateItems.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// FindByID loads the order with its items.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, product_name ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUpdate locks the order row for the rest of the transaction.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByClientRequestID(ctx context.Context, storeID uuid.UUID, key string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("store_id = ? AND client_request_id = ?", storeID, key).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateIfStatus applies updates only while the order is still in from and
// returns the number of rows changed.
func (r *repository) UpdateIfStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

type listParams struct {
	StoreID uuid.UUID
	Status  *enums.OrderStatus
	Limit   int
	Cursor  *pagination.Cursor
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Order, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("store_id = ?", params.StoreID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var rows []models.Order
	if err := pagination.Apply(query, params.Cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

// ListCreatedBetween returns the store's orders created in [from, to) in
// order number order.
func (r *repository) ListCreatedBetween(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND created_at >= ? AND created_at < ?", storeID, from, to).
		Order("created_at ASC, order_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPendingCreatedBetween returns PENDING_ADMIN orders of every store
// created in [from, to).
func (r *repository) ListPendingCreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at >= ? AND created_at < ?", enums.OrderStatusPendingAdmin, from, to).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
