package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
)

// Repository reads stores and the customers that belong to them. Store and
// customer CRUD lives in the catalog service; this side only looks them up.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID returns the store or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindCustomer returns the customer only when it belongs to storeID.
func (r *Repository) FindCustomer(ctx context.Context, storeID, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", customerID, storeID).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindCustomerByID loads a customer regardless of store.
func (r *Repository) FindCustomerByID(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", customerID).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListReachableCustomers returns customers of storeID the chat-bot can message.
func (r *Repository) ListReachableCustomers(ctx context.Context, storeID uuid.UUID) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND chat_id IS NOT NULL AND chat_id <> ''", storeID).
		Order("created_at ASC").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}
