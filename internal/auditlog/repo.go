package auditlog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
)

// Repository appends and reads admin log entries. Entries are never updated
// or deleted; the admin_logs trigger rejects both.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AdminLog) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.AdminLog, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, entry *models.AdminLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.AdminLog, error) {
	var entries []models.AdminLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
