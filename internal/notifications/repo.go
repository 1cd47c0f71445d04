package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/pagination"
)

// Repository persists in-app notification records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	CountUnread(ctx context.Context, storeID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, storeID, notificationID uuid.UUID, now time.Time) (bool, error)
	MarkAllRead(ctx context.Context, storeID uuid.UUID, now time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listNotificationsParams struct {
	StoreID    uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

// cleanupBatchSize bounds each retention DELETE so it never holds locks on
// the whole table.
var cleanupBatchSize = 500

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("store_id = ?", params.StoreID)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var rows []models.Notification
	if err := pagination.Apply(query, params.Cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return page, next, nil
}

func (r *repositoryImpl) CountUnread(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("store_id = ? AND read_at IS NULL", storeID).
		Count(&count).Error
	return count, err
}

// MarkRead reports whether the notification exists for the store. Marking an
// already read record keeps its first read_at.
func (r *repositoryImpl) MarkRead(ctx context.Context, storeID, notificationID uuid.UUID, now time.Time) (bool, error) {
	db := r.db.WithContext(ctx)

	var current models.Notification
	err := db.Select("id", "read_at").
		Where("id = ? AND store_id = ?", notificationID, storeID).
		Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if current.ReadAt != nil {
		return true, nil
	}
	err = db.Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", notificationID).
		UpdateColumn("read_at", now).Error
	return err == nil, err
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, storeID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("store_id = ? AND read_at IS NULL", storeID).
		UpdateColumn("read_at", now)
	return result.RowsAffected, result.Error
}

// DeleteOlderThan removes records created before cutoff in batches and
// returns the total removed.
func (r *repositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	db := r.db.WithContext(ctx)
	var total int64
	for {
		batch := db.Model(&models.Notification{}).
			Select("id").
			Where("created_at < ?", cutoff).
			Limit(cleanupBatchSize)
		result := db.Where("id IN (?)", batch).Delete(&models.Notification{})
		if result.Error != nil {
			return total, result.Error
		}
		total += result.RowsAffected
		if result.RowsAffected < int64(cleanupBatchSize) {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}
