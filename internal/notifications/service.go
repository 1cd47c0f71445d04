package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/pagination"
)

// Service is the admin console inbox over in-app notification records.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, storeID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, storeID uuid.UUID) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams selects one page of a store's inbox.
type ListParams struct {
	StoreID    uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult is one inbox page. Unread counts the whole store inbox, not the
// page, and feeds the console badge.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
	Unread int64                 `json:"unread"`
}

// NewService builds the inbox over repo.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}

	query := listNotificationsParams{
		StoreID:    params.StoreID,
		Limit:      pagination.NormalizeLimit(params.Limit),
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, params.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	if rows == nil {
		rows = []models.Notification{}
	}
	result := &ListResult{Items: rows, Unread: unread}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, storeID, notificationID uuid.UUID) error {
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	found, err := s.repo.MarkRead(ctx, storeID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, storeID uuid.UUID) (int64, error) {
	if storeID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}

	count, err := s.repo.MarkAllRead(ctx, storeID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if cutoff.IsZero() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "cleanup cutoff required")
	}
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff.UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete old notifications")
	}
	return deleted, nil
}
