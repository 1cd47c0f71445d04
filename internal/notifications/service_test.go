package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/pagination"
)

type stubInboxRepo struct {
	list        func(params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	unread      int64
	unreadErr   error
	markRead    func(storeID, notificationID uuid.UUID, now time.Time) (bool, error)
	markAllRead func(storeID uuid.UUID) (int64, error)
	deleted     []time.Time
}

func (s *stubInboxRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubInboxRepo) Create(context.Context, *models.Notification) error { return nil }

func (s *stubInboxRepo) List(_ context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	if s.list == nil {
		return nil, nil, nil
	}
	return s.list(params)
}

func (s *stubInboxRepo) CountUnread(context.Context, uuid.UUID) (int64, error) {
	return s.unread, s.unreadErr
}

func (s *stubInboxRepo) MarkRead(_ context.Context, storeID, notificationID uuid.UUID, now time.Time) (bool, error) {
	if s.markRead == nil {
		return true, nil
	}
	return s.markRead(storeID, notificationID, now)
}

func (s *stubInboxRepo) MarkAllRead(_ context.Context, storeID uuid.UUID, _ time.Time) (int64, error) {
	if s.markAllRead == nil {
		return 0, nil
	}
	return s.markAllRead(storeID)
}

func (s *stubInboxRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.deleted = append(s.deleted, cutoff)
	return 5, nil
}

func newInbox(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc
}

func TestInboxListReturnsPageCursorAndUnreadCount(t *testing.T) {
	storeID := uuid.New()
	newest := models.Notification{ID: uuid.New(), StoreID: storeID, CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	repo := &stubInboxRepo{
		unread: 4,
		list: func(params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
			assert.Equal(t, storeID, params.StoreID)
			assert.Equal(t, 1, params.Limit)
			assert.True(t, params.UnreadOnly)
			return []models.Notification{newest}, &pagination.Cursor{CreatedAt: newest.CreatedAt, ID: newest.ID}, nil
		},
	}

	result, err := newInbox(t, repo).List(context.Background(), ListParams{StoreID: storeID, Limit: 1, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.EqualValues(t, 4, result.Unread)

	decoded, err := pagination.ParseCursor(result.Cursor)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, decoded.ID)
}

func TestInboxListEmptyPageIsNotNil(t *testing.T) {
	result, err := newInbox(t, &stubInboxRepo{}).List(context.Background(), ListParams{StoreID: uuid.New()})
	require.NoError(t, err)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Cursor)
}

func TestInboxListRejectsBadInput(t *testing.T) {
	svc := newInbox(t, &stubInboxRepo{})

	_, err := svc.List(context.Background(), ListParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(context.Background(), ListParams{StoreID: uuid.New(), Cursor: "not-a-cursor"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestInboxListSurfacesCountFailure(t *testing.T) {
	svc := newInbox(t, &stubInboxRepo{unreadErr: errors.New("conn refused")})
	_, err := svc.List(context.Background(), ListParams{StoreID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestInboxMarkRead(t *testing.T) {
	storeID, notificationID := uuid.New(), uuid.New()
	var stamped time.Time
	repo := &stubInboxRepo{markRead: func(s, n uuid.UUID, now time.Time) (bool, error) {
		assert.Equal(t, storeID, s)
		assert.Equal(t, notificationID, n)
		stamped = now
		return true, nil
	}}

	require.NoError(t, newInbox(t, repo).MarkRead(context.Background(), storeID, notificationID))
	assert.Equal(t, time.UTC, stamped.Location())
}

func TestInboxMarkReadUnknownNotification(t *testing.T) {
	repo := &stubInboxRepo{markRead: func(uuid.UUID, uuid.UUID, time.Time) (bool, error) { return false, nil }}
	err := newInbox(t, repo).MarkRead(context.Background(), uuid.New(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = newInbox(t, repo).MarkRead(context.Background(), uuid.New(), uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestInboxMarkAllRead(t *testing.T) {
	repo := &stubInboxRepo{markAllRead: func(uuid.UUID) (int64, error) { return 3, nil }}
	count, err := newInbox(t, repo).MarkAllRead(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	failing := &stubInboxRepo{markAllRead: func(uuid.UUID) (int64, error) { return 0, errors.New("boom") }}
	_, err = newInbox(t, failing).MarkAllRead(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestInboxDeleteOlderThan(t *testing.T) {
	repo := &stubInboxRepo{}
	svc := newInbox(t, repo)
	cutoff := time.Date(2026, 2, 1, 0, 0, 0, 0, time.FixedZone("WIB", 7*3600))

	deleted, err := svc.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 5, deleted)
	require.Len(t, repo.deleted, 1)
	assert.True(t, repo.deleted[0].Equal(cutoff))

	_, err = svc.DeleteOlderThan(context.Background(), time.Time{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
