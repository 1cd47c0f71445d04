package auditlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestRecordAndHistoryOldestFirst(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	orderID := uuid.New()
	admin := auth.Actor{UserID: uuid.New(), Role: enums.PlatformRoleUser}

	_, err := svc.Record(ctx, conn, RecordInput{
		Action:  enums.AdminActionOrderCreated,
		Actor:   admin,
		OrderID: orderID,
		Details: map[string]any{"order_number": "0326-00001"},
	})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.Record(ctx, conn, RecordInput{
		Action:  enums.AdminActionPaymentConfirmed,
		Actor:   auth.SystemActor(),
		OrderID: orderID,
	})
	require.NoError(t, err)
	_, err = svc.Record(ctx, conn, RecordInput{Action: enums.AdminActionOrderCreated, Actor: admin, OrderID: uuid.New()})
	require.NoError(t, err)

	history, err := svc.History(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, enums.AdminActionOrderCreated, history[0].Action)
	require.NotNil(t, history[0].AdminID)
	assert.Equal(t, admin.UserID, *history[0].AdminID)
	assert.Equal(t, "0326-00001", history[0].Details["order_number"])

	assert.Equal(t, enums.AdminActionPaymentConfirmed, history[1].Action)
	assert.Nil(t, history[1].AdminID)
	assert.Equal(t, "system", history[1].Details["actor"])
}

func TestRecordValidates(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, nil, RecordInput{Action: enums.AdminActionOrderCreated, OrderID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = svc.Record(ctx, conn, RecordInput{Action: "ORDER_EXPLODED", OrderID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Record(ctx, conn, RecordInput{Action: enums.AdminActionOrderCreated})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRecordRollsBackWithTransaction(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	orderID := uuid.New()
	boom := errors.New("boom")

	err := conn.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Record(ctx, tx, RecordInput{Action: enums.AdminActionOrderCancelled, OrderID: orderID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	history, err := svc.History(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestEntriesAreAppendOnly(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()

	entry, err := svc.Record(ctx, conn, RecordInput{Action: enums.AdminActionOrderShipped, OrderID: uuid.New()})
	require.NoError(t, err)

	err = conn.Model(&models.AdminLog{}).Where("id = ?", entry.ID).UpdateColumn("action", "ORDER_DELIVERED").Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	err = conn.Where("id = ?", entry.ID).Delete(&models.AdminLog{}).Error
	require.Error(t, err)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}
