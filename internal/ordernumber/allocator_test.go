package ordernumber

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

func insertOrder(t *testing.T, conn *gorm.DB, number string) {
	t.Helper()
	err := conn.Exec(`INSERT INTO orders (id, order_number, store_id, customer_id, total_amount, currency, status, customer_info)
		VALUES (?, ?, ?, ?, '0', 'IDR', 'PENDING_ADMIN', '{}')`,
		uuid.NewString(), number, uuid.NewString(), uuid.NewString()).Error
	require.NoError(t, err)
}

func TestNextStartsPeriodAtOne(t *testing.T) {
	conn := dbtest.Open(t)
	alloc := NewAllocator(time.UTC)

	number, err := alloc.Next(context.Background(), conn, time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "0326-00001", number)
}

func TestNextIncrementsWithinPrefixOnly(t *testing.T) {
	conn := dbtest.Open(t)
	insertOrder(t, conn, "0326-00041")
	insertOrder(t, conn, "0326-00007")
	insertOrder(t, conn, "0426-00900")
	insertOrder(t, conn, "0325-00950")

	alloc := NewAllocator(time.UTC)
	number, err := alloc.Next(context.Background(), conn, time.Date(2026, time.March, 31, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "0326-00042", number)
}

func TestNextUsesConfiguredLocation(t *testing.T) {
	conn := dbtest.Open(t)
	jakarta := time.FixedZone("WIB", 7*60*60)
	alloc := NewAllocator(jakarta)

	// 20:00 UTC on March 31st is already April in Jakarta.
	number, err := alloc.Next(context.Background(), conn, time.Date(2026, time.March, 31, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "0426-00001", number)
}

func TestNextSequenceExhausted(t *testing.T) {
	conn := dbtest.Open(t)
	insertOrder(t, conn, "0126-99999")

	_, err := NewAllocator(nil).Next(context.Background(), conn, time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNextIsLexicographicallyIncreasing(t *testing.T) {
	conn := dbtest.Open(t)
	alloc := NewAllocator(time.UTC)
	at := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)

	previous := ""
	for i := 0; i < 12; i++ {
		number, err := alloc.Next(context.Background(), conn, at)
		require.NoError(t, err)
		assert.Greater(t, number, previous)
		insertOrder(t, conn, number)
		previous = number
	}
	assert.Equal(t, "0726-00012", previous)
}

func TestDuplicateNumberRejectedByIndex(t *testing.T) {
	conn := dbtest.Open(t)
	insertOrder(t, conn, "0726-00001")
	err := conn.Exec(`INSERT INTO orders (id, order_number, store_id, customer_id, total_amount, currency, status, customer_info)
		VALUES (?, '0726-00001', ?, ?, '0', 'IDR', 'PENDING_ADMIN', '{}')`,
		uuid.NewString(), uuid.NewString(), uuid.NewString()).Error
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	prefix, seq, err := Parse("1226-00310")
	require.NoError(t, err)
	assert.Equal(t, "1226", prefix)
	assert.Equal(t, 310, seq)

	for _, bad := range []string{"", "1226", "1226-310", "1326-00001", "12A6-00001", "1226-00000", "1226_00001"} {
		_, _, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormat(t *testing.T) {
	number, err := Format("0126", 7)
	require.NoError(t, err)
	assert.Equal(t, "0126-00007", number)

	_, err = Format("0126", 0)
	assert.Error(t, err)
	_, err = Format("126", 1)
	assert.Error(t, err)
	assert.Equal(t, "1199", Prefix(time.Date(2099, time.November, 1, 0, 0, 0, 0, time.UTC)))
}
