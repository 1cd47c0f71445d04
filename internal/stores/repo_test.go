package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
)

func TestFindCustomerScopedToStore(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	store := dbtest.Store(t, conn, uuid.New())
	other := dbtest.Store(t, conn, uuid.New())
	customer := dbtest.Customer(t, conn, store.ID)

	got, err := repo.FindCustomer(ctx, store.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)

	_, err = repo.FindCustomer(ctx, other.ID, customer.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListReachableCustomersSkipsMissingChatID(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)

	store := dbtest.Store(t, conn, uuid.New())
	reachable := dbtest.Customer(t, conn, store.ID)
	require.NoError(t, conn.Create(&models.Customer{StoreID: store.ID, Name: "Walk-in"}).Error)

	customers, err := repo.ListReachableCustomers(context.Background(), store.ID)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, reachable.ID, customers[0].ID)
}

func TestFindByIDNotFound(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := NewRepository(conn).FindByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
