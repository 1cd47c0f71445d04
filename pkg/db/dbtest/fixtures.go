package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

// IntPtr is a convenience for nullable stock columns.
func IntPtr(v int) *int { return &v }

// StrPtr is a convenience for nullable text columns.
func StrPtr(v string) *string { return &v }

func mustCreate(t testing.TB, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}

// Store inserts an active store owned by owner.
func Store(t testing.TB, conn *gorm.DB, owner uuid.UUID) models.Store {
	t.Helper()
	store := models.Store{Name: "Toko Test", OwnerUserID: owner, Currency: "IDR", IsActive: true}
	mustCreate(t, conn, &store)
	return store
}

// Membership grants user a role in store.
func Membership(t testing.TB, conn *gorm.DB, storeID, userID uuid.UUID, role enums.MemberRole) {
	t.Helper()
	mustCreate(t, conn, &models.StoreMembership{StoreID: storeID, UserID: userID, Role: role})
}

// Customer inserts a chat-bot customer of store.
func Customer(t testing.TB, conn *gorm.DB, storeID uuid.UUID) models.Customer {
	t.Helper()
	customer := models.Customer{StoreID: storeID, Name: "Budi", ChatID: StrPtr("chat-100"), Phone: StrPtr("+628111")}
	mustCreate(t, conn, &customer)
	return customer
}

// Product inserts an active product; a nil stock means untracked.
func Product(t testing.TB, conn *gorm.DB, storeID uuid.UUID, price string, stock *int) models.Product {
	t.Helper()
	product := models.Product{
		StoreID:  storeID,
		Name:     "Kopi Susu " + uuid.NewString()[:4],
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	mustCreate(t, conn, &product)
	return product
}

// Variant inserts a variant of product; price and stock are optional overrides.
func Variant(t testing.TB, conn *gorm.DB, productID uuid.UUID, price *decimal.Decimal, stock *int) models.ProductVariant {
	t.Helper()
	variant := models.ProductVariant{ProductID: productID, Name: "Large", Price: price, Stock: stock}
	mustCreate(t, conn, &variant)
	return variant
}

// StockOf reads the current stock of a product or variant row.
func StockOf(t testing.TB, conn *gorm.DB, table string, id uuid.UUID) *int {
	t.Helper()
	var row struct{ Stock *int }
	if err := conn.Table(table).Select("stock").Where("id = ?", id).Take(&row).Error; err != nil {
		t.Fatalf("read stock from %s: %v", table, err)
	}
	return row.Stock
}
