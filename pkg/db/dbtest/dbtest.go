// Package dbtest opens sqlite databases carrying the service schema for tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var seq atomic.Int64

// schema mirrors pkg/migrate/migrations with sqlite types.
var schema = []string{
	`CREATE TABLE stores (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_user_id TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'IDR',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE store_memberships (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE customers (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		chat_id TEXT,
		name TEXT NOT NULL,
		phone TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		stock INTEGER CHECK (stock IS NULL OR stock >= 0),
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE product_variants (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price TEXT,
		stock INTEGER CHECK (stock IS NULL OR stock >= 0),
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		order_number TEXT NOT NULL,
		store_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING_ADMIN',
		customer_info TEXT NOT NULL,
		client_request_id TEXT,
		payment_proof_ref TEXT,
		payment_proof_confidence REAL,
		rejection_reason TEXT,
		cancellation_reason TEXT,
		tracking_number TEXT,
		carrier TEXT,
		delivery_notes TEXT,
		paid_at DATETIME,
		shipped_at DATETIME,
		delivered_at DATETIME,
		rejected_at DATETIME,
		cancelled_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_orders_order_number ON orders (order_number)`,
	`CREATE UNIQUE INDEX ux_orders_store_client_request ON orders (store_id, client_request_id) WHERE client_request_id IS NOT NULL`,
	`CREATE TABLE order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		variant_id TEXT,
		product_name TEXT NOT NULL,
		variant_name TEXT,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price TEXT NOT NULL,
		line_total TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE stock_movements (
		id TEXT PRIMARY KEY,
		order_item_id TEXT NOT NULL,
		target TEXT NOT NULL,
		target_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		created_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_stock_movements_item_kind ON stock_movements (order_item_id, kind)`,
	`CREATE TABLE admin_logs (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		admin_id TEXT,
		order_id TEXT NOT NULL,
		details TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TRIGGER admin_logs_no_update BEFORE UPDATE ON admin_logs
		BEGIN SELECT RAISE(ABORT, 'admin_logs is append-only'); END`,
	`CREATE TRIGGER admin_logs_no_delete BEFORE DELETE ON admin_logs
		BEGIN SELECT RAISE(ABORT, 'admin_logs is append-only'); END`,
	`CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		order_id TEXT,
		category TEXT NOT NULL,
		priority TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		link TEXT,
		read_at DATETIME,
		created_at DATETIME
	)`,
}

// Open returns a private in-memory database with the full schema applied.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v\n%s", err, stmt)
		}
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
