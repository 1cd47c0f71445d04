package migrate

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, Validate())
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "_create_orders.sql")

	for _, sub := range []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number ON orders (order_number)",
		"ux_orders_store_client_request ON orders (store_id, client_request_id) WHERE client_request_id IS NOT NULL",
		"CHECK (quantity > 0)",
		"ux_stock_movements_item_kind ON stock_movements (order_item_id, kind)",
		"'PENDING_ADMIN', 'PAID', 'SHIPPED', 'DELIVERED', 'REJECTED', 'CANCELLED'",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestAdminLogsMigrationIsAppendOnly(t *testing.T) {
	content := readMigration(t, "_create_admin_logs.sql")
	assert.Contains(t, content, "BEFORE UPDATE OR DELETE ON admin_logs")
	assert.Contains(t, content, "-- +goose StatementBegin")
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	bad := fstest.MapFS{
		"m/20260101000000_ok.sql":  {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/20260101000000_dup.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	require.ErrorContains(t, ValidateFS(bad, "m"), "duplicate migration version")

	noDown := fstest.MapFS{"m/20260101000000_x.sql": {Data: []byte("-- +goose Up\n")}}
	require.ErrorContains(t, ValidateFS(noDown, "m"), "missing")

	badName := fstest.MapFS{"m/create_things.sql": {Data: []byte("")}}
	require.ErrorContains(t, ValidateFS(badName, "m"), "invalid migration filename")
}

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	entries, err := fs.ReadDir(embedded, Dir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			b, err := fs.ReadFile(embedded, Dir+"/"+e.Name())
			require.NoError(t, err)
			return string(b)
		}
	}
	t.Fatalf("no migration ending in %s", suffix)
	return ""
}
