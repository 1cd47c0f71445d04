package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	uniqueViolationCode  = "23505"
	serializationFailure = "40001"
	deadlockDetectedCode = "40P01"
)

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraintName is set, only violations of that constraint match. Postgres
// errors are matched on code and constraint; sqlite errors on their message,
// where the constraint is identified by its column list.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode && matchesConstraint(pgErr.ConstraintName, constraintName)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode && matchesConstraint(pqErr.Constraint, constraintName)
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		if constraintName == "" {
			return true
		}
		cols, ok := sqliteConstraintColumns[constraintName]
		return ok && strings.Contains(msg, cols)
	}
	if !strings.Contains(msg, "duplicate key value") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}

// IsRetryableTx reports whether postgres aborted the transaction in a way a
// replay may resolve.
func IsRetryableTx(err error) bool {
	if err == nil {
		return false
	}
	var code string
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code = pgErr.Code
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	default:
		return false
	}
	return code == serializationFailure || code == deadlockDetectedCode
}

func matchesConstraint(actual, want string) bool {
	return want == "" || actual == want
}

// sqlite reports violated columns instead of index names.
var sqliteConstraintColumns = map[string]string{
	ConstraintOrderNumber:       "orders.order_number",
	ConstraintOrderClientReq:    "orders.store_id, orders.client_request_id",
	ConstraintStockMovementKind: "stock_movements.order_item_id, stock_movements.kind",
}

const (
	ConstraintOrderNumber       = "ux_orders_order_number"
	ConstraintOrderClientReq    = "ux_orders_store_client_request"
	ConstraintStockMovementKind = "ux_stock_movements_item_kind"
)
