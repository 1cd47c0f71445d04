package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: ConstraintOrderNumber}
	wrapped := fmt.Errorf("insert order: %w", pgErr)

	assert.True(t, IsUniqueViolation(wrapped, ConstraintOrderNumber))
	assert.True(t, IsUniqueViolation(wrapped, ""))
	assert.False(t, IsUniqueViolation(wrapped, ConstraintOrderClientReq))

	pqErr := &pq.Error{Code: "23505", Constraint: ConstraintOrderClientReq}
	assert.True(t, IsUniqueViolation(pqErr, ConstraintOrderClientReq))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}, ""))

	sqliteErr := errors.New("UNIQUE constraint failed: orders.order_number")
	assert.True(t, IsUniqueViolation(sqliteErr, ConstraintOrderNumber))
	assert.False(t, IsUniqueViolation(sqliteErr, ConstraintOrderClientReq))

	assert.False(t, IsUniqueViolation(nil, ""))
	assert.False(t, IsUniqueViolation(errors.New("connection reset"), ""))
}

func TestIsRetryableTx(t *testing.T) {
	assert.True(t, IsRetryableTx(fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40001"})))
	assert.True(t, IsRetryableTx(&pq.Error{Code: "40P01"}))
	assert.False(t, IsRetryableTx(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryableTx(errors.New("serialization failure")))
	assert.False(t, IsRetryableTx(nil))
}
