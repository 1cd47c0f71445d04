// Package ordernumber allocates human-readable MMYY-NNNNN order numbers.
package ordernumber

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

const (
	// MaxSequence is the largest sequence that fits the five-digit suffix.
	MaxSequence = 99999
	prefixLen   = 4
	seqLen      = 5
)

// Allocator derives the next order number for a period from the highest
// number already persisted with the same prefix.
type Allocator struct {
	loc *time.Location
}

// NewAllocator builds an allocator that derives prefixes in loc (UTC when nil).
func NewAllocator(loc *time.Location) *Allocator {
	if loc == nil {
		loc = time.UTC
	}
	return &Allocator{loc: loc}
}

// Prefix returns the MMYY period prefix for at.
func (a *Allocator) Prefix(at time.Time) string {
	return Prefix(at.In(a.loc))
}

// Next returns the next unused number for at's period. It must run on the same
// transaction as the order insert; ux_orders_order_number rejects any race
// that slips between the read and the insert.
func (a *Allocator) Next(ctx context.Context, tx *gorm.DB, at time.Time) (string, error) {
	if tx == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "transaction required for order number allocation")
	}
	prefix := a.Prefix(at)

	var current sql.NullString
	err := tx.WithContext(ctx).
		Table("orders").
		Select("MAX(order_number)").
		Where("order_number LIKE ?", prefix+"-%").
		Scan(&current).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read latest order number")
	}

	next := 1
	if current.Valid && current.String != "" {
		_, seq, err := Parse(current.String)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored order number is malformed")
		}
		next = seq + 1
	}
	return Format(prefix, next)
}

// Prefix formats the month and two-digit year of at as MMYY.
func Prefix(at time.Time) string {
	return fmt.Sprintf("%02d%02d", int(at.Month()), at.Year()%100)
}

// Format joins prefix and seq into MMYY-NNNNN.
func Format(prefix string, seq int) (string, error) {
	if len(prefix) != prefixLen || !digits(prefix) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order number prefix must be MMYY")
	}
	if seq < 1 || seq > MaxSequence {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order number sequence exhausted for period").
			WithDetails(map[string]any{"prefix": prefix, "sequence": seq})
	}
	return fmt.Sprintf("%s-%05d", prefix, seq), nil
}

// Parse splits an order number into its prefix and sequence.
func Parse(number string) (string, int, error) {
	prefix, rest, ok := strings.Cut(number, "-")
	if !ok || len(prefix) != prefixLen || len(rest) != seqLen || !digits(prefix) || !digits(rest) {
		return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "order number must match MMYY-NNNNN")
	}
	month, _ := strconv.Atoi(prefix[:2])
	if month < 1 || month > 12 {
		return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "order number month out of range")
	}
	seq, _ := strconv.Atoi(rest)
	if seq < 1 {
		return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "order number sequence starts at 00001")
	}
	return prefix, seq, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
