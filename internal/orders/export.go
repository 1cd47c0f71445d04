package orders

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

var exportHeader = []string{
	"order_number", "status", "customer_name", "customer_phone",
	"total_amount", "currency", "created_at", "paid_at", "shipped_at",
	"delivered_at", "tracking_number", "carrier",
}

// ExportOrdersCSV writes the store's orders created in [from, to) to w.
// Order numbers are written verbatim.
func (s *Service) ExportOrdersCSV(ctx context.Context, actor auth.Actor, storeID uuid.UUID, from, to time.Time, w io.Writer) (int, error) {
	if !to.After(from) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "export range end must be after its start")
	}
	if err := s.AuthorizeStoreID(ctx, actor, storeID); err != nil {
		return 0, err
	}

	rows, err := s.repo.ListCreatedBetween(ctx, storeID, from.UTC(), to.UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders for export")
	}

	out := csv.NewWriter(w)
	if err := out.Write(exportHeader); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write export header")
	}
	for i := range rows {
		if err := out.Write(exportRecord(&rows[i])); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write export row")
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush export")
	}
	return len(rows), nil
}

func exportRecord(order *models.Order) []string {
	return []string{
		order.OrderNumber,
		string(order.Status),
		safeCell(order.CustomerInfo.Name),
		safeCell(order.CustomerInfo.Phone),
		order.TotalAmount.StringFixed(2),
		order.Currency,
		formatTime(&order.CreatedAt),
		formatTime(order.PaidAt),
		formatTime(order.ShippedAt),
		formatTime(order.DeliveredAt),
		safeCell(optional(order.TrackingNumber)),
		safeCell(optional(order.Carrier)),
	}
}

// safeCell quotes values a spreadsheet would evaluate as a formula.
func safeCell(value string) string {
	if value != "" && strings.ContainsRune("=+-@\t\r", rune(value[0])) {
		return "'" + value
	}
	return value
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
