package orders

import (
	"context"
	"time"

	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// RemindPending notifies store admins about PENDING_ADMIN orders created in
// [now-age-window, now-age). Running it every window reminds each order once.
// It returns how many reminders were delivered on at least one channel.
func (s *Service) RemindPending(ctx context.Context, age, window time.Duration) (int, error) {
	if age <= 0 || window <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "reminder age and window must be positive")
	}
	to := s.now().Add(-age)
	from := to.Add(-window)

	rows, err := s.repo.ListPendingCreatedBetween(ctx, from, to)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}

	sent := 0
	for i := range rows {
		order := &rows[i]
		waited := s.now().Sub(order.CreatedAt).Round(time.Minute)
		report := s.notifier.Send(ctx, reminderEvent(order, waited.String()))
		if report.Delivered() > 0 {
			sent++
			continue
		}
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "pending order reminder not delivered")
	}
	return sent, nil
}
