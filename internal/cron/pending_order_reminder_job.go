package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

const defaultPendingReminderAge = 24 * time.Hour

type pendingReminder interface {
	RemindPending(ctx context.Context, age, window time.Duration) (int, error)
}

type PendingOrderReminderJobParams struct {
	Logger *logger.Logger
	Orders pendingReminder
	// Age is how long an order may wait for payment review before a reminder.
	Age time.Duration
	// Window should equal the cron interval so every order is reminded once.
	Window time.Duration
}

// NewPendingOrderReminderJob nudges store admins about orders stuck in
// PENDING_ADMIN.
func NewPendingOrderReminderJob(params PendingOrderReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Window <= 0 {
		return nil, fmt.Errorf("reminder window must be positive")
	}
	age := params.Age
	if age <= 0 {
		age = defaultPendingReminderAge
	}
	return &pendingOrderReminderJob{
		logg:   params.Logger,
		orders: params.Orders,
		age:    age,
		window: params.Window,
	}, nil
}

type pendingOrderReminderJob struct {
	logg   *logger.Logger
	orders pendingReminder
	age    time.Duration
	window time.Duration
}

func (j *pendingOrderReminderJob) Name() string { return "pending-order-reminder" }

func (j *pendingOrderReminderJob) Run(ctx context.Context) error {
	sent, err := j.orders.RemindPending(ctx, j.age, j.window)
	if err != nil {
		return fmt.Errorf("pending order reminder: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"age":            j.age.String(),
		"reminders_sent": sent,
	}), "pending order reminders sent")
	return nil
}
