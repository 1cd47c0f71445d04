package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

type fakeReminder struct {
	age, window time.Duration
	sent        int
	err         error
}

func (f *fakeReminder) RemindPending(_ context.Context, age, window time.Duration) (int, error) {
	f.age, f.window = age, window
	return f.sent, f.err
}

func TestPendingOrderReminderJobPassesAgeAndWindow(t *testing.T) {
	reminder := &fakeReminder{sent: 3}
	job, err := NewPendingOrderReminderJob(PendingOrderReminderJobParams{
		Logger: logger.Nop(),
		Orders: reminder,
		Age:    6 * time.Hour,
		Window: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewPendingOrderReminderJob: %v", err)
	}
	if job.Name() != "pending-order-reminder" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reminder.age != 6*time.Hour || reminder.window != 15*time.Minute {
		t.Fatalf("unexpected age/window %s/%s", reminder.age, reminder.window)
	}
}

func TestPendingOrderReminderJobDefaultsAge(t *testing.T) {
	reminder := &fakeReminder{}
	job, err := NewPendingOrderReminderJob(PendingOrderReminderJobParams{
		Logger: logger.Nop(),
		Orders: reminder,
		Window: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewPendingOrderReminderJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reminder.age != defaultPendingReminderAge {
		t.Fatalf("expected default age, got %s", reminder.age)
	}
}

func TestPendingOrderReminderJobErrors(t *testing.T) {
	if _, err := NewPendingOrderReminderJob(PendingOrderReminderJobParams{Logger: logger.Nop(), Orders: &fakeReminder{}}); err == nil {
		t.Fatal("expected window error")
	}
	job, err := NewPendingOrderReminderJob(PendingOrderReminderJobParams{
		Logger: logger.Nop(),
		Orders: &fakeReminder{err: errors.New("db down")},
		Window: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewPendingOrderReminderJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected run error")
	}
}
