package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

type fakeInbox struct {
	lastCutoff  time.Time
	deletedRows int64
	err         error
	called      int
}

func (f *fakeInbox) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deletedRows, nil
}

func newNotificationCleanupJob(t *testing.T, inbox *fakeInbox, retention time.Duration) *notificationCleanupJob {
	t.Helper()
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:    logger.Nop(),
		Inbox:     inbox,
		Retention: retention,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	job, ok := jobIface.(*notificationCleanupJob)
	if !ok {
		t.Fatalf("expected notificationCleanupJob, got %T", jobIface)
	}
	return job
}

func TestNotificationCleanupJobDeletesExpiredNotifications(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	inbox := &fakeInbox{deletedRows: 42}
	job := newNotificationCleanupJob(t, inbox, 0)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := now.Add(-defaultNotificationRetention)
	if !inbox.lastCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, inbox.lastCutoff)
	}
	if inbox.called != 1 {
		t.Fatalf("expected inbox called once, got %d", inbox.called)
	}
}

func TestNotificationCleanupJobUsesConfiguredRetention(t *testing.T) {
	now := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	inbox := &fakeInbox{}
	job := newNotificationCleanupJob(t, inbox, 48*time.Hour)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := time.Date(2026, 1, 29, 12, 0, 0, 0, time.UTC); !inbox.lastCutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, inbox.lastCutoff)
	}
}

func TestNotificationCleanupJobPropagatesErrors(t *testing.T) {
	job := newNotificationCleanupJob(t, &fakeInbox{err: errors.New("boom")}, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
