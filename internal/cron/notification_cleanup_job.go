package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

const defaultNotificationRetention = 30 * 24 * time.Hour

type NotificationCleanupJobParams struct {
	Logger    *logger.Logger
	Inbox     notificationPurger
	Retention time.Duration
}

type notificationPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewNotificationCleanupJob purges in-app notifications older than Retention.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Inbox == nil {
		return nil, fmt.Errorf("notification inbox required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultNotificationRetention
	}
	return &notificationCleanupJob{
		logg:      params.Logger,
		inbox:     params.Inbox,
		retention: retention,
		now:       time.Now,
	}, nil
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	inbox     notificationPurger
	retention time.Duration
	now       func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.inbox.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	}), "notification cleanup complete")
	return nil
}
