// Package cron runs the periodic maintenance jobs of the order backend under
// a distributed lock, so only one worker replica executes a cycle.
package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

// ServiceParams configure the cron service. JobTimeout defaults to Interval
// so a hung job cannot run into the next cycle.
type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service executes registered cron jobs on a fixed cadence.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	s := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = s.interval
	}
	return s, nil
}

// Interval is the cadence between cycles.
func (s *Service) Interval() time.Duration {
	return s.interval
}

// Run executes a cycle immediately and then once per interval until ctx is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "cron.cycle_failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs every registered job if the lock can be taken. Every job runs
// even when an earlier one fails; the failures are combined.
func (s *Service) RunOnce(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "cron.cycle_skipped")
		return nil
	}
	defer func() {
		// released even when ctx was canceled mid-cycle
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", err)
		}
	}()

	var errs error
	jobs := s.registry.Jobs()
	for _, job := range jobs {
		if err := s.runJob(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs":        len(jobs),
		"failed_jobs": len(multierr.Errors(errs)),
	}), "cron.cycle_complete")
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	name := job.Name()
	jobCtx, cancel := context.WithTimeout(s.logg.WithField(ctx, "job", name), s.jobTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		duration := time.Since(start)
		s.metrics.ObserveDuration(name, duration)
		logCtx := s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
		if err != nil {
			s.metrics.IncFailure(name)
			s.logg.Error(logCtx, "cron.job_failed", err)
			return
		}
		s.metrics.IncSuccess(name)
		s.logg.Info(logCtx, "cron.job_completed")
	}()

	return job.Run(jobCtx)
}
