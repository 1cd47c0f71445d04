package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

const defaultSlowQueryThreshold = 500 * time.Millisecond

// queryLogger forwards gorm's slow queries and driver errors to the service
// logger. Record-not-found is an expected outcome and stays silent.
type queryLogger struct {
	logg          *logger.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func newQueryLogger(logg *logger.Logger, slow time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	if slow <= 0 {
		slow = defaultSlowQueryThreshold
	}
	return &queryLogger{logg: logg, slowThreshold: slow, level: gormlogger.Warn}
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *queryLogger) Info(ctx context.Context, msg string, _ ...any) {
	if l.level >= gormlogger.Info {
		l.logg.Debug(ctx, msg)
	}
}

func (l *queryLogger) Warn(ctx context.Context, msg string, _ ...any) {
	if l.level >= gormlogger.Warn {
		l.logg.Warn(ctx, msg)
	}
}

func (l *queryLogger) Error(ctx context.Context, msg string, _ ...any) {
	if l.level >= gormlogger.Error {
		l.logg.Error(ctx, msg, nil)
	}
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logg.Error(l.logg.WithFields(ctx, map[string]any{
			"sql":        sql,
			"rows":       rows,
			"elapsed_ms": elapsed.Milliseconds(),
		}), "db.query_failed", err)
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logg.Warn(l.logg.WithFields(ctx, map[string]any{
			"sql":        sql,
			"rows":       rows,
			"elapsed_ms": elapsed.Milliseconds(),
		}), "db.slow_query")
	}
}
