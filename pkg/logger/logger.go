// Package logger wraps zerolog with context-carried fields so request,
// store and order identifiers follow a call chain without being threaded
// through every signature.
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"

	// formatEnv is read when Options.Format is empty, before config loads.
	formatEnv = "CHATSTORE_LOG_FORMAT"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Format      string
	Output      io.Writer
}

type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	format := strings.TrimSpace(opts.Format)
	if format == "" {
		format = os.Getenv(formatEnv)
	}
	if strings.EqualFold(format, FormatConsole) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	return &Logger{
		base: zerolog.New(out).
			Level(opts.Level).
			With().
			Timestamp().
			Str("service", opts.ServiceName).
			Logger(),
		warnStack: opts.WarnStack,
	}
}

// Nop discards everything.
func Nop() *Logger {
	return New(Options{ServiceName: "nop", Level: zerolog.Disabled, Output: io.Discard})
}

// ParseLevel falls back to info for blank or unknown values.
func ParseLevel(value string) zerolog.Level {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "warning" {
		return zerolog.WarnLevel
	}
	if lvl, err := zerolog.ParseLevel(value); err == nil && value != "" {
		return lvl
	}
	return zerolog.InfoLevel
}

func (l *Logger) from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return entry
		}
	}
	return &l.base
}

func (l *Logger) with(ctx context.Context, build func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	entry := build(l.from(ctx).With()).Logger()
	return context.WithValue(ctx, ctxKey{}, &entry)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

// WithFields attaches fields in key order so output is stable.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		for _, k := range keys {
			c = c.Interface(k, fields[k])
		}
		return c
	})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.withString(ctx, "request_id", requestID)
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	return l.withString(ctx, "user_id", userID)
}

func (l *Logger) WithStoreID(ctx context.Context, storeID string) context.Context {
	return l.withString(ctx, "store_id", storeID)
}

func (l *Logger) WithOrderID(ctx context.Context, orderID string) context.Context {
	return l.withString(ctx, "order_id", orderID)
}

func (l *Logger) withString(ctx context.Context, key, value string) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str(key, value)
	})
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.from(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.from(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.from(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error always records the stack.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	l.from(ctx).Error().Err(err).Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
