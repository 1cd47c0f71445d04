// Package retry runs an operation under an exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Policy bounds a retry loop. The delay doubles after every failed attempt,
// is capped at MaxDelay, and is shifted by up to ±Jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      time.Duration
}

// DefaultPolicy matches the notification defaults in pkg/config.
var DefaultPolicy = Policy{
	MaxAttempts: 4,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    10 * time.Second,
	Jitter:      250 * time.Millisecond,
}

// Normalize fills zero fields from DefaultPolicy and keeps MaxDelay >= BaseDelay.
func (p Policy) Normalize() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

// Backoff builds the go-retry backoff described by the policy.
func (p Policy) Backoff() goretry.Backoff {
	p = p.Normalize()
	b := goretry.NewExponential(p.BaseDelay)
	b = goretry.WithCappedDuration(p.MaxDelay, b)
	if p.Jitter > 0 {
		b = goretry.WithJitter(p.Jitter, b)
	}
	return goretry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// Func is one attempt; attempt starts at 1.
type Func func(ctx context.Context, attempt int) error

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *permanentError
	return errors.As(err, &perm)
}

// Result summarises a retry loop.
type Result struct {
	Attempts int
	Err      error
}

// Do calls fn until it succeeds, returns a permanent error, the policy is
// exhausted, or ctx is done. Err is the last attempt's error, or the context
// error when ctx ended the loop.
func Do(ctx context.Context, policy Policy, fn Func) Result {
	attempts := 0
	var last error
	err := goretry.Do(ctx, policy.Backoff(), func(ctx context.Context) error {
		attempts++
		last = fn(ctx, attempts)
		if last == nil || IsPermanent(last) {
			return last
		}
		return goretry.RetryableError(last)
	})
	switch {
	case err == nil:
		return Result{Attempts: attempts}
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return Result{Attempts: attempts, Err: err}
	case last == nil:
		return Result{Attempts: attempts, Err: err}
	}

	var perm *permanentError
	if errors.As(last, &perm) {
		return Result{Attempts: attempts, Err: perm.err}
	}
	return Result{Attempts: attempts, Err: last}
}
