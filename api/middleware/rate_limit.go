package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/chatstore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

// WindowLimiter is a fixed-window counter, e.g. the redis client.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy caps requests per caller within a fixed window.
type RateLimitPolicy struct {
	Name   string
	Limit  int64
	Window time.Duration
}

func (p RateLimitPolicy) enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

// RateLimit throttles by authenticated user, falling back to the client IP.
// Limiter errors let the request through.
func RateLimit(policy RateLimitPolicy, limiter WindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := policy.Name + ":" + callerKey(r)

			allowed, count, err := limiter.FixedWindowAllow(ctx, scope, policy.Limit, policy.Window)
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "rate limiter unavailable", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":   policy.Name,
						"attempts": count,
						"limit":    policy.Limit,
					}), "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if actor, ok := ActorFromContext(r.Context()); ok {
		return "user:" + actor.UserID.String()
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
