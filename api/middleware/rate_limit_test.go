package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
)

type countingLimiter struct {
	counts map[string]int64
	err    error
}

func (c *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if c.err != nil {
		return false, 0, c.err
	}
	c.counts[scope]++
	return c.counts[scope] <= limit, c.counts[scope], nil
}

func TestRateLimitBlocksAfterLimitPerUser(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int64{}}
	handler := RateLimit(RateLimitPolicy{Name: "api", Limit: 2, Window: time.Minute}, limiter, nil)(okHandler())
	alice := auth.Actor{UserID: uuid.New(), Role: enums.PlatformRoleUser}
	bob := auth.Actor{UserID: uuid.New(), Role: enums.PlatformRoleUser}

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(WithActor(context.Background(), alice))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(WithActor(context.Background(), bob))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected other user unaffected, got %d", resp.Code)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	handler := RateLimit(RateLimitPolicy{Name: "api", Limit: 1, Window: time.Minute}, limiter, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip got %s", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.2:5555"
	if got := clientIP(req); got != "198.51.100.2" {
		t.Fatalf("expected remote ip got %s", got)
	}
}
