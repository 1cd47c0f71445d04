package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/chatstore-backend/pkg/types"
)

func TestRecovererAnswers500WithRequestID(t *testing.T) {
	handler := RequestID(nil)(Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "chatbot-req-0001")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR got %s", body.Error.Code)
	}
	if body.Error.Message == "boom" || body.Error.Message == "panic" {
		t.Fatalf("panic text leaked: %q", body.Error.Message)
	}
	if body.Error.RequestID != "chatbot-req-0001" {
		t.Fatalf("expected request id echoed, got %q", body.Error.RequestID)
	}
}

func TestRecovererReraisesAbort(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequestIDReplacesMalformedIDs(t *testing.T) {
	var seen string
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get("X-Request-Id")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "bad id\nwith newline")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if seen == "" || seen == "bad id\nwith newline" {
		t.Fatalf("expected a minted id, got %q", seen)
	}
	if resp.Header().Get("X-Request-Id") != seen {
		t.Fatalf("response header mismatch")
	}
}
