package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

func TestLoggingRecordsRoutePatternStatusAndBytes(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf, Format: logger.FormatJSON})

	r := chi.NewRouter()
	r.Use(Logging(logg))
	r.Post("/orders/{orderId}/ship", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{}}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/orders/5b0e7c2a-3a4f-4c55-9c1e-0a8f0d1b2c3d/ship", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["message"] != "request.complete" {
		t.Fatalf("unexpected message %v", line["message"])
	}
	if line["route"] != "/orders/{orderId}/ship" {
		t.Fatalf("expected route pattern, got %v", line["route"])
	}
	if line["status"] != float64(http.StatusUnprocessableEntity) {
		t.Fatalf("expected 422, got %v", line["status"])
	}
	if line["bytes"] != float64(len(`{"error":{}}`)) {
		t.Fatalf("unexpected bytes %v", line["bytes"])
	}
}

func TestLoggingSkipsProbes(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf, Format: logger.FormatJSON})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health/live", "/metrics"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if buf.Len() != 0 {
		t.Fatalf("probes should not be logged, got %q", buf.String())
	}
}
