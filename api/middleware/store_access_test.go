package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

type stubGuard struct {
	allowed uuid.UUID
}

func (g stubGuard) AuthorizeStoreID(_ context.Context, _ auth.Actor, storeID uuid.UUID) error {
	if storeID != g.allowed {
		return pkgerrors.New(pkgerrors.CodeForbidden, "actor cannot manage this store")
	}
	return nil
}

func serveStoreRoute(guard StoreGuard, path string, withActor bool) int {
	r := chi.NewRouter()
	r.With(RequireStoreAccess(guard, nil)).Get("/stores/{storeId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if withActor {
		req = req.WithContext(WithActor(req.Context(), auth.Actor{UserID: uuid.New(), Role: enums.PlatformRoleUser}))
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp.Code
}

func TestRequireStoreAccess(t *testing.T) {
	allowed := uuid.New()
	guard := stubGuard{allowed: allowed}

	cases := []struct {
		name      string
		path      string
		withActor bool
		want      int
	}{
		{"allowed", "/stores/" + allowed.String(), true, http.StatusOK},
		{"other store", "/stores/" + uuid.NewString(), true, http.StatusForbidden},
		{"bad id", "/stores/not-a-uuid", true, http.StatusBadRequest},
		{"no actor", "/stores/" + allowed.String(), false, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := serveStoreRoute(guard, tc.path, tc.withActor); got != tc.want {
				t.Fatalf("expected %d got %d", tc.want, got)
			}
		})
	}
}
