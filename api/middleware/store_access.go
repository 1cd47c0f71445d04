package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/api/responses"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

// StoreGuard decides whether an actor may manage a store.
type StoreGuard interface {
	AuthorizeStoreID(ctx context.Context, actor auth.Actor, storeID uuid.UUID) error
}

// RequireStoreAccess authorizes the {storeId} route parameter against the
// authenticated actor before the handler runs.
func RequireStoreAccess(guard StoreGuard, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if guard == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store guard unavailable"))
				return
			}
			actor, ok := ActorFromContext(ctx)
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
				return
			}
			storeID, err := uuid.Parse(chi.URLParam(r, "storeId"))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id"))
				return
			}
			if err := guard.AuthorizeStoreID(ctx, actor, storeID); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if logg != nil {
				ctx = logg.WithStoreID(ctx, storeID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
