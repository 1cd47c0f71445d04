package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/chatstore-backend/api/responses"
	pkgAuth "github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

const bearerPrefix = "bearer "

// Auth requires a console access token and seeds the request context with the
// actor it names. Tokens can never carry the system role.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				unauthorized(w, r, logg, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := claims.Actor()
			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithUserID(ctx, actor.UserID.String())
				ctx = logg.WithField(ctx, "actor_role", string(actor.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) <= len(bearerPrefix) || !strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(raw[len(bearerPrefix):])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="chatstore"`)
	responses.WriteError(r.Context(), logg, w, err)
}
