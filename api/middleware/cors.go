package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/chatstore-backend/pkg/config"
)

// CORS applies the console's allowed origin policy.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "X-Client-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAgeSeconds,
	}).Handler
}
