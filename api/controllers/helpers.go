package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/api/middleware"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

func actorFrom(r *http.Request) (auth.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return auth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing")
	}
	return actor, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).
			WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
