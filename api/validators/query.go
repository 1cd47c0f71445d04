package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// DateLayout is the calendar date format accepted in query strings.
const DateLayout = "2006-01-02"

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "query parameter must be true or false").
			WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseQueryDate reads a required YYYY-MM-DD parameter as midnight UTC.
func ParseQueryDate(r *http.Request, key string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").
			WithDetails(map[string]any{"field": key})
	}
	value, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must be YYYY-MM-DD").
			WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
