// Package responses writes the JSON envelopes every handler answers with.
package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/types"
)

// RequestIDHeader carries the request id set by the RequestID middleware.
const RequestIDHeader = "X-Request-Id"

// codes whose caller-facing message replaces the generic public message
var passThroughMessages = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:        true,
	pkgerrors.CodeForbidden:         true,
	pkgerrors.CodeUnauthorized:      true,
	pkgerrors.CodeNotFound:          true,
	pkgerrors.CodeConflict:          true,
	pkgerrors.CodeStateConflict:     true,
	pkgerrors.CodeInsufficientStock: true,
	pkgerrors.CodeIdempotency:       true,
	pkgerrors.CodeRateLimit:         true,
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError maps err onto its HTTP status and error envelope. Untyped errors
// become INTERNAL and never leak their text.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if passThroughMessages[typed.Code()] && typed.Message() != "" {
		msg = typed.Message()
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:      string(typed.Code()),
			Message:   msg,
			RequestID: w.Header().Get(RequestIDHeader),
		},
	}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	if logg != nil {
		logError(ctx, logg, meta.HTTPStatus, err)
	}
	writeJSON(w, meta.HTTPStatus, payload)
}

// logError records client errors at warn and everything else at error with
// the driver detail extracted by pkgerrors.Dump.
func logError(ctx context.Context, logg *logger.Logger, status int, err error) {
	dump := pkgerrors.Dump(err)
	fields := dump.Fields()
	fields["status"] = status
	ctx = logg.WithFields(ctx, fields)
	if status < http.StatusInternalServerError {
		logg.Warn(logg.WithField(ctx, "error", dump.TopMessage), "request.rejected")
		return
	}
	logg.Error(ctx, "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already out; an encode failure can only be a broken connection
	_ = json.NewEncoder(w).Encode(payload)
}
