package controllers

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/angelmondragon/chatstore-backend/api/responses"
	"github.com/angelmondragon/chatstore-backend/api/validators"
	"github.com/angelmondragon/chatstore-backend/internal/paymentproof"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

// maxProofBodyBytes leaves room for a base64 document at the service's
// default size cap.
var maxProofBodyBytes int64 = 16 << 20

// ProofSubmitter runs the payment proof upload flow.
type ProofSubmitter interface {
	Submit(ctx context.Context, actor auth.Actor, input paymentproof.SubmitInput) (*paymentproof.SubmitResult, error)
}

// The file itself lives in external storage; fileRef points at it and the
// document bytes travel inline for analysis.
type paymentProofRequest struct {
	FileRef     string `json:"fileRef" validate:"required,max=512"`
	Document    string `json:"document" validate:"required"`
	Filename    string `json:"filename,omitempty" validate:"omitempty,max=255"`
	ContentType string `json:"contentType,omitempty" validate:"omitempty,max=128"`
}

func SubmitPaymentProof(svc ProofSubmitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req paymentProofRequest
		if err := validators.DecodeJSONBodyLimit(r, &req, maxProofBodyBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := base64.StdEncoding.DecodeString(req.Document)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "document must be base64").
				WithDetails(map[string]any{"field": "document"}))
			return
		}

		res, err := svc.Submit(r.Context(), actor, paymentproof.SubmitInput{
			OrderID: orderID,
			FileRef: req.FileRef,
			Document: paymentproof.Document{
				Data:        data,
				Filename:    validators.SanitizeFilename(req.Filename, 255),
				ContentType: req.ContentType,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"order":    res.Order,
			"analysis": res.Analysis,
			"outcome":  res.Outcome,
		})
	}
}
