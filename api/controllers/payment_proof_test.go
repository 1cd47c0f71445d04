package controllers

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/chatstore-backend/api/middleware"
	"github.com/angelmondragon/chatstore-backend/internal/paymentproof"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

type stubProofSubmitter struct {
	submitFn  func(input paymentproof.SubmitInput) (*paymentproof.SubmitResult, error)
	calls     int
	lastActor auth.Actor
}

func (s *stubProofSubmitter) Submit(_ context.Context, actor auth.Actor, input paymentproof.SubmitInput) (*paymentproof.SubmitResult, error) {
	s.calls++
	s.lastActor = actor
	return s.submitFn(input)
}

func proofRouter(svc ProofSubmitter) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithActor(r.Context(), testActor)))
		})
	})
	r.Post("/orders/{orderId}/payment-proof", SubmitPaymentProof(svc, nil))
	return r
}

func proofBody(document string) string {
	return `{"fileRef":"proofs/a.txt","document":"` + document + `","filename":"../receipt.txt","contentType":"text/plain"}`
}

func TestSubmitPaymentProofMapsOutcome(t *testing.T) {
	orderID := uuid.New()
	receipt := []byte("BCA\nJumlah: Rp 150.000,00")
	var captured paymentproof.SubmitInput
	svc := &stubProofSubmitter{submitFn: func(input paymentproof.SubmitInput) (*paymentproof.SubmitResult, error) {
		captured = input
		return &paymentproof.SubmitResult{
			Order:    &models.Order{ID: orderID, OrderNumber: "0326-00001", Status: enums.OrderStatusPaid},
			Analysis: paymentproof.Analysis{ConfidenceScore: 0.9, IsAutoVerifiable: true, AnalysisDetails: []string{"ok"}},
			Outcome:  enums.PaymentProofOutcomeConfirmed,
		}, nil
	}}

	resp := do(t, proofRouter(svc), http.MethodPost, "/orders/"+orderID.String()+"/payment-proof",
		proofBody(base64.StdEncoding.EncodeToString(receipt)), nil)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, orderID, captured.OrderID)
	assert.Equal(t, "proofs/a.txt", captured.FileRef)
	assert.Equal(t, receipt, captured.Document.Data)
	assert.NotContains(t, captured.Document.Filename, "/")
	assert.Equal(t, "text/plain", captured.Document.ContentType)
	assert.Equal(t, testActor, svc.lastActor)

	data := decodeData(t, resp)
	assert.Equal(t, "confirmed", data["outcome"])
	assert.Equal(t, "PAID", data["order"].(map[string]any)["status"])
	analysis := data["analysis"].(map[string]any)
	assert.Equal(t, true, analysis["isAutoVerifiable"])
	assert.InDelta(t, 0.9, analysis["confidenceScore"], 1e-9)
}

func TestSubmitPaymentProofRejectsBadInput(t *testing.T) {
	svc := &stubProofSubmitter{submitFn: func(paymentproof.SubmitInput) (*paymentproof.SubmitResult, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	h := proofRouter(svc)
	path := "/orders/" + uuid.NewString() + "/payment-proof"

	resp := do(t, h, http.MethodPost, path, proofBody("%%%not-base64%%%"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "document must be base64")

	resp = do(t, h, http.MethodPost, path, `{"document":"aGk="}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, h, http.MethodPost, "/orders/nope/payment-proof", proofBody("aGk="), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	prev := maxProofBodyBytes
	maxProofBodyBytes = 256
	t.Cleanup(func() { maxProofBodyBytes = prev })
	resp = do(t, h, http.MethodPost, path, proofBody(strings.Repeat("QUFB", 128)), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "request body too large")
	assert.Zero(t, svc.calls)
}

func TestSubmitPaymentProofSurfacesServiceErrors(t *testing.T) {
	svc := &stubProofSubmitter{submitFn: func(paymentproof.SubmitInput) (*paymentproof.SubmitResult, error) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot attach a payment proof to an order in status PAID")
	}}

	resp := do(t, proofRouter(svc), http.MethodPost, "/orders/"+uuid.NewString()+"/payment-proof", proofBody("aGk="), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Body.String(), string(pkgerrors.CodeStateConflict))
}
