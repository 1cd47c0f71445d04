package paymentproof

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/internal/notifications"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/metrics"
)

// OrderLifecycle is the part of the orders service the upload flow drives.
type OrderLifecycle interface {
	GetOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*models.Order, error)
	AttachPaymentProof(ctx context.Context, orderID uuid.UUID, actor auth.Actor, ref string, confidence float64) (*models.Order, error)
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*models.Order, error)
}

type proofAnalyzer interface {
	Analyze(ctx context.Context, doc Document, expected Expected) Analysis
}

type storeReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type notifier interface {
	Send(ctx context.Context, event notifications.Event) notifications.Report
}

// ServiceParams wires the upload flow.
type ServiceParams struct {
	Logger           *logger.Logger
	Orders           OrderLifecycle
	Analyzer         proofAnalyzer
	Stores           storeReader
	Notifier         notifier
	Metrics          *metrics.OrderMetrics
	AutoConfirm      bool
	MaxDocumentBytes int64
}

// SubmitInput is one proof upload for an order.
type SubmitInput struct {
	OrderID  uuid.UUID
	FileRef  string
	Document Document
}

// SubmitResult reports what happened to the order after the upload.
type SubmitResult struct {
	Order    *models.Order
	Analysis Analysis
	Outcome  enums.PaymentProofOutcome
}

// Service attaches proofs to orders and confirms payment automatically when
// both the analysis and the operator allow it.
type Service struct {
	logg        *logger.Logger
	orders      OrderLifecycle
	analyzer    proofAnalyzer
	stores      storeReader
	notifier    notifier
	metrics     *metrics.OrderMetrics
	autoConfirm bool
	maxBytes    int64

	pending sync.WaitGroup
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders service required")
	case params.Analyzer == nil:
		return nil, fmt.Errorf("analyzer required")
	case params.Stores == nil:
		return nil, fmt.Errorf("store reader required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	}
	return &Service{
		logg:        params.Logger,
		orders:      params.Orders,
		analyzer:    params.Analyzer,
		stores:      params.Stores,
		notifier:    params.Notifier,
		metrics:     params.Metrics,
		autoConfirm: params.AutoConfirm,
		maxBytes:    params.MaxDocumentBytes,
	}, nil
}

// Submit attaches the proof, then either confirms the payment as the system
// actor or queues the order for manual review.
func (s *Service) Submit(ctx context.Context, actor auth.Actor, input SubmitInput) (*SubmitResult, error) {
	ref := strings.TrimSpace(input.FileRef)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file reference is required")
	}
	if len(input.Document.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document is required")
	}
	if s.maxBytes > 0 && int64(len(input.Document.Data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document is too large").
			WithDetails(map[string]any{"maxBytes": s.maxBytes})
	}

	ctx = s.logg.WithOrderID(ctx, input.OrderID.String())
	order, err := s.orders.GetOrder(ctx, actor, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPendingAdmin {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot attach a payment proof to an order in status %s", order.Status).
			WithDetails(map[string]any{"currentStatus": string(order.Status)})
	}

	analysis := s.analyzer.Analyze(ctx, input.Document, s.expectedFor(ctx, order))

	updated, err := s.orders.AttachPaymentProof(ctx, order.ID, actor, ref, analysis.ConfidenceScore)
	if err != nil {
		return nil, err
	}

	outcome := enums.PaymentProofOutcomeQueued
	if s.autoConfirm && analysis.IsAutoVerifiable {
		confirmed, err := s.orders.ConfirmPayment(ctx, order.ID, auth.SystemActor())
		if err == nil {
			updated = confirmed
			outcome = enums.PaymentProofOutcomeConfirmed
		} else {
			s.logg.Error(ctx, "automatic payment confirmation failed", err)
		}
	}
	if outcome == enums.PaymentProofOutcomeQueued {
		s.dispatch(ctx, reviewEvent(updated, analysis))
	}

	s.metrics.ObserveProof(string(outcome), analysis.ConfidenceScore)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"outcome":    string(outcome),
		"confidence": analysis.ConfidenceScore,
	}), "payment proof processed")

	return &SubmitResult{Order: updated, Analysis: analysis, Outcome: outcome}, nil
}

// expectedFor builds the match target; the store name stands in for the
// account holder.
func (s *Service) expectedFor(ctx context.Context, order *models.Order) Expected {
	expected := Expected{
		Amount:      order.TotalAmount,
		Currency:    order.Currency,
		OrderNumber: order.OrderNumber,
	}
	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "store lookup failed; recipient not checked")
		return expected
	}
	name := store.Name
	expected.Recipient = &name
	return expected
}

func reviewEvent(order *models.Order, analysis Analysis) notifications.Event {
	orderID := order.ID
	customerID := order.CustomerID
	total := order.TotalAmount
	link := "/orders/" + order.ID.String()
	category := enums.NotificationCategoryPaymentProofPending
	return notifications.Event{
		ID:       uuid.New(),
		Category: category,
		Priority: enums.NotificationPriorityHigh,
		Title:    "Payment proof for " + order.OrderNumber,
		Message: fmt.Sprintf("A payment proof was uploaded for order %s (confidence %.0f%%) and awaits review.",
			order.OrderNumber, analysis.ConfidenceScore*100),
		Link:       &link,
		Recipients: []notifications.Recipient{notifications.StoreRecipient(order.StoreID)},
		Channels:   []enums.NotificationChannel{enums.NotificationChannelInApp, enums.NotificationChannelRealtime},
		Payload: notifications.Payload{
			Type:        category,
			OrderID:     &orderID,
			OrderNumber: order.OrderNumber,
			StoreID:     order.StoreID,
			CustomerID:  &customerID,
			TotalAmount: &total,
			Currency:    order.Currency,
		},
	}
}

func (s *Service) dispatch(ctx context.Context, event notifications.Event) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if report := s.notifier.Send(ctx, event); report.Failed() > 0 {
			s.logg.Warn(s.logg.WithField(ctx, "event_id", event.ID.String()), "proof review notification partially failed")
		}
	}()
}

// Drain waits for background notifications.
func (s *Service) Drain() {
	s.pending.Wait()
}
