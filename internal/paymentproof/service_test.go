package paymentproof

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/chatstore-backend/internal/notifications"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

type fakeOrders struct {
	order       models.Order
	attachedRef string
	attachedBy  auth.Actor
	confidence  float64
	confirmedBy *auth.Actor
	confirmErr  error
}

func (f *fakeOrders) GetOrder(_ context.Context, _ auth.Actor, id uuid.UUID) (*models.Order, error) {
	if id != f.order.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order := f.order
	return &order, nil
}

func (f *fakeOrders) AttachPaymentProof(_ context.Context, _ uuid.UUID, actor auth.Actor, ref string, confidence float64) (*models.Order, error) {
	f.attachedRef, f.attachedBy, f.confidence = ref, actor, confidence
	f.order.PaymentProofRef = &ref
	f.order.PaymentProofConfidence = &confidence
	order := f.order
	return &order, nil
}

func (f *fakeOrders) ConfirmPayment(_ context.Context, _ uuid.UUID, actor auth.Actor) (*models.Order, error) {
	f.confirmedBy = &actor
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	f.order.Status = enums.OrderStatusPaid
	order := f.order
	return &order, nil
}

type fixedAnalyzer struct {
	analysis Analysis
	expected Expected
}

func (a *fixedAnalyzer) Analyze(_ context.Context, _ Document, expected Expected) Analysis {
	a.expected = expected
	return a.analysis
}

type fakeStores struct{ store models.Store }

func (f fakeStores) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	if id != f.store.ID {
		return nil, errors.New("record not found")
	}
	store := f.store
	return &store, nil
}

type capturingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (n *capturingNotifier) Send(_ context.Context, event notifications.Event) notifications.Report {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return notifications.Report{EventID: event.ID}
}

type submitFixture struct {
	svc      *Service
	orders   *fakeOrders
	analyzer *fixedAnalyzer
	notifier *capturingNotifier
	actor    auth.Actor
}

func newSubmitFixture(t *testing.T, autoConfirm, verifiable bool) *submitFixture {
	t.Helper()
	store := models.Store{ID: uuid.New(), Name: "Toko Kopi Senja", Currency: "IDR"}
	f := &submitFixture{
		orders: &fakeOrders{order: models.Order{
			ID:          uuid.New(),
			OrderNumber: "0326-00001",
			StoreID:     store.ID,
			CustomerID:  uuid.New(),
			TotalAmount: decimal.RequireFromString("150000"),
			Currency:    "IDR",
			Status:      enums.OrderStatusPendingAdmin,
		}},
		analyzer: &fixedAnalyzer{analysis: Analysis{ConfidenceScore: 0.9, IsAutoVerifiable: verifiable}},
		notifier: &capturingNotifier{},
		actor:    auth.Actor{UserID: uuid.New(), Role: enums.PlatformRoleUser},
	}
	if !verifiable {
		f.analyzer.analysis.ConfidenceScore = 0.4
	}
	svc, err := NewService(ServiceParams{
		Logger:           logger.Nop(),
		Orders:           f.orders,
		Analyzer:         f.analyzer,
		Stores:           fakeStores{store: store},
		Notifier:         f.notifier,
		AutoConfirm:      autoConfirm,
		MaxDocumentBytes: 1024,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *submitFixture) submit(t *testing.T) (*SubmitResult, error) {
	t.Helper()
	res, err := f.svc.Submit(context.Background(), f.actor, SubmitInput{
		OrderID:  f.orders.order.ID,
		FileRef:  "proofs/0326-00001.jpg",
		Document: Document{Data: []byte("receipt")},
	})
	f.svc.Drain()
	return res, err
}

func TestSubmitAutoConfirmsVerifiableProof(t *testing.T) {
	f := newSubmitFixture(t, true, true)

	res, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentProofOutcomeConfirmed, res.Outcome)
	assert.Equal(t, enums.OrderStatusPaid, res.Order.Status)
	require.NotNil(t, f.orders.confirmedBy)
	assert.True(t, f.orders.confirmedBy.IsSystem())
	assert.Equal(t, f.actor, f.orders.attachedBy)
	assert.Equal(t, 0.9, f.orders.confidence)
	assert.Empty(t, f.notifier.events)

	require.NotNil(t, f.analyzer.expected.Recipient)
	assert.Equal(t, "Toko Kopi Senja", *f.analyzer.expected.Recipient)
	assert.Equal(t, "0326-00001", f.analyzer.expected.OrderNumber)
}

func TestSubmitQueuesWhenOperatorFlagIsOff(t *testing.T) {
	f := newSubmitFixture(t, false, true)

	res, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentProofOutcomeQueued, res.Outcome)
	assert.Equal(t, enums.OrderStatusPendingAdmin, res.Order.Status)
	assert.Nil(t, f.orders.confirmedBy)

	require.Len(t, f.notifier.events, 1)
	event := f.notifier.events[0]
	assert.Equal(t, enums.NotificationCategoryPaymentProofPending, event.Category)
	assert.Equal(t, enums.RecipientKindStore, event.Recipients[0].Kind)
	assert.Contains(t, event.Message, "90%")
}

func TestSubmitQueuesLowConfidenceProof(t *testing.T) {
	f := newSubmitFixture(t, true, false)

	res, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentProofOutcomeQueued, res.Outcome)
	assert.Nil(t, f.orders.confirmedBy)
	assert.Equal(t, "proofs/0326-00001.jpg", f.orders.attachedRef)
	assert.Len(t, f.notifier.events, 1)
}

func TestSubmitFallsBackToQueueWhenConfirmFails(t *testing.T) {
	f := newSubmitFixture(t, true, true)
	f.orders.confirmErr = pkgerrors.New(pkgerrors.CodeStateConflict, "already paid")

	res, err := f.submit(t)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentProofOutcomeQueued, res.Outcome)
	assert.Len(t, f.notifier.events, 1)
}

func TestSubmitRejectsNonPendingOrder(t *testing.T) {
	f := newSubmitFixture(t, true, true)
	f.orders.order.Status = enums.OrderStatusShipped

	_, err := f.submit(t)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, f.orders.attachedRef)
}

func TestSubmitValidatesInput(t *testing.T) {
	f := newSubmitFixture(t, true, true)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.actor, SubmitInput{OrderID: f.orders.order.ID, Document: Document{Data: []byte("x")}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Submit(ctx, f.actor, SubmitInput{OrderID: f.orders.order.ID, FileRef: "a.jpg"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Submit(ctx, f.actor, SubmitInput{OrderID: f.orders.order.ID, FileRef: "a.jpg", Document: Document{Data: make([]byte, 2048)}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Submit(ctx, f.actor, SubmitInput{OrderID: uuid.New(), FileRef: "a.jpg", Document: Document{Data: []byte("x")}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
