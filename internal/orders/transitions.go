package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/internal/auditlog"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// transition describes one move of the order state machine.
type transition struct {
	action  enums.AdminAction
	to      enums.OrderStatus
	restore bool
	fields  func(now time.Time) map[string]any
	details map[string]any
}

// ConfirmPayment moves a PENDING_ADMIN order to PAID.
func (s *Service) ConfirmPayment(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*models.Order, error) {
	return s.apply(ctx, orderID, actor, transition{
		action: enums.AdminActionPaymentConfirmed,
		to:     enums.OrderStatusPaid,
		fields: func(now time.Time) map[string]any {
			return map[string]any{"paid_at": now}
		},
	})
}

// RejectOrder moves a PENDING_ADMIN order to REJECTED and returns its stock.
func (s *Service) RejectOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	return s.apply(ctx, orderID, actor, transition{
		action:  enums.AdminActionOrderRejected,
		to:      enums.OrderStatusRejected,
		restore: true,
		fields: func(now time.Time) map[string]any {
			return map[string]any{"rejected_at": now, "rejection_reason": reason}
		},
		details: map[string]any{"reason": reason},
	})
}

// ShipOrder moves a PAID order to SHIPPED with optional tracking data.
func (s *Service) ShipOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor, input ShipInput) (*models.Order, error) {
	tracking := trimmed(input.TrackingNumber)
	carrier := trimmed(input.Carrier)
	details := map[string]any{}
	if tracking != nil {
		details["trackingNumber"] = *tracking
	}
	if carrier != nil {
		details["carrier"] = *carrier
	}
	return s.apply(ctx, orderID, actor, transition{
		action: enums.AdminActionOrderShipped,
		to:     enums.OrderStatusShipped,
		fields: func(now time.Time) map[string]any {
			return map[string]any{"shipped_at": now, "tracking_number": tracking, "carrier": carrier}
		},
		details: details,
	})
}

// DeliverOrder moves a SHIPPED order to DELIVERED.
func (s *Service) DeliverOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor, notes *string) (*models.Order, error) {
	notes = trimmed(notes)
	details := map[string]any{}
	if notes != nil {
		details["notes"] = *notes
	}
	return s.apply(ctx, orderID, actor, transition{
		action: enums.AdminActionOrderDelivered,
		to:     enums.OrderStatusDelivered,
		fields: func(now time.Time) map[string]any {
			return map[string]any{"delivered_at": now, "delivery_notes": notes}
		},
		details: details,
	})
}

// CancelOrder cancels a non-terminal order and returns its stock.
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required")
	}
	return s.apply(ctx, orderID, actor, transition{
		action:  enums.AdminActionOrderCancelled,
		to:      enums.OrderStatusCancelled,
		restore: true,
		fields: func(now time.Time) map[string]any {
			return map[string]any{"cancelled_at": now, "cancellation_reason": reason}
		},
		details: map[string]any{"reason": reason},
	})
}

// AttachPaymentProof records an uploaded proof on a PENDING_ADMIN order.
// The status does not change.
func (s *Service) AttachPaymentProof(ctx context.Context, orderID uuid.UUID, actor auth.Actor, ref string, confidence float64) (*models.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment proof reference is required")
	}
	if confidence < 0 || confidence > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "confidence must be between 0 and 1")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.lockAuthorized(ctx, tx, orderID, actor)
		if err != nil {
			return err
		}
		if current.Status != enums.OrderStatusPendingAdmin {
			return stateConflict(current.Status, "attach a payment proof to")
		}

		affected, err := repo.UpdateIfStatus(ctx, current.ID, current.Status, map[string]any{
			"payment_proof_ref":        ref,
			"payment_proof_confidence": confidence,
			"updated_at":               s.now(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach payment proof")
		}
		if affected == 0 {
			return stateConflict(current.Status, "attach a payment proof to")
		}
		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			Action:  enums.AdminActionPaymentProofAttached,
			Actor:   actor,
			OrderID: current.ID,
			Details: map[string]any{"fileRef": ref, "confidence": confidence},
		}); err != nil {
			return err
		}

		order, err = repo.FindByID(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// apply runs t as one unit of work: lock, authorize, check the source status,
// restore stock, update, audit. Notifications follow the commit.
func (s *Service) apply(ctx context.Context, orderID uuid.UUID, actor auth.Actor, t transition) (*models.Order, error) {
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	var (
		order    *models.Order
		customer *models.Customer
		from     enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.lockAuthorized(ctx, tx, orderID, actor)
		if err != nil {
			return err
		}
		from = current.Status
		if !current.Status.CanTransitionTo(t.to) {
			return stateConflict(current.Status, string(t.to))
		}

		if t.restore {
			items, err := repo.ListItems(ctx, current.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
			}
			for _, item := range items {
				if err := s.ledger.Restore(ctx, tx, item.ID); err != nil {
					return err
				}
			}
		}

		now := s.now()
		updates := t.fields(now)
		updates["status"] = t.to
		updates["updated_at"] = now
		affected, err := repo.UpdateIfStatus(ctx, current.ID, current.Status, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			return stateConflict(current.Status, string(t.to))
		}

		details := map[string]any{"from": string(current.Status), "to": string(t.to)}
		for k, v := range t.details {
			details[k] = v
		}
		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			Action:  t.action,
			Actor:   actor,
			OrderID: current.ID,
			Details: details,
		}); err != nil {
			return err
		}

		order, err = repo.FindByID(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		customer, err = s.stores.WithTx(tx).FindCustomer(ctx, order.StoreID, order.CustomerID)
		if err != nil {
			s.logg.Error(ctx, "customer lookup failed; customer will not be notified", err)
			customer = nil
		}
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			s.metrics.IncConflict(string(t.to))
		}
		return nil, err
	}

	s.metrics.IncTransition(string(t.to))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"from": string(from),
		"to":   string(t.to),
	}), "order status changed")
	s.dispatch(ctx, transitionEvents(order, customer)...)
	return order, nil
}

// lockAuthorized loads the order FOR UPDATE and checks actor against its store.
func (s *Service) lockAuthorized(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor auth.Actor) (*models.Order, error) {
	current, err := s.repo.WithTx(tx).FindForUpdate(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found", "lock order")
	}
	store, err := s.stores.WithTx(tx).FindByID(ctx, current.StoreID)
	if err != nil {
		return nil, notFoundOr(err, "store not found", "load store")
	}
	if err := s.authorizer.AuthorizeStore(ctx, tx, actor, store); err != nil {
		return nil, err
	}
	return current, nil
}

func stateConflict(current enums.OrderStatus, target string) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot %s an order in status %s", verbFor(target), current).
		WithDetails(map[string]any{"currentStatus": string(current), "target": target})
}

func verbFor(target string) string {
	switch enums.OrderStatus(target) {
	case enums.OrderStatusPaid:
		return "confirm payment for"
	case enums.OrderStatusRejected:
		return "reject"
	case enums.OrderStatusShipped:
		return "ship"
	case enums.OrderStatusDelivered:
		return "deliver"
	case enums.OrderStatusCancelled:
		return "cancel"
	}
	return target
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
