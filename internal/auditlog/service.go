// Package auditlog records who changed an order, how, and why.
package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/types"
)

// RecordInput describes one state-changing action.
type RecordInput struct {
	Action  enums.AdminAction
	Actor   auth.Actor
	OrderID uuid.UUID
	Details map[string]any
}

// Entry is the wire shape of a persisted audit record.
type Entry struct {
	ID        uuid.UUID         `json:"id"`
	Action    enums.AdminAction `json:"action"`
	AdminID   *uuid.UUID        `json:"adminId"`
	OrderID   uuid.UUID         `json:"orderId"`
	Details   map[string]any    `json:"details"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Service appends audit entries inside the caller's unit of work.
type Service struct {
	repo Repository
}

func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit log repository required")
	}
	return &Service{repo: repo}, nil
}

// Record appends one entry on tx. System actors are stored with a nil admin
// id and flagged in the details.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.AdminLog, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for audit entry")
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown audit action")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required for audit entry")
	}

	details := types.JSONMap{}
	for k, v := range input.Details {
		details[k] = v
	}
	if input.Actor.IsSystem() {
		details["actor"] = string(enums.PlatformRoleSystem)
	}

	entry := &models.AdminLog{
		Action:  input.Action,
		AdminID: input.Actor.AuditID(),
		OrderID: input.OrderID,
		Details: details,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit entry")
	}
	return entry, nil
}

// History returns the entries of orderID oldest first.
func (s *Service) History(ctx context.Context, orderID uuid.UUID) ([]Entry, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, Entry{
			ID:        row.ID,
			Action:    row.Action,
			AdminID:   row.AdminID,
			OrderID:   row.OrderID,
			Details:   map[string]any(row.Details),
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}
