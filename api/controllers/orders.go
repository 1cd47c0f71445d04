package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/chatstore-backend/api/responses"
	"github.com/angelmondragon/chatstore-backend/api/validators"
	"github.com/angelmondragon/chatstore-backend/internal/auditlog"
	"github.com/angelmondragon/chatstore-backend/internal/orders"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/pagination"
	"github.com/angelmondragon/chatstore-backend/pkg/types"
)

const (
	clientRequestIDHeader = "X-Client-Request-Id"
	maxExportRange        = 366 * 24 * time.Hour
)

// OrderService is the order lifecycle surface the console drives.
type OrderService interface {
	CreateOrder(ctx context.Context, actor auth.Actor, input orders.CreateOrderInput) (*orders.CreateOrderResult, error)
	GetOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, actor auth.Actor, params orders.ListParams) (*orders.ListResult, error)
	History(ctx context.Context, actor auth.Actor, orderID uuid.UUID) ([]auditlog.Entry, error)
	ExportOrdersCSV(ctx context.Context, actor auth.Actor, storeID uuid.UUID, from, to time.Time, w io.Writer) (int, error)
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, actor auth.Actor) (*models.Order, error)
	RejectOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor, reason string) (*models.Order, error)
	ShipOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor, input orders.ShipInput) (*models.Order, error)
	DeliverOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor, notes *string) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, actor auth.Actor, reason string) (*models.Order, error)
}

type createOrderRequest struct {
	CustomerID      uuid.UUID          `json:"customerId" validate:"required"`
	Items           []orders.ItemInput `json:"items" validate:"required,min=1,dive"`
	CustomerInfo    types.CustomerInfo `json:"customerInfo"`
	ClientRequestID *string            `json:"clientRequestId,omitempty" validate:"omitempty,max=128"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type deliverRequest struct {
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// CreateOrder places an order for a customer of {storeId}. Replays of the same
// client request id answer 200 with the original order instead of 201.
func CreateOrder(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, storeID, err := actorAndStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.ClientRequestID == nil {
			if header := strings.TrimSpace(r.Header.Get(clientRequestIDHeader)); header != "" {
				req.ClientRequestID = &header
			}
		}

		res, err := svc.CreateOrder(r.Context(), actor, orders.CreateOrderInput{
			StoreID:         storeID,
			CustomerID:      req.CustomerID,
			Items:           req.Items,
			CustomerInfo:    req.CustomerInfo,
			ClientRequestID: req.ClientRequestID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusCreated
		if res.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, map[string]any{"order": res.Order, "replayed": res.Replayed})
	}
}

// ListOrders pages through {storeId}'s orders, optionally filtered by status.
func ListOrders(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, storeID, err := actorAndStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := orders.ListParams{
			StoreID: storeID,
			Limit:   limit,
			Cursor:  strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		res, err := svc.ListOrders(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

// ExportOrders streams orders created in [from, to) as CSV. to is inclusive
// as a calendar date.
func ExportOrders(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, storeID, err := actorAndStore(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to = to.AddDate(0, 0, 1)
		if to.Sub(from) > maxExportRange {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "export range is limited to one year"))
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="orders-%s-%s.csv"`,
			from.Format(validators.DateLayout), to.AddDate(0, 0, -1).Format(validators.DateLayout)))
		rows, err := svc.ExportOrdersCSV(r.Context(), actor, storeID, from, to, w)
		if err != nil {
			// rows are buffered by the csv writer, so early failures still answer as JSON
			w.Header().Del("Content-Disposition")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "rows", rows), "orders exported")
		}
	}
}

func GetOrder(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrderHistory(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.History(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": entries})
	}
}

func ConfirmPayment(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, nil, func(r *http.Request, actor auth.Actor, orderID uuid.UUID, _ any) (*models.Order, error) {
		return svc.ConfirmPayment(r.Context(), orderID, actor)
	})
}

func RejectOrder(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, func() any { return &reasonRequest{} }, func(r *http.Request, actor auth.Actor, orderID uuid.UUID, body any) (*models.Order, error) {
		return svc.RejectOrder(r.Context(), orderID, actor, body.(*reasonRequest).Reason)
	})
}

func ShipOrder(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, func() any { return &orders.ShipInput{} }, func(r *http.Request, actor auth.Actor, orderID uuid.UUID, body any) (*models.Order, error) {
		return svc.ShipOrder(r.Context(), orderID, actor, *body.(*orders.ShipInput))
	})
}

func DeliverOrder(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, func() any { return &deliverRequest{} }, func(r *http.Request, actor auth.Actor, orderID uuid.UUID, body any) (*models.Order, error) {
		return svc.DeliverOrder(r.Context(), orderID, actor, body.(*deliverRequest).Notes)
	})
}

func CancelOrder(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, func() any { return &reasonRequest{} }, func(r *http.Request, actor auth.Actor, orderID uuid.UUID, body any) (*models.Order, error) {
		return svc.CancelOrder(r.Context(), orderID, actor, body.(*reasonRequest).Reason)
	})
}

type transitionFunc func(r *http.Request, actor auth.Actor, orderID uuid.UUID, body any) (*models.Order, error)

// transitionHandler decodes an optional body, runs fn and answers with the
// updated order. A nil newBody means the route takes no body.
func transitionHandler(logg *logger.Logger, newBody func() any, fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, orderID, err := actorAndOrder(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body any
		if newBody != nil {
			body = newBody()
			if err := validators.DecodeJSONBody(r, body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		order, err := fn(r, actor, orderID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func actorAndStore(r *http.Request) (auth.Actor, uuid.UUID, error) {
	actor, err := actorFrom(r)
	if err != nil {
		return auth.Actor{}, uuid.Nil, err
	}
	storeID, err := uuidParam(r, "storeId")
	if err != nil {
		return auth.Actor{}, uuid.Nil, err
	}
	return actor, storeID, nil
}

func actorAndOrder(r *http.Request) (auth.Actor, uuid.UUID, error) {
	actor, err := actorFrom(r)
	if err != nil {
		return auth.Actor{}, uuid.Nil, err
	}
	orderID, err := uuidParam(r, "orderId")
	if err != nil {
		return auth.Actor{}, uuid.Nil, err
	}
	return actor, orderID, nil
}
