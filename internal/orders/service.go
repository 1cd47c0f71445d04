package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/internal/auditlog"
	"github.com/angelmondragon/chatstore-backend/internal/inventory"
	"github.com/angelmondragon/chatstore-backend/internal/notifications"
	product "github.com/angelmondragon/chatstore-backend/internal/products"
	"github.com/angelmondragon/chatstore-backend/internal/stores"
	"github.com/angelmondragon/chatstore-backend/pkg/auth"
	"github.com/angelmondragon/chatstore-backend/pkg/db"
	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/metrics"
	"github.com/angelmondragon/chatstore-backend/pkg/pagination"
	"github.com/angelmondragon/chatstore-backend/pkg/types"
)

// maxCreateAttempts bounds retries after an order number collision.
const maxCreateAttempts = 3

// ServiceParams wires the order lifecycle service.
type ServiceParams struct {
	Logger     *logger.Logger
	Tx         txRunner
	Repo       Repository
	Stores     *stores.Repository
	Products   *product.Repository
	Authorizer StoreAuthorizer
	Ledger     StockLedger
	Numbers    NumberAllocator
	Audit      AuditRecorder
	Notifier   Notifier
	Metrics    *metrics.OrderMetrics
	Now        func() time.Time
}

// Service owns the order lifecycle: creation, transitions and their audit
// trail. Notifications go out after the transaction commits.
type Service struct {
	logg       *logger.Logger
	tx         txRunner
	repo       Repository
	stores     *stores.Repository
	products   *product.Repository
	authorizer StoreAuthorizer
	ledger     StockLedger
	numbers    NumberAllocator
	audit      AuditRecorder
	notifier   Notifier
	metrics    *metrics.OrderMetrics
	now        func() time.Time

	pending sync.WaitGroup
}

// NewService validates params and builds the service.
func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Stores == nil:
		return nil, fmt.Errorf("stores repository required")
	case params.Products == nil:
		return nil, fmt.Errorf("products repository required")
	case params.Authorizer == nil:
		return nil, fmt.Errorf("store authorizer required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("stock ledger required")
	case params.Numbers == nil:
		return nil, fmt.Errorf("order number allocator required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit recorder required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:       params.Logger,
		tx:         params.Tx,
		repo:       params.Repo,
		stores:     params.Stores,
		products:   params.Products,
		authorizer: params.Authorizer,
		ledger:     params.Ledger,
		numbers:    params.Numbers,
		audit:      params.Audit,
		notifier:   params.Notifier,
		metrics:    params.Metrics,
		now:        func() time.Time { return now().UTC() },
	}, nil
}

// CreateOrder turns a cart into a PENDING_ADMIN order, reserving stock in the
// same transaction. A repeated ClientRequestID returns the original order.
func (s *Service) CreateOrder(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithStoreID(ctx, input.StoreID.String())

	var (
		result   *CreateOrderResult
		customer *models.Customer
		err      error
	)
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		result, customer, err = s.createOnce(ctx, actor, input)
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err, db.ConstraintOrderNumber) {
			s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "order number collision; retrying")
			continue
		}
		if input.ClientRequestID != nil && db.IsUniqueViolation(err, db.ConstraintOrderClientReq) {
			result, err = s.replay(ctx, input)
		}
		break
	}
	if err != nil {
		if db.IsUniqueViolation(err, db.ConstraintOrderNumber) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not allocate a unique order number")
		}
		return nil, asDependency(err, "create order")
	}
	if result.Replayed {
		s.logg.Info(s.logg.WithOrderID(ctx, result.Order.ID.String()), "order create replayed")
		return result, nil
	}

	s.metrics.IncTransition(string(enums.OrderStatusPendingAdmin))
	s.logg.Info(s.logg.WithOrderID(ctx, result.Order.ID.String()), "order created")
	s.dispatch(ctx, createdEvents(result.Order, customer)...)
	return result, nil
}

func (s *Service) createOnce(ctx context.Context, actor auth.Actor, input CreateOrderInput) (*CreateOrderResult, *models.Customer, error) {
	var (
		result   *CreateOrderResult
		customer *models.Customer
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		storeRepo := s.stores.WithTx(tx)

		store, err := storeRepo.FindByID(ctx, input.StoreID)
		if err != nil {
			return notFoundOr(err, "store not found", "load store")
		}
		if err := s.authorizer.AuthorizeStore(ctx, tx, actor, store); err != nil {
			return err
		}
		if !store.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "store is not active")
		}

		customer, err = storeRepo.FindCustomer(ctx, store.ID, input.CustomerID)
		if err != nil {
			return notFoundOr(err, "customer not found in store", "load customer")
		}

		if input.ClientRequestID != nil {
			existing, err := repo.FindByClientRequestID(ctx, store.ID, *input.ClientRequestID)
			switch {
			case err == nil:
				if existing.CustomerID != input.CustomerID {
					return idempotencyConflict()
				}
				result = &CreateOrderResult{Order: existing, Replayed: true}
				return nil
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
			}
		}

		lines, err := s.priceItems(ctx, tx, store, input.Items)
		if err != nil {
			return err
		}

		now := s.now()
		number, err := s.numbers.Next(ctx, tx, now)
		if err != nil {
			return err
		}

		info := input.CustomerInfo
		if info.IsZero() {
			info = snapshotCustomer(customer, info)
		}

		order := &models.Order{
			ID:              uuid.New(),
			OrderNumber:     number,
			StoreID:         store.ID,
			CustomerID:      customer.ID,
			Currency:        store.Currency,
			Status:          enums.OrderStatusPendingAdmin,
			CustomerInfo:    info,
			ClientRequestID: input.ClientRequestID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		total := decimal.Zero
		for i := range lines {
			lines[i].OrderID = order.ID
			lines[i].CreatedAt = now
			total = total.Add(lines[i].LineTotal)
		}
		order.TotalAmount = total

		// Raw errors are returned so unique violations can be told apart.
		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		if err := repo.CreateItems(ctx, lines); err != nil {
			return err
		}
		for _, line := range lines {
			if err := s.ledger.Reserve(ctx, tx, inventory.Item{
				OrderItemID: line.ID,
				ProductID:   line.ProductID,
				VariantID:   line.VariantID,
				Quantity:    line.Quantity,
			}); err != nil {
				return err
			}
		}

		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			Action:  enums.AdminActionOrderCreated,
			Actor:   actor,
			OrderID: order.ID,
			Details: map[string]any{
				"orderNumber": order.OrderNumber,
				"totalAmount": order.TotalAmount.StringFixed(2),
				"itemCount":   len(lines),
			},
		}); err != nil {
			return err
		}

		order.Items = lines
		result = &CreateOrderResult{Order: order}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, customer, nil
}

// replay returns the order that won a concurrent insert with the same key.
func (s *Service) replay(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	existing, err := s.repo.FindByClientRequestID(ctx, input.StoreID, *input.ClientRequestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload idempotent order")
	}
	if existing.CustomerID != input.CustomerID {
		return nil, idempotencyConflict()
	}
	return &CreateOrderResult{Order: existing, Replayed: true}, nil
}

// priceItems resolves every line against the catalog and checks stock.
func (s *Service) priceItems(ctx context.Context, tx *gorm.DB, store *models.Store, items []ItemInput) ([]models.OrderItem, error) {
	catalog := s.products.WithTx(tx)
	requested := make(map[string]int, len(items))
	lines := make([]models.OrderItem, 0, len(items))

	for idx, item := range items {
		prod, err := catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, notFoundOr(err, fmt.Sprintf("product %s not found", item.ProductID), "load product")
		}
		if prod.StoreID != store.ID {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", item.ProductID)
		}
		if !prod.IsActive {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %s is not available", prod.Name).
				WithDetails(map[string]any{"item": idx})
		}

		var variant *models.ProductVariant
		if item.VariantID != nil {
			variant, err = catalog.FindVariant(ctx, prod.ID, *item.VariantID)
			if err != nil {
				return nil, notFoundOr(err, fmt.Sprintf("variant %s not found for product", *item.VariantID), "load variant")
			}
		}

		// Lines sharing a stock record are checked against their combined quantity.
		key := stockKey(prod, variant)
		requested[key] += item.Quantity
		if stock := inventory.EffectiveStock(prod, variant); stock != nil && *stock < requested[key] {
			return nil, pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "insufficient stock for %s", prod.Name).
				WithDetails(map[string]any{
					"item":      idx,
					"productId": prod.ID,
					"available": *stock,
					"requested": requested[key],
				})
		}

		price := unitPrice(item, prod, variant)
		line := models.OrderItem{
			ID:          uuid.New(),
			ProductID:   prod.ID,
			VariantID:   item.VariantID,
			ProductName: prod.Name,
			Quantity:    item.Quantity,
			UnitPrice:   price,
			LineTotal:   price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		if variant != nil {
			name := variant.Name
			line.VariantName = &name
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func unitPrice(item ItemInput, prod *models.Product, variant *models.ProductVariant) decimal.Decimal {
	switch {
	case item.PriceOverride != nil:
		return *item.PriceOverride
	case variant != nil && variant.Price != nil:
		return *variant.Price
	default:
		return prod.Price
	}
}

func stockKey(prod *models.Product, variant *models.ProductVariant) string {
	if variant != nil && variant.Stock != nil {
		return "variant:" + variant.ID.String()
	}
	return "product:" + prod.ID.String()
}

func snapshotCustomer(customer *models.Customer, info types.CustomerInfo) types.CustomerInfo {
	info.Name = customer.Name
	if customer.Phone != nil {
		info.Phone = *customer.Phone
	}
	return info
}

func validateCreateInput(input CreateOrderInput) error {
	if input.StoreID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for idx, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id is required").
				WithDetails(map[string]any{"item": idx})
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be greater than zero").
				WithDetails(map[string]any{"item": idx})
		}
		if item.PriceOverride != nil && item.PriceOverride.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price override must not be negative").
				WithDetails(map[string]any{"item": idx})
		}
	}
	if input.ClientRequestID != nil && strings.TrimSpace(*input.ClientRequestID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "client request id must not be blank")
	}
	return nil
}

// GetOrder returns the order with its items when actor may manage its store.
func (s *Service) GetOrder(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order not found", "load order")
	}
	if err := s.AuthorizeStoreID(ctx, actor, order.StoreID); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders pages through a store's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if err := s.AuthorizeStoreID(ctx, actor, params.StoreID); err != nil {
		return nil, err
	}

	rows, next, err := s.repo.List(ctx, listParams{
		StoreID: params.StoreID,
		Status:  params.Status,
		Limit:   params.Limit,
		Cursor:  cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	result := &ListResult{Items: rows}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// History returns the order's audit trail, oldest first.
func (s *Service) History(ctx context.Context, actor auth.Actor, orderID uuid.UUID) ([]auditlog.Entry, error) {
	if _, err := s.GetOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.audit.History(ctx, orderID)
}

// AuthorizeStoreID checks that actor may manage storeID.
func (s *Service) AuthorizeStoreID(ctx context.Context, actor auth.Actor, storeID uuid.UUID) error {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return notFoundOr(err, "store not found", "load store")
	}
	return s.authorizer.AuthorizeStore(ctx, nil, actor, store)
}

// dispatch sends events in the background; callers never wait on delivery.
func (s *Service) dispatch(ctx context.Context, events ...notifications.Event) {
	if len(events) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		for _, event := range events {
			report := s.notifier.Send(ctx, event)
			if failed := report.Failed(); failed > 0 {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"event_id": event.ID.String(),
					"category": string(event.Category),
					"failed":   failed,
				}), "order notification partially failed")
			}
		}
	}()
}

// Drain blocks until every background notification has been handed off.
func (s *Service) Drain() {
	s.pending.Wait()
}

func notFoundOr(err error, notFoundMsg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func asDependency(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func idempotencyConflict() error {
	return pkgerrors.New(pkgerrors.CodeIdempotency, "client request id already used for a different order")
}
