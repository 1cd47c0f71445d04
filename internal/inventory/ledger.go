package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/chatstore-backend/pkg/db/models"
	"github.com/angelmondragon/chatstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// Item is one order line as seen by the ledger.
type Item struct {
	OrderItemID uuid.UUID
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	Quantity    int
}

// Ledger reserves and restores stock on product and variant rows. It keeps no
// state; every call runs on the caller's transaction so stock and order status
// commit or roll back together.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// EffectiveStock is the stock that limits an order line: the variant's when it
// tracks stock, else the product's. Nil means unlimited.
func EffectiveStock(product *models.Product, variant *models.ProductVariant) *int {
	if variant != nil && variant.Stock != nil {
		return variant.Stock
	}
	if product == nil {
		return nil
	}
	return product.Stock
}

// Available reports the stock that would be consumed by an order line for
// productID/variantID. Nil means untracked.
func (l *Ledger) Available(ctx context.Context, tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID) (*int, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock lookup")
	}
	target, targetID, err := l.resolveTarget(ctx, tx, Item{ProductID: productID, VariantID: variantID})
	if err != nil || target == "" {
		return nil, err
	}
	return readStock(ctx, tx, target, targetID)
}

// Reserve decrements the tracked stock backing item and records a reserve
// movement. Untracked items are left untouched.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, item Item) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}
	if item.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	target, targetID, err := l.resolveTarget(ctx, tx, item)
	if err != nil || target == "" {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE `+tableFor(target)+`
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock IS NOT NULL AND stock >= ?
	`, item.Quantity, targetID, item.Quantity)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		current, err := readStock(ctx, tx, target, targetID)
		if err != nil {
			return err
		}
		if current == nil {
			// stopped tracking between the read and the update
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(map[string]any{
			"product_id": item.ProductID,
			"variant_id": item.VariantID,
			"available":  *current,
			"requested":  item.Quantity,
		})
	}

	movement := models.StockMovement{
		OrderItemID: item.OrderItemID,
		Target:      target,
		TargetID:    targetID,
		Kind:        enums.StockMovementReserve,
		Quantity:    item.Quantity,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock reservation")
	}
	return nil
}

// Restore applies the exact inverse of the reserve movement recorded for
// orderItemID. Items that never reserved stock, or were already restored, are
// a no-op.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, orderItemID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock restoration")
	}

	var reserved models.StockMovement
	err := tx.WithContext(ctx).
		Where("order_item_id = ? AND kind = ?", orderItemID, enums.StockMovementReserve).
		First(&reserved).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock reservation")
	}

	var restored int64
	err = tx.WithContext(ctx).
		Model(&models.StockMovement{}).
		Where("order_item_id = ? AND kind = ?", orderItemID, enums.StockMovementRestore).
		Count(&restored).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check stock restoration")
	}
	if restored > 0 {
		return nil
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE `+tableFor(reserved.Target)+`
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock IS NOT NULL
	`, reserved.Quantity, reserved.TargetID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}

	movement := models.StockMovement{
		OrderItemID: orderItemID,
		Target:      reserved.Target,
		TargetID:    reserved.TargetID,
		Kind:        enums.StockMovementRestore,
		Quantity:    reserved.Quantity,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock restoration")
	}
	return nil
}

// resolveTarget picks the row to decrement; an empty target means untracked.
func (l *Ledger) resolveTarget(ctx context.Context, tx *gorm.DB, item Item) (enums.StockTarget, uuid.UUID, error) {
	if item.VariantID != nil {
		var variant models.ProductVariant
		err := tx.WithContext(ctx).
			Select("id", "stock").
			Where("id = ? AND product_id = ?", *item.VariantID, item.ProductID).
			First(&variant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		if err != nil {
			return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant stock")
		}
		if variant.Stock != nil {
			return enums.StockTargetVariant, variant.ID, nil
		}
	}

	stock, err := readStock(ctx, tx, enums.StockTargetProduct, item.ProductID)
	if err != nil {
		return "", uuid.Nil, err
	}
	if stock == nil {
		return "", uuid.Nil, nil
	}
	return enums.StockTargetProduct, item.ProductID, nil
}

func readStock(ctx context.Context, tx *gorm.DB, target enums.StockTarget, id uuid.UUID) (*int, error) {
	var row struct{ Stock *int }
	err := tx.WithContext(ctx).Table(tableFor(target)).Select("stock").Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, string(target)+" not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stock")
	}
	return row.Stock, nil
}

func tableFor(target enums.StockTarget) string {
	if target == enums.StockTargetVariant {
		return "product_variants"
	}
	return "products"
}
