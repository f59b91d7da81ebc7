package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
)

// Ledger tracks stock and reserved counts per variant. Reservation is a
// single conditional update so two concurrent checkouts can never both
// claim the last unit.
type Ledger struct {
	db *gorm.DB
}

// NewLedger builds an inventory ledger bound to the provided DB.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}

// Available returns stock minus reserved for a variant.
func (l *Ledger) Available(ctx context.Context, variantID uuid.UUID) (int, error) {
	var item models.InventoryItem
	err := l.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return item.Available(), nil
}

// Reserve holds qty units of a variant against an unconfirmed order. The
// reservation succeeds only when stock - reserved still covers qty at
// write time.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}

	res := l.conn(tx).WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET reserved = reserved + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ? AND stock - reserved >= ?
	`, qty, variantID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
	}
	if res.RowsAffected == 0 {
		available, err := l.Available(ctx, variantID)
		if err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for variant").
			WithDetails(map[string]any{
				"variant_id": variantID.String(),
				"requested":  qty,
				"available":  available,
			})
	}
	return nil
}

// Release returns qty reserved units, floored at zero so a double release
// can never drive the count negative.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}

	res := l.conn(tx).WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET reserved = CASE WHEN reserved >= ? THEN reserved - ? ELSE 0 END,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ?
	`, qty, qty, variantID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release inventory")
	}
	return nil
}

// AddStock receives physical stock into the ledger.
func (l *Ledger) AddStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must be positive")
	}

	res := l.conn(tx).WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET stock = stock + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ?
	`, qty, variantID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "add stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	}
	return nil
}
