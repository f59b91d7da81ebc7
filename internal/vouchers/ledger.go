package vouchers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
)

// Ledger validates and consumes discount vouchers. Validation never
// mutates; consumption is a conditional update run inside the
// order-creation transaction so the quota can never be oversold.
type Ledger struct {
	db *gorm.DB
}

// NewLedger builds a voucher ledger bound to the provided DB.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Validate checks a code against existence, the active flag, the time
// window, the remaining quota and the minimum spend, in that order. It
// returns the voucher for discount computation without mutating state.
func (l *Ledger) Validate(ctx context.Context, code string, subtotalCents int, now time.Time) (*models.Voucher, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher code is required")
	}

	var voucher models.Voucher
	err := l.db.WithContext(ctx).
		Where("code = ?", code).
		First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidVoucher, "voucher code not found").
				WithDetails(map[string]any{"code": code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}

	if !voucher.Active {
		return nil, pkgerrors.New(pkgerrors.CodeVoucherInactive, "voucher is not active").
			WithDetails(map[string]any{"code": code})
	}
	if now.Before(voucher.StartAt) || now.After(voucher.EndAt) {
		return nil, pkgerrors.New(pkgerrors.CodeVoucherExpired, "voucher outside its active window").
			WithDetails(map[string]any{"code": code})
	}
	if voucher.Used >= voucher.Quota {
		return nil, pkgerrors.New(pkgerrors.CodeVoucherQuotaExceeded, "voucher quota reached").
			WithDetails(map[string]any{"code": code})
	}
	if subtotalCents < voucher.MinSpendCents {
		return nil, pkgerrors.New(pkgerrors.CodeVoucherBelowMinSpend, "subtotal below voucher minimum spend").
			WithDetails(map[string]any{
				"code":            code,
				"min_spend_cents": voucher.MinSpendCents,
				"subtotal_cents":  subtotalCents,
			})
	}

	return &voucher, nil
}

// Consume increments the usage counter, guarded by the quota so two
// orders racing for the last slot cannot both win. Must run inside the
// order-creation transaction.
func (l *Ledger) Consume(ctx context.Context, tx *gorm.DB, voucherID uuid.UUID) error {
	conn := l.db
	if tx != nil {
		conn = tx
	}

	res := conn.WithContext(ctx).Exec(`
		UPDATE vouchers
		SET used = used + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND used < quota
	`, voucherID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "consume voucher")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeVoucherQuotaExceeded, "voucher quota reached").
			WithDetails(map[string]any{"voucher_id": voucherID.String()})
	}
	return nil
}
