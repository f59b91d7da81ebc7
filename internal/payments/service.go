package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/annisahuljannah/cadoobag/internal/orders"
	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	"github.com/annisahuljannah/cadoobag/pkg/enums"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
	"github.com/annisahuljannah/cadoobag/pkg/metrics"
	"github.com/annisahuljannah/cadoobag/pkg/paygate"
	"github.com/annisahuljannah/cadoobag/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type inventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error
}

// Service reconciles asynchronous payment events back into order state:
// gateway callbacks on one side, manual-transfer proof upload and admin
// verification on the other.
type Service struct {
	orders    orders.Repository
	payments  Repository
	inventory inventoryReleaser
	tx        txRunner
	secret    string
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
}

// NewService builds the reconciliation service. secret is the gateway's
// callback signing key.
func NewService(
	ordersRepo orders.Repository,
	paymentsRepo Repository,
	inventory inventoryReleaser,
	tx txRunner,
	secret string,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (*Service, error) {
	if ordersRepo == nil || paymentsRepo == nil {
		return nil, fmt.Errorf("orders and payments repositories required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("callback signing secret required")
	}
	return &Service{
		orders:    ordersRepo,
		payments:  paymentsRepo,
		inventory: inventory,
		tx:        tx,
		secret:    secret,
		logg:      logg,
		metrics:   checkoutMetrics,
		now:       time.Now,
	}, nil
}

// VerifyCallbackSignature checks the raw-body HMAC without touching the
// payload, so callers can authenticate a delivery before doing anything
// else with it. Pass the exact bytes received on the wire.
func (s *Service) VerifyCallbackSignature(rawBody []byte, signature string) error {
	if strings.TrimSpace(signature) == "" {
		return pkgerrors.New(pkgerrors.CodeMissingSignature, "callback signature header missing")
	}
	if !paygate.VerifyCallbackSignature(s.secret, rawBody, signature) {
		return pkgerrors.New(pkgerrors.CodeInvalidSignature, "callback signature mismatch")
	}
	return nil
}

// HandleGatewayCallback verifies and applies one gateway callback. It
// fails closed on the signature, verified against the exact raw bytes
// before any parsing. An unknown merchant reference is acknowledged and
// logged, never errored, so the gateway stops retrying a callback that
// cannot self-heal.
func (s *Service) HandleGatewayCallback(ctx context.Context, rawBody []byte, signature string) error {
	if err := s.VerifyCallbackSignature(rawBody, signature); err != nil {
		s.logWarn(ctx, "callback signature rejected")
		return err
	}

	var payload paygate.CallbackPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode callback payload")
	}
	if payload.MerchantRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "callback missing merchant_ref")
	}

	s.metrics.IncCallback(payload.Status)
	ctx = s.withOrderLog(ctx, payload.MerchantRef)

	order, err := s.orders.FindByNumber(ctx, payload.MerchantRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logWarn(ctx, "callback for unknown merchant reference, acknowledged for investigation")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order for callback")
	}

	tr := orders.ApplyCallback(order, payload.Status)
	if !tr.Recognized {
		s.logWarn(ctx, fmt.Sprintf("unrecognized callback status %q recorded for review", payload.Status))
	}
	if !tr.OrderChanged && !tr.PaymentChanged {
		s.logInfo(ctx, "callback produced no state change")
		return nil
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		updates := map[string]any{}
		if tr.OrderChanged {
			updates["status"] = tr.OrderStatus
		}
		if tr.PaymentChanged {
			updates["payment_status"] = tr.PaymentStatus
		}
		if tr.MarkPaid {
			updates["paid_at"] = s.paidAt(payload.PaidAt)
		}
		if err := s.orders.WithTx(tx).Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply callback transition")
		}

		if tr.PaymentChanged {
			if err := s.mirrorPaymentRow(ctx, tx, order.ID, tr.PaymentStatus, tr.MarkPaid, payload.PaidAt); err != nil {
				return err
			}
		}

		if tr.ReleaseInventory {
			for _, item := range order.Items {
				if item.VariantID == nil || item.Qty <= 0 {
					continue
				}
				if err := s.inventory.Release(ctx, tx, *item.VariantID, item.Qty); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// UploadManualProof attaches transfer proof to a manual payment and moves
// it to PENDING_VERIFICATION, mirroring the status onto the order.
func (s *Service) UploadManualProof(ctx context.Context, paymentID uuid.UUID, proofImageURL string, meta map[string]any) (*models.Payment, error) {
	if strings.TrimSpace(proofImageURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proof image reference is required")
	}

	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !enums.IsManualTransfer(payment.Method) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidPaymentMethod, "payment is not a manual transfer")
	}
	if payment.Status == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already verified as paid")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).Update(ctx, payment.ID, map[string]any{
			"status":          enums.PaymentStatusPendingVerification,
			"proof_image_url": proofImageURL,
			"meta":            types.JSONMap(meta),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment proof")
		}
		if err := s.orders.WithTx(tx).Update(ctx, payment.OrderID, map[string]any{
			"payment_status": enums.PaymentStatusPendingVerification,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror payment status onto order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadPayment(ctx, paymentID)
}

// VerifyManualPayment confirms a pending manual transfer: the payment goes
// PAID with an audit stamp, the order goes PAID/PROCESSING.
func (s *Service) VerifyManualPayment(ctx context.Context, paymentID uuid.UUID, adminID string) (*models.Payment, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verifier identity is required")
	}

	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusPendingVerification {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not awaiting verification").
			WithDetails(map[string]any{"status": payment.Status.String()})
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).Update(ctx, payment.ID, map[string]any{
			"status":      enums.PaymentStatusPaid,
			"paid_at":     now,
			"verified_at": now,
			"verified_by": adminID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment paid")
		}

		orderUpdates := map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"paid_at":        now,
		}
		if payment.Order == nil || !payment.Order.Status.IsTerminal() {
			orderUpdates["status"] = enums.OrderStatusProcessing
		}
		if err := s.orders.WithTx(tx).Update(ctx, payment.OrderID, orderUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logInfo(ctx, "manual payment verified")
	return s.loadPayment(ctx, paymentID)
}

// RejectManualPayment declines a pending manual transfer. Rejection takes
// the same path as a gateway failure: the order is cancelled and every
// reservation is returned.
func (s *Service) RejectManualPayment(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}

	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusPendingVerification {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not awaiting verification").
			WithDetails(map[string]any{"status": payment.Status.String()})
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).Update(ctx, payment.ID, map[string]any{
			"status":         enums.PaymentStatusRejected,
			"rejected_at":    now,
			"rejection_note": reason,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment rejected")
		}
		if err := s.orders.WithTx(tx).Update(ctx, payment.OrderID, map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"status":         enums.OrderStatusCancelled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel rejected order")
		}
		if payment.Order != nil {
			for _, item := range payment.Order.Items {
				if item.VariantID == nil || item.Qty <= 0 {
					continue
				}
				if err := s.inventory.Release(ctx, tx, *item.VariantID, item.Qty); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logInfo(ctx, "manual payment rejected")
	return s.loadPayment(ctx, paymentID)
}

// ListPendingVerification returns manual payments awaiting an admin
// decision, oldest first.
func (s *Service) ListPendingVerification(ctx context.Context) ([]models.Payment, error) {
	list, err := s.payments.ListByStatus(ctx, enums.PaymentStatusPendingVerification)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payments")
	}
	return list, nil
}

func (s *Service) loadPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *Service) mirrorPaymentRow(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.PaymentStatus, markPaid bool, paidAtUnix int64) error {
	payment, err := s.payments.WithTx(tx).FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment row for callback")
	}

	updates := map[string]any{"status": status}
	if markPaid {
		updates["paid_at"] = s.paidAt(paidAtUnix)
	}
	if err := s.payments.WithTx(tx).Update(ctx, payment.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror callback onto payment row")
	}
	return nil
}

func (s *Service) paidAt(unix int64) time.Time {
	if unix > 0 {
		return time.Unix(unix, 0)
	}
	return s.now()
}

func (s *Service) withOrderLog(ctx context.Context, orderNumber string) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithOrderNumber(ctx, orderNumber)
}

func (s *Service) logInfo(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Warn(ctx, msg)
	}
}
