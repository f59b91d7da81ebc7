package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/annisahuljannah/cadoobag/internal/orders"
	"github.com/annisahuljannah/cadoobag/internal/payments"
	"github.com/annisahuljannah/cadoobag/internal/pricing"
	"github.com/annisahuljannah/cadoobag/internal/products"
	"github.com/annisahuljannah/cadoobag/pkg/config"
	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	"github.com/annisahuljannah/cadoobag/pkg/enums"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
	"github.com/annisahuljannah/cadoobag/pkg/metrics"
	"github.com/annisahuljannah/cadoobag/pkg/paygate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentGateway interface {
	Channel(ctx context.Context, code string) (*paygate.Channel, error)
	CreateTransaction(ctx context.Context, req paygate.CreateTransactionRequest) (*paygate.Transaction, error)
}

type inventoryLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error
}

type voucherLedger interface {
	Validate(ctx context.Context, code string, subtotalCents int, now time.Time) (*models.Voucher, error)
	Consume(ctx context.Context, tx *gorm.DB, voucherID uuid.UUID) error
}

// Service is the checkout orchestrator: it prices the cart, reserves
// inventory, creates the order in one transaction, then opens the gateway
// transaction and unwinds everything when that call fails.
type Service struct {
	products  products.Repository
	orders    orders.Repository
	payments  payments.Repository
	inventory inventoryLedger
	vouchers  voucherLedger
	gateway   paymentGateway
	tx        txRunner
	cfg       config.CheckoutConfig
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
}

// NewService builds the checkout orchestrator with its collaborators.
func NewService(
	productsRepo products.Repository,
	ordersRepo orders.Repository,
	paymentsRepo payments.Repository,
	inventory inventoryLedger,
	vouchers voucherLedger,
	gateway paymentGateway,
	tx txRunner,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (*Service, error) {
	if productsRepo == nil || ordersRepo == nil || paymentsRepo == nil {
		return nil, fmt.Errorf("checkout repositories required")
	}
	if inventory == nil || vouchers == nil {
		return nil, fmt.Errorf("inventory and voucher ledgers required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{
		products:  productsRepo,
		orders:    ordersRepo,
		payments:  paymentsRepo,
		inventory: inventory,
		vouchers:  vouchers,
		gateway:   gateway,
		tx:        tx,
		cfg:       cfg,
		logg:      logg,
		metrics:   checkoutMetrics,
		now:       time.Now,
	}, nil
}

// resolvedLine pairs a requested line with its variant snapshot data.
type resolvedLine struct {
	variant models.Variant
	qty     int
}

// Checkout places an order. See the step comments for the failure
// semantics at each stage.
func (s *Service) Checkout(ctx context.Context, input Input) (*Result, error) {
	started := s.now()

	if err := validateInput(input); err != nil {
		return nil, err
	}

	lines, err := s.resolveLines(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	priceLines := toPriceLines(lines)
	subtotal := pricing.Subtotal(priceLines)
	weight := pricing.TotalWeight(priceLines)

	var voucher *models.Voucher
	discount := 0
	if input.VoucherCode != "" {
		voucher, err = s.vouchers.Validate(ctx, input.VoucherCode, subtotal, s.now())
		if err != nil {
			return nil, err
		}
		discount = pricing.Discount(subtotal, voucher)
	}

	total := pricing.Total(subtotal, input.Shipping.CostCents, discount)

	manual := enums.IsManualTransfer(input.PaymentMethod)
	fee := 0
	var channel *paygate.Channel
	if !manual {
		channel, err = s.gateway.Channel(ctx, input.PaymentMethod)
		if err != nil {
			return nil, err
		}
		fee = int(paygate.Fee(*channel, int64(total)))
	}
	grandTotal := total + fee

	expiresAt := s.now().Add(s.cfg.PaymentExpiry)
	order := &models.Order{
		OrderNumber:       orders.NewOrderNumber(s.now()),
		CustomerName:      input.Customer.Name,
		CustomerEmail:     input.Customer.Email,
		CustomerPhone:     input.Customer.Phone,
		Courier:           input.Shipping.Courier,
		CourierService:    input.Shipping.Service,
		AddressLine:       input.Shipping.AddressLine,
		Subdistrict:       input.Shipping.Subdistrict,
		City:              input.Shipping.City,
		Province:          input.Shipping.Province,
		PostalCode:        input.Shipping.PostalCode,
		SubtotalCents:     subtotal,
		ShippingCostCents: input.Shipping.CostCents,
		DiscountCents:     discount,
		PaymentFeeCents:   fee,
		TotalCents:        grandTotal,
		TotalWeightGram:   weight,
		PaymentMethod:     input.PaymentMethod,
		Status:            enums.OrderStatusPending,
		PaymentStatus:     enums.PaymentStatusUnpaid,
		ExpiresAt:         &expiresAt,
		Items:             buildItemSnapshots(lines),
	}
	if voucher != nil {
		voucherID := voucher.ID
		order.VoucherID = &voucherID
	}

	var payment *models.Payment

	// One transaction for the order row, the line snapshots, every
	// reservation and the voucher consumption. Any failure leaves no
	// partial row.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, line := range lines {
			if err := s.inventory.Reserve(ctx, tx, line.variant.ID, line.qty); err != nil {
				return err
			}
		}
		if voucher != nil {
			if err := s.vouchers.Consume(ctx, tx, voucher.ID); err != nil {
				return err
			}
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if manual {
			payment = &models.Payment{
				OrderID: order.ID,
				Method:  enums.PaymentMethodManualTransfer,
				Status:  enums.PaymentStatusUnpaid,
			}
			if err := s.payments.WithTx(tx).Create(ctx, payment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment record")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCreated(input.PaymentMethod)
	ctx = s.withOrderLog(ctx, order)

	if manual {
		s.logInfo(ctx, "manual transfer order placed")
		s.metrics.ObserveCheckout(s.now().Sub(started))
		return &Result{Order: order, Payment: payment}, nil
	}

	// The gateway call lives outside the transaction; a timeout here is
	// the same as an explicit failure.
	gatewayCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	tx, err := s.gateway.CreateTransaction(gatewayCtx, paygate.CreateTransactionRequest{
		Method:        input.PaymentMethod,
		MerchantRef:   order.OrderNumber,
		AmountCents:   int64(grandTotal),
		CustomerName:  input.Customer.Name,
		CustomerEmail: input.Customer.Email,
		CustomerPhone: input.Customer.Phone,
		Items:         buildGatewayItems(order.Items),
		ExpiredAt:     expiresAt,
	})
	if err != nil {
		s.logError(ctx, err, "gateway transaction creation failed, compensating")
		s.compensate(ctx, order, lines)
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, "create gateway transaction")
	}

	if err := s.orders.Update(ctx, order.ID, map[string]any{"gateway_ref": tx.Reference}); err != nil {
		// The gateway transaction exists; losing the reference is bad
		// but recoverable via the merchant ref, so log and continue.
		s.logError(ctx, err, "persist gateway reference failed")
	}
	ref := tx.Reference
	order.GatewayRef = &ref

	s.logInfo(ctx, "order placed with gateway transaction")
	s.metrics.ObserveCheckout(s.now().Sub(started))

	return &Result{
		Order:        order,
		GatewayRef:   tx.Reference,
		PayCode:      tx.PayCode,
		CheckoutURL:  tx.CheckoutURL,
		Instructions: tx.Instructions,
	}, nil
}

// Preview prices a cart without reserving anything.
func (s *Service) Preview(ctx context.Context, input PreviewInput) (*Quote, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
	}

	lines, err := s.resolveLines(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	priceLines := toPriceLines(lines)
	subtotal := pricing.Subtotal(priceLines)
	weight := pricing.TotalWeight(priceLines)

	discount := 0
	if input.VoucherCode != "" {
		voucher, err := s.vouchers.Validate(ctx, input.VoucherCode, subtotal, s.now())
		if err != nil {
			return nil, err
		}
		discount = pricing.Discount(subtotal, voucher)
	}

	total := pricing.Total(subtotal, input.ShippingCostCents, discount)

	fee := 0
	if input.PaymentMethod != "" && !enums.IsManualTransfer(input.PaymentMethod) {
		channel, err := s.gateway.Channel(ctx, input.PaymentMethod)
		if err != nil {
			return nil, err
		}
		fee = int(paygate.Fee(*channel, int64(total)))
	}

	return &Quote{
		SubtotalCents:     subtotal,
		ShippingCostCents: input.ShippingCostCents,
		DiscountCents:     discount,
		PaymentFeeCents:   fee,
		TotalCents:        total + fee,
		TotalWeightGram:   weight,
	}, nil
}

func (s *Service) resolveLines(ctx context.Context, items []LineInput) ([]resolvedLine, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VariantID)
	}

	variants, err := s.products.FindVariantsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
	}

	byID := make(map[uuid.UUID]models.Variant, len(variants))
	for _, variant := range variants {
		byID[variant.ID] = variant
	}

	lines := make([]resolvedLine, 0, len(items))
	for _, item := range items {
		variant, ok := byID[item.VariantID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
				WithDetails(map[string]any{"variant_id": item.VariantID.String()})
		}
		if variant.Product == nil || !variant.Product.Active {
			return nil, pkgerrors.New(pkgerrors.CodeProductInactive, "product is not available").
				WithDetails(map[string]any{"variant_id": item.VariantID.String(), "sku": variant.SKU})
		}
		lines = append(lines, resolvedLine{variant: variant, qty: item.Qty})
	}
	return lines, nil
}

// compensate cancels the order and returns every reservation after a
// gateway failure. A stuck reserved count shrinks sellable inventory, so
// failures here are retried and loudly logged, never swallowed.
func (s *Service) compensate(ctx context.Context, order *models.Order, lines []resolvedLine) {
	// The request context may already be dead (gateway timeout); the
	// rollback must still run.
	ctx = context.WithoutCancel(ctx)
	s.metrics.IncCompensation()

	attempts := s.cfg.CompensationRetries
	if attempts < 1 {
		attempts = 1
	}

	var errs error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.orders.WithTx(tx).Update(ctx, order.ID, map[string]any{
				"status":         enums.OrderStatusCancelled,
				"payment_status": enums.PaymentStatusFailed,
			}); err != nil {
				return err
			}
			for _, line := range lines {
				if err := s.inventory.Release(ctx, tx, line.variant.ID, line.qty); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			order.Status = enums.OrderStatusCancelled
			order.PaymentStatus = enums.PaymentStatusFailed
			return
		}
		errs = multierr.Append(errs, err)
	}

	s.logError(ctx, errs, "checkout compensation failed, reservations may be stuck")
}

func (s *Service) withOrderLog(ctx context.Context, order *models.Order) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithOrderNumber(ctx, order.OrderNumber)
}

func (s *Service) logInfo(ctx context.Context, msg string) {
	if s.logg != nil {
		s.logg.Info(ctx, msg)
	}
}

func (s *Service) logError(ctx context.Context, err error, msg string) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}

func validateInput(input Input) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, item := range input.Items {
		if item.VariantID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "variant id required on every line")
		}
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
	}
	if strings.TrimSpace(input.Customer.Name) == "" || strings.TrimSpace(input.Customer.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name and email are required")
	}
	if strings.TrimSpace(input.PaymentMethod) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	if strings.TrimSpace(input.Shipping.Courier) == "" || strings.TrimSpace(input.Shipping.Service) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "courier and service are required")
	}
	if input.Shipping.CostCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}
	return nil
}

func toPriceLines(lines []resolvedLine) []pricing.LineItem {
	out := make([]pricing.LineItem, 0, len(lines))
	for _, line := range lines {
		weight := 0
		if line.variant.Product != nil {
			weight = line.variant.Product.BaseWeightGram
		}
		out = append(out, pricing.LineItem{
			UnitPriceCents: line.variant.PriceCents,
			Qty:            line.qty,
			WeightGram:     weight,
		})
	}
	return out
}

func buildItemSnapshots(lines []resolvedLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		name := line.variant.SKU
		weight := 0
		if line.variant.Product != nil {
			name = line.variant.Product.Name
			weight = line.variant.Product.BaseWeightGram
		}
		variantID := line.variant.ID
		items = append(items, models.OrderItem{
			VariantID:      &variantID,
			Name:           name,
			SKU:            line.variant.SKU,
			UnitPriceCents: line.variant.PriceCents,
			Qty:            line.qty,
			WeightGram:     weight,
			TotalCents:     line.variant.PriceCents * line.qty,
		})
	}
	return items
}

func buildGatewayItems(items []models.OrderItem) []paygate.OrderItem {
	out := make([]paygate.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, paygate.OrderItem{
			SKU:      item.SKU,
			Name:     item.Name,
			Price:    int64(item.UnitPriceCents),
			Quantity: item.Qty,
		})
	}
	return out
}
