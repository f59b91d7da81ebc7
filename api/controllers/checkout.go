package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/annisahuljannah/cadoobag/api/responses"
	"github.com/annisahuljannah/cadoobag/api/validators"
	"github.com/annisahuljannah/cadoobag/internal/checkout"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
	"github.com/annisahuljannah/cadoobag/pkg/paygate"
)

type CheckoutController struct {
	service *checkout.Service
	logg    *logger.Logger
}

func NewCheckoutController(service *checkout.Service, logg *logger.Logger) *CheckoutController {
	return &CheckoutController{service: service, logg: logg}
}

type checkoutItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

type checkoutCustomerRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
}

type checkoutShippingRequest struct {
	Courier     string `json:"courier" validate:"required"`
	Service     string `json:"service" validate:"required"`
	CostCents   int    `json:"cost_cents" validate:"min=0"`
	AddressLine string `json:"address_line" validate:"required"`
	Subdistrict string `json:"subdistrict" validate:"required"`
	City        string `json:"city" validate:"required"`
	Province    string `json:"province" validate:"required"`
	PostalCode  string `json:"postal_code" validate:"required"`
}

type checkoutRequest struct {
	Items         []checkoutItemRequest   `json:"items" validate:"required,min=1,dive"`
	Customer      checkoutCustomerRequest `json:"customer" validate:"required"`
	Shipping      checkoutShippingRequest `json:"shipping" validate:"required"`
	PaymentMethod string                  `json:"payment_method" validate:"required"`
	VoucherCode   string                  `json:"voucher_code"`
}

type checkoutPreviewRequest struct {
	Items             []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingCostCents int                   `json:"shipping_cost_cents" validate:"min=0"`
	PaymentMethod     string                `json:"payment_method" validate:"required"`
	VoucherCode       string                `json:"voucher_code"`
}

type checkoutResponse struct {
	OrderID         uuid.UUID             `json:"order_id"`
	OrderNumber     string                `json:"order_number"`
	Status          string                `json:"status"`
	PaymentStatus   string                `json:"payment_status"`
	PaymentMethod   string                `json:"payment_method"`
	SubtotalCents   int                   `json:"subtotal_cents"`
	ShippingCents   int                   `json:"shipping_cost_cents"`
	DiscountCents   int                   `json:"discount_cents"`
	PaymentFeeCents int                   `json:"payment_fee_cents"`
	TotalCents      int                   `json:"total_cents"`
	ExpiresAt       *time.Time            `json:"expires_at,omitempty"`
	GatewayRef      string                `json:"gateway_ref,omitempty"`
	PayCode         string                `json:"pay_code,omitempty"`
	CheckoutURL     string                `json:"checkout_url,omitempty"`
	Instructions    []paygate.Instruction `json:"instructions,omitempty"`
}

func (c *CheckoutController) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkoutRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	items, err := parseCheckoutItems(req.Items)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	result, err := c.service.Checkout(ctx, checkout.Input{
		Items: items,
		Customer: checkout.CustomerInput{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Shipping: checkout.ShippingInput{
			Courier:     req.Shipping.Courier,
			Service:     req.Shipping.Service,
			CostCents:   req.Shipping.CostCents,
			AddressLine: req.Shipping.AddressLine,
			Subdistrict: req.Shipping.Subdistrict,
			City:        req.Shipping.City,
			Province:    req.Shipping.Province,
			PostalCode:  req.Shipping.PostalCode,
		},
		PaymentMethod: req.PaymentMethod,
		VoucherCode:   req.VoucherCode,
	})
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	order := result.Order
	responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		PaymentMethod:   order.PaymentMethod,
		SubtotalCents:   order.SubtotalCents,
		ShippingCents:   order.ShippingCostCents,
		DiscountCents:   order.DiscountCents,
		PaymentFeeCents: order.PaymentFeeCents,
		TotalCents:      order.TotalCents,
		ExpiresAt:       order.ExpiresAt,
		GatewayRef:      result.GatewayRef,
		PayCode:         result.PayCode,
		CheckoutURL:     result.CheckoutURL,
		Instructions:    result.Instructions,
	})
}

func (c *CheckoutController) Preview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkoutPreviewRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	items, err := parseCheckoutItems(req.Items)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	quote, err := c.service.Preview(ctx, checkout.PreviewInput{
		Items:             items,
		ShippingCostCents: req.ShippingCostCents,
		PaymentMethod:     req.PaymentMethod,
		VoucherCode:       req.VoucherCode,
	})
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, quote)
}

func parseCheckoutItems(items []checkoutItemRequest) ([]checkout.LineInput, error) {
	parsed := make([]checkout.LineInput, 0, len(items))
	for _, item := range items {
		variantID, err := uuid.Parse(item.VariantID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid variant id").
				WithDetails(map[string]string{"variant_id": item.VariantID})
		}
		parsed = append(parsed, checkout.LineInput{VariantID: variantID, Qty: item.Qty})
	}
	return parsed, nil
}
