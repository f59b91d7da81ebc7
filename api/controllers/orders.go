package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/annisahuljannah/cadoobag/api/responses"
	"github.com/annisahuljannah/cadoobag/internal/orders"
	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
)

type OrdersController struct {
	repo orders.Repository
	logg *logger.Logger
}

func NewOrdersController(repo orders.Repository, logg *logger.Logger) *OrdersController {
	return &OrdersController{repo: repo, logg: logg}
}

type orderItemResponse struct {
	Name           string `json:"name"`
	SKU            string `json:"sku"`
	UnitPriceCents int    `json:"unit_price_cents"`
	Qty            int    `json:"qty"`
	TotalCents     int    `json:"total_cents"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	CustomerName    string              `json:"customer_name"`
	Courier         string              `json:"courier"`
	CourierService  string              `json:"courier_service"`
	City            string              `json:"city"`
	Province        string              `json:"province"`
	SubtotalCents   int                 `json:"subtotal_cents"`
	ShippingCents   int                 `json:"shipping_cost_cents"`
	DiscountCents   int                 `json:"discount_cents"`
	PaymentFeeCents int                 `json:"payment_fee_cents"`
	TotalCents      int                 `json:"total_cents"`
	PaymentMethod   string              `json:"payment_method"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`
	ExpiresAt       *time.Time          `json:"expires_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	Items           []orderItemResponse `json:"items"`
}

func toOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			Name:           item.Name,
			SKU:            item.SKU,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			TotalCents:     item.TotalCents,
		})
	}
	return orderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerName:    order.CustomerName,
		Courier:         order.Courier,
		CourierService:  order.CourierService,
		City:            order.City,
		Province:        order.Province,
		SubtotalCents:   order.SubtotalCents,
		ShippingCents:   order.ShippingCostCents,
		DiscountCents:   order.DiscountCents,
		PaymentFeeCents: order.PaymentFeeCents,
		TotalCents:      order.TotalCents,
		PaymentMethod:   order.PaymentMethod,
		Status:          string(order.Status),
		PaymentStatus:   string(order.PaymentStatus),
		PaidAt:          order.PaidAt,
		ExpiresAt:       order.ExpiresAt,
		CreatedAt:       order.CreatedAt,
		Items:           items,
	}
}

func (c *OrdersController) GetByNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderNumber := chi.URLParam(r, "orderNumber")
	if orderNumber == "" {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order number is required"))
		return
	}

	order, err := c.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toOrderResponse(order))
}
