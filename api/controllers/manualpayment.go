package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/annisahuljannah/cadoobag/api/responses"
	"github.com/annisahuljannah/cadoobag/api/validators"
	"github.com/annisahuljannah/cadoobag/internal/payments"
	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
)

type ManualPaymentController struct {
	service *payments.Service
	logg    *logger.Logger
}

func NewManualPaymentController(service *payments.Service, logg *logger.Logger) *ManualPaymentController {
	return &ManualPaymentController{service: service, logg: logg}
}

type paymentResponse struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       uuid.UUID  `json:"order_id"`
	OrderNumber   string     `json:"order_number,omitempty"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	ProofImageURL *string    `json:"proof_image_url,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	VerifiedBy    *string    `json:"verified_by,omitempty"`
	RejectedAt    *time.Time `json:"rejected_at,omitempty"`
	RejectionNote *string    `json:"rejection_note,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toPaymentResponse(payment *models.Payment) paymentResponse {
	resp := paymentResponse{
		ID:            payment.ID,
		OrderID:       payment.OrderID,
		Method:        payment.Method,
		Status:        string(payment.Status),
		ProofImageURL: payment.ProofImageURL,
		PaidAt:        payment.PaidAt,
		VerifiedAt:    payment.VerifiedAt,
		VerifiedBy:    payment.VerifiedBy,
		RejectedAt:    payment.RejectedAt,
		RejectionNote: payment.RejectionNote,
		CreatedAt:     payment.CreatedAt,
	}
	if payment.Order != nil {
		resp.OrderNumber = payment.Order.OrderNumber
	}
	return resp
}

type uploadProofRequest struct {
	ProofImageURL string         `json:"proof_image_url" validate:"required,url"`
	Meta          map[string]any `json:"meta"`
}

func (c *ManualPaymentController) UploadProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	paymentID, err := paymentIDParam(r)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	var req uploadProofRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	payment, err := c.service.UploadManualProof(ctx, paymentID, req.ProofImageURL, req.Meta)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toPaymentResponse(payment))
}

type verifyPaymentRequest struct {
	AdminID string `json:"admin_id" validate:"required"`
}

func (c *ManualPaymentController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	paymentID, err := paymentIDParam(r)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	var req verifyPaymentRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	payment, err := c.service.VerifyManualPayment(ctx, paymentID, req.AdminID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toPaymentResponse(payment))
}

type rejectPaymentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (c *ManualPaymentController) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	paymentID, err := paymentIDParam(r)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	var req rejectPaymentRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	payment, err := c.service.RejectManualPayment(ctx, paymentID, req.Reason)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toPaymentResponse(payment))
}

func (c *ManualPaymentController) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pending, err := c.service.ListPendingVerification(ctx)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	items := make([]paymentResponse, 0, len(pending))
	for i := range pending {
		items = append(items, toPaymentResponse(&pending[i]))
	}
	responses.WriteSuccess(w, items)
}

func paymentIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "paymentID")
	paymentID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment id").
			WithDetails(map[string]string{"payment_id": raw})
	}
	return paymentID, nil
}
