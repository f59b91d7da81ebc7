package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/annisahuljannah/cadoobag/api/responses"
	"github.com/annisahuljannah/cadoobag/internal/payments"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
	"github.com/annisahuljannah/cadoobag/pkg/paygate"
)

type paymentChannels interface {
	Channels(ctx context.Context) ([]paygate.Channel, error)
	Channel(ctx context.Context, code string) (*paygate.Channel, error)
}

type PaymentsController struct {
	gateway paymentChannels
	logg    *logger.Logger
}

func NewPaymentsController(gateway paymentChannels, logg *logger.Logger) *PaymentsController {
	return &PaymentsController{gateway: gateway, logg: logg}
}

func (c *PaymentsController) Channels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channels, err := c.gateway.Channels(ctx)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, channels)
}

type feeQuoteResponse struct {
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
	FeeCents    int64  `json:"fee_cents"`
	TotalCents  int64  `json:"total_cents"`
}

func (c *PaymentsController) FeeQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	method := query.Get("method")
	amountCents, err := strconv.ParseInt(query.Get("amount_cents"), 10, 64)
	if method == "" || err != nil || amountCents <= 0 {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(
			pkgerrors.CodeValidation, "method and a positive amount_cents are required"))
		return
	}

	channel, err := c.gateway.Channel(ctx, method)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	fee := paygate.Fee(*channel, amountCents)
	responses.WriteSuccess(w, feeQuoteResponse{
		Method:      channel.Code,
		AmountCents: amountCents,
		FeeCents:    fee,
		TotalCents:  amountCents + fee,
	})
}

func (c *PaymentsController) Banks(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, payments.Banks())
}
