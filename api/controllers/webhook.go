package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/annisahuljannah/cadoobag/api/responses"
	"github.com/annisahuljannah/cadoobag/internal/payments"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
)

const (
	callbackSignatureHeader = "X-Callback-Signature"
	maxCallbackBodyBytes    = 1 << 20
)

type callbackHandler interface {
	VerifyCallbackSignature(rawBody []byte, signature string) error
	HandleGatewayCallback(ctx context.Context, rawBody []byte, signature string) error
}

type WebhookController struct {
	service callbackHandler
	guard   *payments.CallbackGuard
	logg    *logger.Logger
}

func NewWebhookController(service callbackHandler, guard *payments.CallbackGuard, logg *logger.Logger) *WebhookController {
	return &WebhookController{service: service, guard: guard, logg: logg}
}

// PaymentCallback ingests gateway status notifications. The raw-body HMAC
// is checked before anything else reads the payload, so unauthenticated
// senders cannot touch the dedup guard or any state. Past the signature,
// every error is logged and acknowledged with 200 so the gateway does not
// retry a delivery we cannot ever process.
func (c *WebhookController) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBodyBytes))
	if err != nil {
		responses.WriteError(ctx, c.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to read callback body"))
		return
	}

	signature := r.Header.Get(callbackSignatureHeader)
	if err := c.service.VerifyCallbackSignature(rawBody, signature); err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}

	merchantRef, status := callbackKey(rawBody)
	if c.guard != nil && merchantRef != "" {
		seen, guardErr := c.guard.CheckAndMark(ctx, merchantRef, status)
		if guardErr != nil {
			// Guard outage must not drop callbacks; the state machine
			// converges on replays anyway.
			c.logg.Warn(c.logg.WithField(ctx, "merchant_ref", merchantRef), "callback guard unavailable")
		} else if seen {
			c.logg.Info(c.logg.WithField(ctx, "merchant_ref", merchantRef), "duplicate callback delivery skipped")
			responses.WriteSuccess(w, map[string]bool{"received": true})
			return
		}
	}

	if err := c.service.HandleGatewayCallback(ctx, rawBody, signature); err != nil {
		if c.guard != nil && merchantRef != "" {
			if delErr := c.guard.Delete(ctx, merchantRef, status); delErr != nil {
				c.logg.Warn(c.logg.WithField(ctx, "merchant_ref", merchantRef), "failed to clear callback guard")
			}
		}
		c.logg.Error(ctx, "callback processing failed", err)
	}
	responses.WriteSuccess(w, map[string]bool{"received": true})
}

// callbackKey pulls just enough out of the authenticated payload to key
// the dedup guard. Full parsing and validation happen in the service.
func callbackKey(rawBody []byte) (merchantRef, status string) {
	var partial struct {
		MerchantRef string `json:"merchant_ref"`
		Status      string `json:"status"`
	}
	if err := json.Unmarshal(rawBody, &partial); err != nil {
		return "", ""
	}
	return partial.MerchantRef, partial.Status
}
