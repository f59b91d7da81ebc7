package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annisahuljannah/cadoobag/internal/payments"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
)

const validCallbackSignature = "good-signature"

type stubCallbackService struct {
	handleCalls int
	handleErr   error
}

func (s *stubCallbackService) VerifyCallbackSignature(_ []byte, signature string) error {
	if signature == "" {
		return pkgerrors.New(pkgerrors.CodeMissingSignature, "callback signature header missing")
	}
	if signature != validCallbackSignature {
		return pkgerrors.New(pkgerrors.CodeInvalidSignature, "callback signature mismatch")
	}
	return nil
}

func (s *stubCallbackService) HandleGatewayCallback(context.Context, []byte, string) error {
	s.handleCalls++
	return s.handleErr
}

type memoryGuardStore struct {
	keys map[string]bool
}

func newMemoryGuardStore() *memoryGuardStore {
	return &memoryGuardStore{keys: map[string]bool{}}
}

func (m *memoryGuardStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryGuardStore) IdempotencyKey(scope, id string) string {
	return "cdb:idempotency:" + scope + ":" + id
}

func (m *memoryGuardStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func newWebhookFixture(t *testing.T) (*WebhookController, *stubCallbackService, *memoryGuardStore) {
	t.Helper()
	store := newMemoryGuardStore()
	guard, err := payments.NewCallbackGuard(store, time.Hour, "paygate")
	require.NoError(t, err)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	service := &stubCallbackService{}
	return NewWebhookController(service, guard, logg), service, store
}

func postCallback(controller *WebhookController, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Callback-Signature", signature)
	}
	rec := httptest.NewRecorder()
	controller.PaymentCallback(rec, req)
	return rec
}

const callbackBody = `{"merchant_ref":"ORD-20260830-AB12CD","status":"PAID"}`

func TestPaymentCallbackRejectsMissingSignature(t *testing.T) {
	controller, service, store := newWebhookFixture(t)

	rec := postCallback(controller, callbackBody, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, service.handleCalls)
	assert.Empty(t, store.keys)
}

func TestPaymentCallbackForgedSignatureDoesNotTouchGuard(t *testing.T) {
	controller, service, store := newWebhookFixture(t)

	// Repeated forgeries must leave no trace that could shadow a genuine
	// delivery for the same merchant ref and status.
	for i := 0; i < 3; i++ {
		rec := postCallback(controller, callbackBody, "forged")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}
	assert.Zero(t, service.handleCalls)
	assert.Empty(t, store.keys)

	rec := postCallback(controller, callbackBody, validCallbackSignature)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, service.handleCalls)
}

func TestPaymentCallbackSkipsDuplicateDelivery(t *testing.T) {
	controller, service, _ := newWebhookFixture(t)

	first := postCallback(controller, callbackBody, validCallbackSignature)
	assert.Equal(t, http.StatusOK, first.Code)

	second := postCallback(controller, callbackBody, validCallbackSignature)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, service.handleCalls)
}

func TestPaymentCallbackClearsGuardOnProcessingFailure(t *testing.T) {
	controller, service, store := newWebhookFixture(t)
	service.handleErr = errors.New("database down")

	rec := postCallback(controller, callbackBody, validCallbackSignature)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.keys)

	service.handleErr = nil
	rec = postCallback(controller, callbackBody, validCallbackSignature)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, service.handleCalls)
}
