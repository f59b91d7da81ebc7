package paygate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "api-key", "private-key", "M1234")
	require.NoError(t, err)
	return client, server
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient("https://example.test", "", "private", "M1234")
	assert.Error(t, err)

	_, err = NewClient("https://example.test", "api", "private", "  ")
	assert.Error(t, err)
}

func TestChannelsDecodesEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/merchant/payment-channel", r.URL.Path)
		assert.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"code": "BRIVA", "name": "BRI Virtual Account", "active": true, "fee_flat": 4000, "fee_percent": "0"},
				{"code": "QRIS", "name": "QRIS", "active": true, "fee_flat": 0, "fee_percent": "0.7"},
			},
		})
	}))

	channels, err := client.Channels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "BRIVA", channels[0].Code)
	assert.Equal(t, int64(4000), channels[0].FeeFlat)
	assert.Equal(t, "0.7", channels[1].FeePercent)
}

func TestChannelRejectsUnknownAndDisabled(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"code": "BRIVA", "active": true},
				{"code": "OVO", "active": false},
			},
		})
	}))

	_, err := client.Channel(context.Background(), "DANA")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidPaymentMethod))

	_, err = client.Channel(context.Background(), "OVO")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidPaymentMethod))

	ch, err := client.Channel(context.Background(), "BRIVA")
	require.NoError(t, err)
	assert.Equal(t, "BRIVA", ch.Code)
}

func TestCreateTransactionSignsRequest(t *testing.T) {
	var received map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/create", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"reference":    "T1234",
				"merchant_ref": received["merchant_ref"],
				"status":       "UNPAID",
				"pay_code":     "80777123456",
				"checkout_url": "https://gateway.test/checkout/T1234",
			},
		})
	}))

	tx, err := client.CreateTransaction(context.Background(), CreateTransactionRequest{
		Method:        "BRIVA",
		MerchantRef:   "ORD-20260830-0001",
		AmountCents:   150000,
		CustomerName:  "Sari",
		CustomerEmail: "sari@example.test",
		ExpiredAt:     time.Unix(1767000000, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, "T1234", tx.Reference)
	assert.Equal(t, "80777123456", tx.PayCode)

	wantSig := CreateSignature("private-key", "M1234", "ORD-20260830-0001", 150000)
	assert.Equal(t, wantSig, received["signature"])
	assert.Equal(t, float64(1767000000), received["expired_time"])
}

func TestCreateTransactionMapsGatewayRejection(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "invalid signature",
		})
	}))

	_, err := client.CreateTransaction(context.Background(), CreateTransactionRequest{
		Method:      "BRIVA",
		MerchantRef: "ORD-1",
		AmountCents: 1000,
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePaymentFailed))
}

func TestCreateTransactionMapsHTTPFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))

	_, err := client.CreateTransaction(context.Background(), CreateTransactionRequest{
		Method:      "BRIVA",
		MerchantRef: "ORD-1",
		AmountCents: 1000,
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePaymentFailed))
}

func TestTransactionDetail(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/detail", r.URL.Path)
		assert.Equal(t, "T1234", r.URL.Query().Get("reference"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"reference": "T1234", "status": "PAID"},
		})
	}))

	tx, err := client.TransactionDetail(context.Background(), "T1234")
	require.NoError(t, err)
	assert.Equal(t, "PAID", tx.Status)
}
