package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
)

const (
	requestBodyReadLimit int64 = 1024
)

var (
	errCredentialsRequired = errors.New("paygate api key, private key and merchant code are required")
)

// Client talks to the hosted payment gateway (Tripay-compatible API).
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	privateKey   string
	merchantCode string
	returnURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithReturnURL sets the URL customers are sent back to after paying.
func WithReturnURL(returnURL string) Option {
	return func(c *Client) {
		c.returnURL = strings.TrimSpace(returnURL)
	}
}

// WithTimeout overrides the default HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the gateway client from credentials.
func NewClient(baseURL, apiKey, privateKey, merchantCode string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(privateKey) == "" || strings.TrimSpace(merchantCode) == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		baseURL:      strings.TrimSpace(baseURL),
		apiKey:       strings.TrimSpace(apiKey),
		privateKey:   strings.TrimSpace(privateKey),
		merchantCode: strings.TrimSpace(merchantCode),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return client, nil
}

// PrivateKey exposes the callback signing secret for verification outside
// the client.
func (c *Client) PrivateKey() string {
	if c == nil {
		return ""
	}
	return c.privateKey
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Channels fetches the merchant's active payment channels.
func (c *Client) Channels(ctx context.Context) ([]Channel, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway client not configured")
	}

	env, err := c.get(ctx, "merchant/payment-channel", nil)
	if err != nil {
		return nil, err
	}

	var channels []Channel
	if err := json.Unmarshal(env.Data, &channels); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment channels")
	}
	return channels, nil
}

// Channel fetches one channel by code; returns INVALID_PAYMENT_METHOD when
// the code is unknown or the channel is disabled.
func (c *Client) Channel(ctx context.Context, code string) (*Channel, error) {
	channels, err := c.Channels(ctx)
	if err != nil {
		return nil, err
	}
	for i := range channels {
		if channels[i].Code == code {
			if !channels[i].Active {
				return nil, pkgerrors.New(pkgerrors.CodeInvalidPaymentMethod, "payment channel is disabled").
					WithDetails(map[string]any{"method": code})
			}
			return &channels[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInvalidPaymentMethod, "unknown payment channel").
		WithDetails(map[string]any{"method": code})
}

// CreateTransaction opens a transaction at the gateway. The request is
// signed with the merchant private key.
func (c *Client) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*Transaction, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway client not configured")
	}
	if req.MerchantRef == "" || req.Method == "" || req.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant ref, method and a positive amount are required")
	}

	body := map[string]any{
		"method":         req.Method,
		"merchant_ref":   req.MerchantRef,
		"amount":         req.AmountCents,
		"customer_name":  req.CustomerName,
		"customer_email": req.CustomerEmail,
		"customer_phone": req.CustomerPhone,
		"order_items":    req.Items,
		"signature":      CreateSignature(c.privateKey, c.merchantCode, req.MerchantRef, req.AmountCents),
	}
	if c.returnURL != "" {
		body["return_url"] = c.returnURL
	}
	if !req.ExpiredAt.IsZero() {
		body["expired_time"] = req.ExpiredAt.Unix()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal transaction request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("transaction/create"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build transaction request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, "execute transaction request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"transaction create failed")
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, "decode transaction response")
	}
	if !env.Success {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, fmt.Errorf("gateway: %s", env.Message), "transaction rejected")
	}

	var tx Transaction
	if err := json.Unmarshal(env.Data, &tx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, "decode transaction payload")
	}
	return &tx, nil
}

// TransactionDetail looks up a transaction by its gateway reference.
func (c *Client) TransactionDetail(ctx context.Context, reference string) (*Transaction, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway client not configured")
	}
	if strings.TrimSpace(reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	env, err := c.get(ctx, "transaction/detail", url.Values{"reference": {reference}})
	if err != nil {
		return nil, err
	}

	var tx Transaction
	if err := json.Unmarshal(env.Data, &tx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode transaction detail")
	}
	return &tx, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*envelope, error) {
	target := c.buildURL(path)
	if len(query) > 0 {
		target = target + "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build gateway request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute gateway request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"gateway request failed")
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	if !env.Success {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("gateway: %s", env.Message), "gateway request rejected")
	}
	return &env, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
