package shiprate

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
	cacheKeyPrefix             = "cdb:cache:shiprate"
)

var (
	errAPIKeyRequired = errors.New("shipping rate api key is required")
)

// Cache stores serialized reference data. Region lists barely change, so
// they are cached with a long TTL; rate quotes are never cached.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Client talks to the shipping-rate provider (RajaOngkir-compatible API).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      Cache
	cacheTTL   time.Duration
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

// WithCache enables region-list caching with the given TTL.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
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

// NewClient builds the shipping-rate client.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSpace(baseURL),
		apiKey:     strings.TrimSpace(apiKey),
		cacheTTL:   24 * time.Hour,
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

// Province is one top-level region.
type Province struct {
	ID   string `json:"province_id"`
	Name string `json:"province"`
}

// City is one city or regency within a province.
type City struct {
	ID         string `json:"city_id"`
	ProvinceID string `json:"province_id"`
	Name       string `json:"city_name"`
	Type       string `json:"type"`
	PostalCode string `json:"postal_code"`
}

// Subdistrict is one subdistrict within a city.
type Subdistrict struct {
	ID     string `json:"subdistrict_id"`
	CityID string `json:"city_id"`
	Name   string `json:"subdistrict_name"`
}

// CostRequest asks for shipping options between two regions.
type CostRequest struct {
	OriginCityID      string
	DestinationCityID string
	WeightGram        int
	Courier           string
}

// CostOption is one shippable service quote.
type CostOption struct {
	Service     string
	Description string
	CostCents   int64
	ETD         string
}

// Provinces lists all provinces, served from cache when possible.
func (c *Client) Provinces(ctx context.Context) ([]Province, error) {
	var provinces []Province
	err := c.cached(ctx, cacheKeyPrefix+":provinces", &provinces, func() (any, error) {
		var out []Province
		if err := c.get(ctx, "province", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	return provinces, err
}

// Cities lists the cities in a province, served from cache when possible.
func (c *Client) Cities(ctx context.Context, provinceID string) ([]City, error) {
	if strings.TrimSpace(provinceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "province ID is required")
	}
	var cities []City
	key := fmt.Sprintf("%s:cities:%s", cacheKeyPrefix, provinceID)
	err := c.cached(ctx, key, &cities, func() (any, error) {
		var out []City
		if err := c.get(ctx, "city", url.Values{"province": {provinceID}}, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	return cities, err
}

// Subdistricts lists the subdistricts in a city, served from cache when possible.
func (c *Client) Subdistricts(ctx context.Context, cityID string) ([]Subdistrict, error) {
	if strings.TrimSpace(cityID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city ID is required")
	}
	var subdistricts []Subdistrict
	key := fmt.Sprintf("%s:subdistricts:%s", cacheKeyPrefix, cityID)
	err := c.cached(ctx, key, &subdistricts, func() (any, error) {
		var out []Subdistrict
		if err := c.get(ctx, "subdistrict", url.Values{"city": {cityID}}, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	return subdistricts, err
}

// Costs quotes shipping options for the request. Quotes depend on weight
// and change often, so they always hit the provider.
func (c *Client) Costs(ctx context.Context, req CostRequest) ([]CostOption, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping rate client not configured")
	}
	if req.OriginCityID == "" || req.DestinationCityID == "" || req.Courier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "origin, destination and courier are required")
	}
	if req.WeightGram <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}

	payload, err := json.Marshal(map[string]any{
		"origin":      req.OriginCityID,
		"destination": req.DestinationCityID,
		"weight":      req.WeightGram,
		"courier":     strings.ToLower(req.Courier),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal cost request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("cost"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build cost request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute cost request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"cost request failed")
	}

	var apiResp struct {
		Rajaongkir struct {
			Results []struct {
				Costs []struct {
					Service     string `json:"service"`
					Description string `json:"description"`
					Cost        []struct {
						Value int64  `json:"value"`
						ETD   string `json:"etd"`
					} `json:"cost"`
				} `json:"costs"`
			} `json:"results"`
		} `json:"rajaongkir"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cost response")
	}

	options := []CostOption{}
	for _, result := range apiResp.Rajaongkir.Results {
		for _, cost := range result.Costs {
			if len(cost.Cost) == 0 {
				continue
			}
			options = append(options, CostOption{
				Service:     cost.Service,
				Description: cost.Description,
				CostCents:   cost.Cost[0].Value,
				ETD:         cost.Cost[0].ETD,
			})
		}
	}
	return options, nil
}

// cached fills dest from the cache, or runs fetch and stores the result.
// Cache failures never fail the request.
func (c *Client) cached(ctx context.Context, key string, dest any, fetch func() (any, error)) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "shipping rate client not configured")
	}

	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, key); err == nil && raw != "" {
			if err := json.Unmarshal([]byte(raw), dest); err == nil {
				return nil
			}
		}
	}

	fresh, err := fetch()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(fresh)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cached payload")
	}
	if err := json.Unmarshal(encoded, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cached payload")
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, key, string(encoded), c.cacheTTL)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	target := c.buildURL(path)
	if len(query) > 0 {
		target = target + "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build region request")
	}
	httpReq.Header.Set("key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute region request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"region request failed")
	}

	var apiResp struct {
		Rajaongkir struct {
			Results json.RawMessage `json:"results"`
		} `json:"rajaongkir"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode region response")
	}
	if err := json.Unmarshal(apiResp.Rajaongkir.Results, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode region payload")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
