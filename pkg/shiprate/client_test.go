package shiprate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	entries map[string]string
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	return f.entries[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.entries[key] = value.(string)
	f.sets++
	return nil
}

func TestProvincesCachesResults(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/province", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("key"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rajaongkir": map[string]any{
				"results": []map[string]any{
					{"province_id": "6", "province": "DKI Jakarta"},
					{"province_id": "9", "province": "Jawa Barat"},
				},
			},
		})
	}))
	defer server.Close()

	cache := newFakeCache()
	client, err := NewClient(server.URL, "secret", WithCache(cache, time.Hour))
	require.NoError(t, err)

	first, err := client.Provinces(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "DKI Jakarta", first[0].Name)

	second, err := client.Provinces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, cache.sets)
}

func TestCitiesRequiresProvince(t *testing.T) {
	client, err := NewClient("https://example.test", "secret")
	require.NoError(t, err)

	_, err = client.Cities(context.Background(), "  ")
	assert.Error(t, err)
}

func TestCostsNeverCached(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/cost", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "jne", body["courier"])
		assert.Equal(t, float64(1200), body["weight"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"rajaongkir": map[string]any{
				"results": []map[string]any{
					{
						"costs": []map[string]any{
							{
								"service":     "REG",
								"description": "Layanan Reguler",
								"cost":        []map[string]any{{"value": 18000, "etd": "2-3"}},
							},
							{
								"service": "YES",
								"cost":    []map[string]any{{"value": 34000, "etd": "1"}},
							},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	cache := newFakeCache()
	client, err := NewClient(server.URL, "secret", WithCache(cache, time.Hour))
	require.NoError(t, err)

	req := CostRequest{OriginCityID: "151", DestinationCityID: "501", WeightGram: 1200, Courier: "JNE"}

	options, err := client.Costs(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "REG", options[0].Service)
	assert.Equal(t, int64(18000), options[0].CostCents)
	assert.Equal(t, "2-3", options[0].ETD)

	_, err = client.Costs(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 0, cache.sets)
}

func TestCostsValidatesRequest(t *testing.T) {
	client, err := NewClient("https://example.test", "secret")
	require.NoError(t, err)

	_, err = client.Costs(context.Background(), CostRequest{OriginCityID: "151", DestinationCityID: "501", Courier: "jne"})
	assert.Error(t, err)

	_, err = client.Costs(context.Background(), CostRequest{DestinationCityID: "501", WeightGram: 100, Courier: "jne"})
	assert.Error(t, err)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("https://example.test", "   ")
	assert.Error(t, err)
}
