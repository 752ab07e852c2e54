package kofa

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kofa_admin/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.APIBaseURL = server.URL
	cfg.Timeout = 2 * time.Second
	return NewClient(cfg, NewMemoryCache(time.Minute), zap.NewNop()), server
}

func TestCallSendsJSONAndDecodesResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Ankara Print Shirt","price_ngn":15000,"stock_level":8,"description":"","category":"","voice_tags":null}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"prod-1","name":"Ankara Print Shirt","price_ngn":15000,"stock_level":8}`))
	}))

	input := ProductInput{Name: "Ankara Print Shirt", Price: decimal.NewFromInt(15000), StockLevel: 8}
	var product Product
	err := client.Call(context.Background(), http.MethodPost, "/products", input, &product)

	require.NoError(t, err)
	assert.Equal(t, "prod-1", product.ID)
	assert.True(t, product.Price.Equal(decimal.NewFromInt(15000)))
}

func TestCallNon2xxCarriesStatusAndServerMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Product prod-9 not found"}`))
	}))

	err := client.Call(context.Background(), http.MethodGet, "/products/prod-9", nil, &Product{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Product prod-9 not found", apiErr.Message)
}

func TestCallMalformedJSONIsRequestFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":`))
	}))

	var products []Product
	err := client.Call(context.Background(), http.MethodGet, "/products", nil, &products)

	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestCallTransportFailureIsRequestFailure(t *testing.T) {
	client, server := newTestClient(t, http.NotFoundHandler())
	server.Close()

	err := client.Call(context.Background(), http.MethodGet, "/health", nil, nil)

	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestCallAttachesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.APIBaseURL = server.URL + "/"
	cfg.APIToken = "secret"
	client := NewClient(cfg, nil, zap.NewNop())

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
}

func TestServerMessage(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"detail":     {`{"detail":"Quantity must be positive"}`, "Quantity must be positive"},
		"message":    {`{"message":"nope"}`, "nope"},
		"error":      {`{"error":"boom"}`, "boom"},
		"no field":   {`{"status":"error"}`, ""},
		"plain text": {`Internal Server Error`, "Internal Server Error"},
		"empty":      {``, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, serverMessage([]byte(tc.body)))
		})
	}
}

func TestDecimalMarshalsAsNumber(t *testing.T) {
	encoded, err := json.Marshal(ExpenseInput{Amount: decimal.RequireFromString("2500.50"), Description: "fuel", ExpenseType: ExpenseBusiness})
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"amount":2500.5`)
}
