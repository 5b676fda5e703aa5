package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vendalivre/frete/internal/product"
	"github.com/vendalivre/frete/internal/quote"
	"github.com/vendalivre/frete/internal/quotestore"
	"github.com/vendalivre/frete/internal/telemetry"
	"github.com/vendalivre/frete/pkg/freight/melhorenvio"
	"go.uber.org/zap"
)

// Shared across the package so promauto registers the collectors once.
var testMetrics = telemetry.NewMetrics()

func newTestServer(t *testing.T, apiClient melhorenvio.APIClient) *Server {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	provider := melhorenvio.NewWithAPIClient(melhorenvio.Config{
		OriginCEP: "90570020",
	}, apiClient, logger, nil)

	pipeline := quote.New(quotestore.NewMemory(), provider, logger, testMetrics)

	return New(Config{Port: 0, CORSOrigins: []string{"*"}}, pipeline, product.NewMemory(), logger, testMetrics)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func simulateBody(service string) map[string]interface{} {
	return map[string]interface{}{
		"to":               map[string]string{"postal_code": "01310-100"},
		"packages":         []map[string]float64{{"weight": 0.3}},
		"selected_service": service,
	}
}

func TestSimulateFreightSuccess(t *testing.T) {
	srv := newTestServer(t, melhorenvio.NewMockAPIClient())
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/freight/simulate", simulateBody("SEDEX"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp simulateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "45.90", resp.Valor)
	assert.Equal(t, 3, resp.Delivery)
}

func TestSimulateFreightSecondCallServedFromCache(t *testing.T) {
	calls := 0
	mock := melhorenvio.NewMockAPIClient()
	inner := melhorenvio.NewMockAPIClient()
	mock.OnCalculateShipment = func(ctx context.Context, req *melhorenvio.CalculateRequest) ([]melhorenvio.QuoteItem, error) {
		calls++
		return inner.CalculateShipment(ctx, req)
	}

	srv := newTestServer(t, mock)
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/freight/simulate", simulateBody("PAC"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/freight/simulate", simulateBody("PAC"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp simulateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "22.10", resp.Valor)
	assert.Equal(t, 7, resp.Delivery)
	assert.Equal(t, 1, calls)
}

func TestSimulateFreightValidation(t *testing.T) {
	srv := newTestServer(t, melhorenvio.NewMockAPIClient())
	handler := srv.Handler()

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{
			name: "short postal code",
			body: map[string]interface{}{
				"to":               map[string]string{"postal_code": "1234"},
				"packages":         []map[string]float64{{"weight": 0.3}},
				"selected_service": "SEDEX",
			},
		},
		{
			name: "unknown service",
			body: simulateBody("MOTOBOY"),
		},
		{
			name: "missing packages",
			body: map[string]interface{}{
				"to":               map[string]string{"postal_code": "01310-100"},
				"selected_service": "SEDEX",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodPost, "/api/freight/simulate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestSimulateFreightInvalidJSON(t *testing.T) {
	srv := newTestServer(t, melhorenvio.NewMockAPIClient())

	req := httptest.NewRequest(http.MethodPost, "/api/freight/simulate", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulateFreightServiceNotOffered(t *testing.T) {
	mock := melhorenvio.NewMockAPIClient()
	mock.OnCalculateShipment = func(ctx context.Context, req *melhorenvio.CalculateRequest) ([]melhorenvio.QuoteItem, error) {
		return []melhorenvio.QuoteItem{
			{ID: 1, Name: "PAC", Price: "22,10"},
		}, nil
	}

	srv := newTestServer(t, mock)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/freight/simulate", simulateBody("SEDEX"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimulateFreightCarrierDown(t *testing.T) {
	mock := melhorenvio.NewMockAPIClient()
	mock.SimulateErrors = true

	srv := newTestServer(t, mock)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/freight/simulate", simulateBody("SEDEX"))

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp.Message, "Simulated API error")
}

func TestProductCRUD(t *testing.T) {
	srv := newTestServer(t, melhorenvio.NewMockAPIClient())
	handler := srv.Handler()

	create := map[string]interface{}{
		"name":  "Camiseta básica",
		"price": "49.90",
		"size":  []string{"P", "M", "G"},
		"image": "https://cdn.example.com/camiseta.png",
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/products/", create)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created product.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Camiseta básica", created.Name)
	assert.Equal(t, "49.9", created.Price.String())

	rec = doJSON(t, handler, http.MethodGet, "/api/products/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []product.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	itemPath := fmt.Sprintf("/api/products/%s", created.ID)
	rec = doJSON(t, handler, http.MethodGet, itemPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	update := map[string]interface{}{
		"name":  "Camiseta premium",
		"price": "59.90",
		"size":  []string{"M"},
		"image": "https://cdn.example.com/camiseta.png",
	}
	rec = doJSON(t, handler, http.MethodPut, itemPath, update)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated product.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Camiseta premium", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	rec = doJSON(t, handler, http.MethodDelete, itemPath, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, itemPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductValidationErrors(t *testing.T) {
	srv := newTestServer(t, melhorenvio.NewMockAPIClient())

	create := map[string]interface{}{
		"name":  "",
		"price": "10.00",
		"size":  []string{"XXL"},
		"image": "",
	}
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/products/", create)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "name")
	assert.Contains(t, resp.Errors, "size")
	assert.Contains(t, resp.Errors, "image")
}

func TestProductInvalidID(t *testing.T) {
	srv := newTestServer(t, melhorenvio.NewMockAPIClient())
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/products/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperationalRoutes(t *testing.T) {
	srv := newTestServer(t, melhorenvio.NewMockAPIClient())
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = doJSON(t, handler, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
