package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitylens/backend/internal/api/handlers"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json", Env: "development"})
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(Handlers{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestScreenerPresetsEndpoint(t *testing.T) {
	router := NewRouter(Handlers{
		Screener: handlers.NewScreenerHandler(nil, testLogger()),
	}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/screener/presets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Presets map[string]json.RawMessage `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Presets, "safe-compounders")
	assert.Contains(t, body.Presets, "value-hunters")
	assert.Contains(t, body.Presets, "high-growth")
}

func TestPortfolioRoutesRequireUser(t *testing.T) {
	router := NewRouter(Handlers{
		Portfolios: handlers.NewPortfolioHandler(nil, testLogger()),
	}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolios", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnregisteredRouteReturns404(t *testing.T) {
	router := NewRouter(Handlers{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks/AAPL/quote", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
