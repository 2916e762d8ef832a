package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/equitylens/backend/internal/stocks"
	"github.com/equitylens/backend/pkg/logger"
)

// StockHandler serves the market-data and analytics endpoints.
type StockHandler struct {
	stocks *stocks.Service
	logger *logger.Logger
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(svc *stocks.Service, log *logger.Logger) *StockHandler {
	return &StockHandler{stocks: svc, logger: log}
}

func pathSymbol(w http.ResponseWriter, r *http.Request) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return "", false
	}
	return symbol, true
}

// GetQuote returns the live quote.
// GET /api/v1/stocks/{symbol}/quote
func (h *StockHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol, ok := pathSymbol(w, r)
	if !ok {
		return
	}

	quote, meta, err := h.stocks.Quote(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve quote")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data": quote,
		"meta": meta,
	})
}

// GetProfile returns company reference data.
// GET /api/v1/stocks/{symbol}/profile
func (h *StockHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	symbol, ok := pathSymbol(w, r)
	if !ok {
		return
	}

	profile, meta, err := h.stocks.Profile(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data": profile,
		"meta": meta,
	})
}

// GetHistory returns historical price bars.
// GET /api/v1/stocks/{symbol}/history?range=1y&interval=1d
func (h *StockHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol, ok := pathSymbol(w, r)
	if !ok {
		return
	}

	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "1y"
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}

	bars, meta, err := h.stocks.History(r.Context(), symbol, rng, interval)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   symbol,
		"range":    rng,
		"interval": interval,
		"bars":     bars,
		"meta":     meta,
	})
}

// GetFinancials returns the annual statement bundle.
// GET /api/v1/stocks/{symbol}/financials
func (h *StockHandler) GetFinancials(w http.ResponseWriter, r *http.Request) {
	symbol, ok := pathSymbol(w, r)
	if !ok {
		return
	}

	bundle, meta, err := h.stocks.Financials(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve financial statements")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"data": bundle,
		"meta": meta,
	})
}

// GetDashboard returns the aggregated company dashboard.
// GET /api/v1/stocks/{symbol}/dashboard
func (h *StockHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	symbol, ok := pathSymbol(w, r)
	if !ok {
		return
	}

	dashboard, err := h.stocks.Dashboard(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

// GetValuation returns the DCF engine and the peer-relative section.
// GET /api/v1/stocks/{symbol}/valuation
func (h *StockHandler) GetValuation(w http.ResponseWriter, r *http.Request) {
	symbol, ok := pathSymbol(w, r)
	if !ok {
		return
	}

	payload, err := h.stocks.Valuation(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build valuation")
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// GetHeatmap returns the market-cap heatmap.
// GET /api/v1/market/heatmap?limit=60
func (h *StockHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	limit := 60
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	heatmap, err := h.stocks.Heatmap(r.Context(), limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build heatmap")
		return
	}

	respondJSON(w, http.StatusOK, heatmap)
}

// Search returns merged symbol search results.
// GET /api/v1/search?q=apple
func (h *StockHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "q is required")
		return
	}

	results := h.stocks.Search(r.Context(), query)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query": query,
		"items": results,
	})
}
