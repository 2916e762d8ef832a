// Package api wires the HTTP surface: router, middleware, and server
// lifecycle.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/equitylens/backend/internal/api/handlers"
	"github.com/equitylens/backend/pkg/logger"
)

// Handlers bundles the endpoint handlers the router mounts. Nil handlers
// leave their routes unregistered, which keeps the read-only API usable
// without a database.
type Handlers struct {
	Stocks     *handlers.StockHandler
	Screener   *handlers.ScreenerHandler
	Portfolios *handlers.PortfolioHandler
	Watchlists *handlers.WatchlistHandler
	Alerts     *handlers.AlertHandler
}

// NewRouter creates and configures the HTTP router.
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api/v1").Subrouter()

	if h.Stocks != nil {
		api.HandleFunc("/stocks/{symbol}/quote", h.Stocks.GetQuote).Methods("GET")
		api.HandleFunc("/stocks/{symbol}/profile", h.Stocks.GetProfile).Methods("GET")
		api.HandleFunc("/stocks/{symbol}/history", h.Stocks.GetHistory).Methods("GET")
		api.HandleFunc("/stocks/{symbol}/financials", h.Stocks.GetFinancials).Methods("GET")
		api.HandleFunc("/stocks/{symbol}/dashboard", h.Stocks.GetDashboard).Methods("GET")
		api.HandleFunc("/stocks/{symbol}/valuation", h.Stocks.GetValuation).Methods("GET")
		api.HandleFunc("/market/heatmap", h.Stocks.GetHeatmap).Methods("GET")
		api.HandleFunc("/search", h.Stocks.Search).Methods("GET")
	}

	if h.Screener != nil {
		api.HandleFunc("/screener", h.Screener.Run).Methods("POST")
		api.HandleFunc("/screener/presets", h.Screener.Presets).Methods("GET")
	}

	if h.Portfolios != nil {
		api.HandleFunc("/portfolios", h.Portfolios.List).Methods("GET")
		api.HandleFunc("/portfolios", h.Portfolios.Create).Methods("POST")
		api.HandleFunc("/portfolios/{id}", h.Portfolios.Get).Methods("GET")
		api.HandleFunc("/portfolios/{id}", h.Portfolios.Update).Methods("PUT")
		api.HandleFunc("/portfolios/{id}", h.Portfolios.Delete).Methods("DELETE")
		api.HandleFunc("/portfolios/{id}/transactions", h.Portfolios.ListTransactions).Methods("GET")
		api.HandleFunc("/portfolios/{id}/transactions", h.Portfolios.RecordTransaction).Methods("POST")
		api.HandleFunc("/portfolios/{id}/insights", h.Portfolios.Insights).Methods("GET")
	}

	if h.Watchlists != nil {
		api.HandleFunc("/watchlists", h.Watchlists.List).Methods("GET")
		api.HandleFunc("/watchlists", h.Watchlists.Create).Methods("POST")
		api.HandleFunc("/watchlists/{id}", h.Watchlists.Delete).Methods("DELETE")
		api.HandleFunc("/watchlists/{id}/items", h.Watchlists.AddItem).Methods("POST")
		api.HandleFunc("/watchlists/{id}/items/{itemID}", h.Watchlists.RemoveItem).Methods("DELETE")
		api.HandleFunc("/watchlists/{id}/quotes", h.Watchlists.Quotes).Methods("GET")
	}

	if h.Alerts != nil {
		api.HandleFunc("/alerts", h.Alerts.List).Methods("GET")
		api.HandleFunc("/alerts", h.Alerts.Create).Methods("POST")
		api.HandleFunc("/alerts/{id}", h.Alerts.Delete).Methods("DELETE")
		api.HandleFunc("/alerts/check", h.Alerts.Check).Methods("POST")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "equitylens-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
