package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/screener"
	"github.com/equitylens/backend/pkg/logger"
)

// ScreenerHandler serves the stock screener endpoints.
type ScreenerHandler struct {
	screener *screener.Screener
	logger   *logger.Logger
}

// NewScreenerHandler creates a new screener handler.
func NewScreenerHandler(s *screener.Screener, log *logger.Logger) *ScreenerHandler {
	return &ScreenerHandler{screener: s, logger: log}
}

// Run evaluates a screener request. A timed-out batch still returns the
// partial result with its meta flags set.
// POST /api/v1/screener
func (h *ScreenerHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req contracts.ScreenerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.screener.Run(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Screener run failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Presets returns the curated screener configurations.
// GET /api/v1/screener/presets
func (h *ScreenerHandler) Presets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"presets": screener.Presets(),
	})
}
