package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/equitylens/backend/internal/alerts"
	"github.com/equitylens/backend/pkg/logger"
)

// AlertHandler serves the price-alert endpoints, scoped to the
// authenticated user.
type AlertHandler struct {
	alerts *alerts.Service
	repo   *alerts.Repository
	logger *logger.Logger
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(svc *alerts.Service, repo *alerts.Repository, log *logger.Logger) *AlertHandler {
	return &AlertHandler{alerts: svc, repo: repo, logger: log}
}

// List returns the user's alerts.
// GET /api/v1/alerts
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.repo.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list alerts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// CreateAlertRequest is the create payload. Above watches for the price
// crossing up through the target, otherwise down.
type CreateAlertRequest struct {
	Symbol      string  `json:"symbol"`
	TargetPrice float64 `json:"target_price"`
	Above       bool    `json:"above"`
}

// Create adds an active alert.
// POST /api/v1/alerts
func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.TargetPrice <= 0 {
		respondError(w, http.StatusBadRequest, "target_price must be positive")
		return
	}

	created, err := h.repo.Create(r.Context(), userID, req.Symbol, req.TargetPrice, req.Above)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create alert")
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// Delete removes an alert.
// DELETE /api/v1/alerts/{id}
func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id, userID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete alert")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Check evaluates the user's active alerts right now.
// POST /api/v1/alerts/check
func (h *AlertHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.alerts.Check(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to check alerts")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
