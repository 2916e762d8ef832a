package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/equitylens/backend/internal/portfolio"
	"github.com/equitylens/backend/pkg/logger"
)

// PortfolioHandler serves the portfolio CRUD and insight endpoints. Every
// route is scoped to the authenticated user.
type PortfolioHandler struct {
	portfolios *portfolio.Service
	logger     *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(svc *portfolio.Service, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{portfolios: svc, logger: log}
}

// List returns the user's portfolios.
// GET /api/v1/portfolios
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.portfolios.Repo().ListPortfolios(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list portfolios")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// CreatePortfolioRequest is the create payload.
type CreatePortfolioRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Create adds a portfolio.
// POST /api/v1/portfolios
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	p, err := h.portfolios.Repo().CreatePortfolio(r.Context(), userID, req.Name, req.Currency)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create portfolio")
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

// Get returns one portfolio with its positions.
// GET /api/v1/portfolios/{id}
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.portfolios.Repo().GetPortfolio(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve portfolio")
		return
	}
	positions, err := h.portfolios.Repo().ListPositions(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve positions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio": p,
		"positions": positions,
	})
}

// UpdatePortfolioRequest is the rename payload.
type UpdatePortfolioRequest struct {
	Name string `json:"name"`
}

// Update renames a portfolio.
// PUT /api/v1/portfolios/{id}
func (h *PortfolioHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.portfolios.Repo().UpdatePortfolio(r.Context(), id, userID, req.Name); err != nil {
		respondServiceError(w, h.logger, err, "Failed to update portfolio")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Delete removes a portfolio.
// DELETE /api/v1/portfolios/{id}
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.portfolios.Repo().DeletePortfolio(r.Context(), id, userID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete portfolio")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListTransactions returns the ledger in FIFO order.
// GET /api/v1/portfolios/{id}/transactions
func (h *PortfolioHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.portfolios.Repo().GetPortfolio(r.Context(), id, userID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve portfolio")
		return
	}

	txs, err := h.portfolios.Repo().ListTransactions(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list transactions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": txs})
}

// RecordTransaction appends one buy or sell and rolls the position forward.
// POST /api/v1/portfolios/{id}/transactions
func (h *PortfolioHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.portfolios.Repo().GetPortfolio(r.Context(), id, userID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve portfolio")
		return
	}

	var in portfolio.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.portfolios.RecordTransaction(r.Context(), id, in)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to record transaction")
		return
	}

	respondJSON(w, http.StatusCreated, tx)
}

// Insights returns the full performance attribution payload.
// GET /api/v1/portfolios/{id}/insights
func (h *PortfolioHandler) Insights(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.portfolios.Repo().GetPortfolio(r.Context(), id, userID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve portfolio")
		return
	}

	insights, err := h.portfolios.Insights(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build insights")
		return
	}

	respondJSON(w, http.StatusOK, insights)
}
