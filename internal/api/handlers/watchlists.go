package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/equitylens/backend/internal/watchlist"
	"github.com/equitylens/backend/pkg/logger"
)

// WatchlistHandler serves the watchlist endpoints, scoped to the
// authenticated user.
type WatchlistHandler struct {
	watchlists *watchlist.Service
	repo       *watchlist.Repository
	logger     *logger.Logger
}

// NewWatchlistHandler creates a new watchlist handler.
func NewWatchlistHandler(svc *watchlist.Service, repo *watchlist.Repository, log *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{watchlists: svc, repo: repo, logger: log}
}

// List returns the user's watchlists with their items.
// GET /api/v1/watchlists
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.repo.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list watchlists")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// CreateWatchlistRequest is the create payload.
type CreateWatchlistRequest struct {
	Name string `json:"name"`
}

// Create adds a watchlist.
// POST /api/v1/watchlists
func (h *WatchlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = "Default"
	}

	created, err := h.repo.Create(r.Context(), userID, req.Name)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create watchlist")
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// Delete removes a watchlist.
// DELETE /api/v1/watchlists/{id}
func (h *WatchlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id, userID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete watchlist")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// AddItemRequest is the add-symbol payload.
type AddItemRequest struct {
	Symbol string `json:"symbol"`
}

// AddItem puts a symbol on the watchlist. Re-adding an existing symbol
// returns the existing item.
// POST /api/v1/watchlists/{id}/items
func (h *WatchlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	if _, err := h.repo.Get(r.Context(), id, userID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve watchlist")
		return
	}

	item, err := h.repo.AddItem(r.Context(), id, req.Symbol)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to add watchlist item")
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// RemoveItem deletes one item off the watchlist.
// DELETE /api/v1/watchlists/{id}/items/{itemID}
func (h *WatchlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	if _, err := h.repo.Get(r.Context(), id, userID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve watchlist")
		return
	}

	if err := h.repo.RemoveItem(r.Context(), id, itemID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to remove watchlist item")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Quotes returns live quotes for every symbol on the watchlist.
// GET /api/v1/watchlists/{id}/quotes
func (h *WatchlistHandler) Quotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	quotes, err := h.watchlists.Quotes(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to retrieve watchlist quotes")
		return
	}

	respondJSON(w, http.StatusOK, quotes)
}
