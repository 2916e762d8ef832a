// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/equitylens/backend/internal/alerts"
	"github.com/equitylens/backend/internal/marketdata"
	"github.com/equitylens/backend/internal/portfolio"
	"github.com/equitylens/backend/internal/watchlist"
	"github.com/equitylens/backend/pkg/logger"
)

// userHeader carries the authenticated subject, set by the auth gateway in
// front of this service.
const userHeader = "X-User-ID"

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps domain sentinels onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, portfolio.ErrNotFound),
		errors.Is(err, watchlist.ErrNotFound),
		errors.Is(err, alerts.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, portfolio.ErrInvalidTransaction),
		errors.Is(err, portfolio.ErrInsufficientQuantity):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, marketdata.ErrProvidersUnavailable):
		respondError(w, http.StatusServiceUnavailable, "Market data providers unavailable")
	default:
		log.WithError(err).Error(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// requireUser reads the authenticated subject header. An empty subject means
// the gateway did not authenticate the request.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return userID, true
}

// pathUUID parses one UUID path variable.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
