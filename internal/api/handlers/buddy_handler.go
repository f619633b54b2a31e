package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/paymybuddy/paymybuddy-be/internal/auth"
	"github.com/paymybuddy/paymybuddy-be/internal/services"
)

// BuddyHandler handles HTTP requests for buddy connections.
type BuddyHandler struct {
	service services.BuddyServiceProvider
}

// NewBuddyHandler creates a new BuddyHandler.
func NewBuddyHandler(service services.BuddyServiceProvider) *BuddyHandler {
	return &BuddyHandler{service: service}
}

// BuddyPayload defines the structure for add-buddy requests.
type BuddyPayload struct {
	Email string `json:"email" validate:"required"`
}

// GetAll handles listing the authenticated user's buddies.
func (h *BuddyHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	buddies, err := h.service.GetBuddies(claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to list buddies")
		http.Error(w, "Failed to list buddies", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(buddies)
}

// Add handles connecting the authenticated user to another account by email.
func (h *BuddyHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var payload BuddyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	buddy, err := h.service.AddBuddy(claims.UserID, payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBuddyNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrSelfBuddy), errors.Is(err, services.ErrAlreadyBuddies):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to add buddy")
			http.Error(w, "Failed to add buddy", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(buddy)
}

// Remove handles disconnecting from a buddy by email.
func (h *BuddyHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	email := chi.URLParam(r, "email")
	if err := h.service.RemoveBuddy(claims.UserID, email); err != nil {
		switch {
		case errors.Is(err, services.ErrBuddyNotFound), errors.Is(err, services.ErrNotConnected):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to remove buddy")
			http.Error(w, "Failed to remove buddy", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
