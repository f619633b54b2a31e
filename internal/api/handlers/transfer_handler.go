package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/paymybuddy/paymybuddy-be/internal/auth"
	"github.com/paymybuddy/paymybuddy-be/internal/services"
)

// TransferHandler handles HTTP requests for deposits, withdrawals and transfers.
type TransferHandler struct {
	service services.TransferServiceProvider
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(service services.TransferServiceProvider) *TransferHandler {
	return &TransferHandler{service: service}
}

// AmountPayload carries a money amount as a string; parsing and the sign
// handling policy live in the service layer.
type AmountPayload struct {
	Amount string `json:"amount" validate:"required"`
}

// TransferPayload defines the structure for transfer requests.
type TransferPayload struct {
	BuddyEmail  string `json:"buddyEmail" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description"`
}

// Deposit handles adding funds to the authenticated user's balance.
func (h *TransferHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var payload AmountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.service.DepositToAccount(claims.UserID, payload.Amount)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to deposit")
		http.Error(w, "Failed to deposit", http.StatusInternalServerError)
		return
	}

	user.PasswordHash = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Withdraw handles removing funds from the authenticated user's balance.
func (h *TransferHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var payload AmountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.service.WithdrawFromAccount(claims.UserID, payload.Amount)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to withdraw")
		http.Error(w, "Failed to withdraw", http.StatusInternalServerError)
		return
	}

	user.PasswordHash = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// Create handles sending money to a connected buddy.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var payload TransferPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.service.Transfer(claims.UserID, payload.BuddyEmail, payload.Amount, payload.Description)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBuddyNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotConnected):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, services.ErrInvalidAmount):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrInsufficientFunds):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to transfer")
			http.Error(w, "Failed to transfer", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tx)
}

// GetAll handles listing the authenticated user's transactions.
func (h *TransferHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}

	txs, err := h.service.GetTransactions(claims.UserID, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to retrieve transactions")
		http.Error(w, "Failed to retrieve transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txs)
}
