package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/paymybuddy/paymybuddy-be/internal/auth"
	"github.com/paymybuddy/paymybuddy-be/internal/models"
	"github.com/paymybuddy/paymybuddy-be/internal/services"
)

// ScheduleHandler handles HTTP requests for standing orders.
type ScheduleHandler struct {
	service services.ScheduleServiceProvider
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(service services.ScheduleServiceProvider) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// GetAll handles the request to list the authenticated user's standing orders.
func (h *ScheduleHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	schedules, err := h.service.GetSchedulesForUser(claims.UserID)
	if err != nil {
		http.Error(w, "Failed to retrieve schedules: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(schedules)
}

// Create handles the request to create a new standing order.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var schedule models.TransferSchedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	schedule.ID = uuid.New().String()
	schedule.UserID = claims.UserID

	newSchedule, err := h.service.CreateSchedule(schedule)
	if err != nil {
		http.Error(w, "Failed to create schedule: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(newSchedule)
}

// Update handles the request to update an existing standing order.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	scheduleID := chi.URLParam(r, "scheduleId")
	if !h.ownsSchedule(w, claims.UserID, scheduleID) {
		return
	}

	var schedule models.TransferSchedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updatedSchedule, err := h.service.UpdateSchedule(scheduleID, schedule)
	if err != nil {
		http.Error(w, "Failed to update schedule: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updatedSchedule)
}

// Delete handles the request to delete a standing order.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	scheduleID := chi.URLParam(r, "scheduleId")
	if !h.ownsSchedule(w, claims.UserID, scheduleID) {
		return
	}

	if err := h.service.DeleteSchedule(scheduleID); err != nil {
		http.Error(w, "Failed to delete schedule: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownsSchedule rejects requests that target another user's standing order.
func (h *ScheduleHandler) ownsSchedule(w http.ResponseWriter, userID, scheduleID string) bool {
	schedule, err := h.service.GetScheduleByID(scheduleID)
	if err != nil {
		http.Error(w, "Schedule not found", http.StatusNotFound)
		return false
	}
	if schedule.UserID != userID {
		log.Warn().Str("user_id", userID).Str("schedule_id", scheduleID).Msg("Attempt to access foreign schedule")
		http.Error(w, "Schedule not found", http.StatusNotFound)
		return false
	}
	return true
}
