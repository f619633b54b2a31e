package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/paymybuddy/paymybuddy-be/internal/monitoring"
)

// SystemHandler exposes host health information.
type SystemHandler struct {
	monitor *monitoring.HealthMonitor
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(monitor *monitoring.HealthMonitor) *SystemHandler {
	return &SystemHandler{monitor: monitor}
}

// GetStats returns the latest host CPU/memory snapshot.
func (h *SystemHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.monitor.Latest())
}
