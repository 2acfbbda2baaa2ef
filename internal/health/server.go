package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves the HTTP health endpoints.
type Handler struct {
	monitor *Monitor
}

func NewHandler(monitor *Monitor) *Handler {
	return &Handler{monitor: monitor}
}

// Health answers with the aggregated status; 503 when critical.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.monitor.CheckHealth(r.Context())

	response := map[string]string{"status": string(report.SystemStatus)}
	w.Header().Set("Content-Type", "application/json")

	if report.SystemStatus == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// Detailed answers with the per-component report.
func (h *Handler) Detailed(w http.ResponseWriter, r *http.Request) {
	report := h.monitor.CheckHealth(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
