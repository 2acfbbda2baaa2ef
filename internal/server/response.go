package server

import (
	"encoding/json"
	"errors"
	logger "log/slog"
	"net/http"

	"github.com/vietddude/chargedesk/internal/core/domain"
)

// envelope is the body shape of every API response.
type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Skipped []string `json:"skipped,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// headers are already out; the client most likely went away
		logger.Warn("Failed to write response", "status", status, "error", err)
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotConnected),
		errors.Is(err, domain.ErrProviderMissing),
		errors.Is(err, domain.ErrUserRejected),
		errors.Is(err, domain.ErrWrongNetwork):
		return http.StatusConflict
	case errors.Is(err, domain.ErrChainCall):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeDomainError answers with err's status. Server-side failures carry the
// fallback message instead of internal detail.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, err.Error())
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}
