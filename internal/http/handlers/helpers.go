package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/serenityspa/bookingflow/internal/bookingapi"
	"github.com/serenityspa/bookingflow/internal/payments"
	"github.com/serenityspa/bookingflow/internal/wizard"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFlowError maps domain errors onto HTTP statuses. Validation
// failures carry their per-field breakdown.
func writeFlowError(w http.ResponseWriter, err error) {
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, wizard.ErrClosed):
		jsonError(w, "wizard closed", http.StatusGone)
	case errors.Is(err, wizard.ErrInvalidTransition):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, wizard.ErrSubmitInProgress):
		jsonError(w, "submission in progress", http.StatusConflict)
	case errors.Is(err, wizard.ErrUnknownService),
		errors.Is(err, wizard.ErrNoAvailability),
		errors.Is(err, wizard.ErrSlotUnavailable),
		errors.Is(err, payments.ErrUnknownMethod),
		errors.Is(err, payments.ErrInvalidAmount):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrStaleSession):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, bookingapi.ErrUnauthorized):
		jsonError(w, "booking backend rejected credentials", http.StatusBadGateway)
	case errors.Is(err, bookingapi.ErrRejected),
		errors.Is(err, payments.ErrSessionCreation):
		jsonError(w, err.Error(), http.StatusBadGateway)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
