package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/serenityspa/bookingflow/internal/confirmation"
	"github.com/serenityspa/bookingflow/internal/editor"
	"github.com/serenityspa/bookingflow/internal/observability/metrics"
	"github.com/serenityspa/bookingflow/internal/payments"
	"github.com/serenityspa/bookingflow/internal/wizard"
	"github.com/serenityspa/bookingflow/pkg/logging"
)

// ReturnsHandler consumes the payment provider's success and cancel
// redirects. The draft_id query parameter identifies the activation, the
// session_id the checkout session; both were placed on the return URLs at
// session-creation time.
type ReturnsHandler struct {
	registry *wizard.Registry
	verifier *payments.Verifier
	editors  *editor.Manager
	metrics  *metrics.FlowMetrics
	logger   *logging.Logger
}

// NewReturnsHandler creates the return handler. verifier may be nil when
// no session-reference store is configured; the wizard's own pending
// session check still applies. editors may be nil when no admin editor is
// mounted.
func NewReturnsHandler(registry *wizard.Registry, verifier *payments.Verifier, editors *editor.Manager, m *metrics.FlowMetrics, logger *logging.Logger) *ReturnsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReturnsHandler{
		registry: registry,
		verifier: verifier,
		editors:  editors,
		metrics:  m,
		logger:   logger.Component("returns_handler"),
	}
}

// Success handles GET /payments/return/success.
func (h *ReturnsHandler) Success(w http.ResponseWriter, r *http.Request) {
	inst, ret, ok := h.resolve(w, r)
	if !ok {
		return
	}

	conf, err := inst.HandlePaymentSuccess(ret.SessionID)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	// A settled edit releases its modal so the booking can be edited again.
	if h.editors != nil && inst.AdminInitiated() {
		if err := h.editors.Close(inst.BookingRef()); err != nil && !errors.Is(err, editor.ErrNotOpen) {
			h.logger.Warn("editor close after settle", "booking_id", inst.BookingRef(), "error", err)
		}
	}
	view := confirmation.Render(*conf)
	writeJSON(w, http.StatusOK, map[string]any{
		"state":        inst.State(),
		"confirmation": view,
	})
}

// Cancel handles GET /payments/return/cancel. The activation moves to
// Failed with its draft intact so a retry can follow.
func (h *ReturnsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	inst, ret, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := inst.HandlePaymentCancelled(ret.SessionID); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":       inst.State(),
		"fail_reason": inst.FailReason(),
	})
}

func (h *ReturnsHandler) resolve(w http.ResponseWriter, r *http.Request) (*wizard.Wizard, payments.Return, bool) {
	ret, err := payments.ParseReturn(r.URL.Query())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, payments.Return{}, false
	}

	id, err := uuid.Parse(ret.DraftID)
	if err != nil {
		jsonError(w, "invalid draft id", http.StatusBadRequest)
		return nil, payments.Return{}, false
	}
	inst, ok := h.registry.Get(id)
	if !ok {
		jsonError(w, "no active wizard for this payment", http.StatusNotFound)
		return nil, payments.Return{}, false
	}

	if h.verifier != nil {
		outcome, err := h.verifier.Verify(r.Context(), ret)
		if err != nil {
			h.logger.Error("session verification failed", "draft_id", ret.DraftID, "error", err)
			jsonError(w, "session verification failed", http.StatusBadGateway)
			return nil, payments.Return{}, false
		}
		switch outcome {
		case payments.ReturnStale:
			h.metrics.ObserveSessionInvalidated()
			jsonError(w, "checkout session superseded by a newer one", http.StatusConflict)
			return nil, payments.Return{}, false
		case payments.ReturnUnknown:
			jsonError(w, "checkout session expired or already settled", http.StatusGone)
			return nil, payments.Return{}, false
		}
	}

	return inst, ret, true
}
