package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/serenityspa/bookingflow/internal/bookingapi"
	"github.com/serenityspa/bookingflow/internal/editor"
	"github.com/serenityspa/bookingflow/internal/http/middleware"
	"github.com/serenityspa/bookingflow/internal/observability/metrics"
	"github.com/serenityspa/bookingflow/internal/wizard"
	"github.com/serenityspa/bookingflow/pkg/logging"
)

// AdminBookingsHandler exposes the admin booking editor and deletion
// endpoints. Editor activations register in the shared wizard registry so
// payment returns resolve them the same way as public wizards.
type AdminBookingsHandler struct {
	manager  *editor.Manager
	registry *wizard.Registry
	bookings *bookingapi.Client
	metrics  *metrics.FlowMetrics
	logger   *logging.Logger
}

// NewAdminBookingsHandler creates the admin handler.
func NewAdminBookingsHandler(manager *editor.Manager, registry *wizard.Registry, bookings *bookingapi.Client, m *metrics.FlowMetrics, logger *logging.Logger) *AdminBookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingsHandler{
		manager:  manager,
		registry: registry,
		bookings: bookings,
		metrics:  m,
		logger:   logger.Component("admin_bookings"),
	}
}

// OpenEditor handles POST /api/admin/editor. The booking to edit comes in
// the body; its id keys the open modal.
func (h *AdminBookingsHandler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	var booking bookingapi.Booking
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if booking.ID == "" {
		jsonError(w, "booking id is required", http.StatusBadRequest)
		return
	}

	s, err := h.manager.Open(&booking)
	if err != nil {
		if errors.Is(err, editor.ErrAlreadyOpen) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.registry.Add(s.Wizard)

	writeJSON(w, http.StatusCreated, map[string]any{
		"booking_id": s.BookingRef,
		"wizard_id":  s.Wizard.ID().String(),
		"state":      s.Wizard.State(),
	})
}

// SetPayment handles POST /api/admin/editor/{bookingID}/payment.
func (h *AdminBookingsHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	var body struct {
		Method   string `json:"method"`
		TipCents int64  `json:"tip_cents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.manager.SetPayment(bookingID, body.Method, body.TipCents); err != nil {
		h.writeEditorError(w, err)
		return
	}
	h.writeEditorState(w, bookingID)
}

// Confirm handles POST /api/admin/editor/{bookingID}/confirm.
func (h *AdminBookingsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	out, err := h.manager.Confirm(r.Context(), bookingID)
	if err != nil {
		h.writeEditorError(w, err)
		return
	}
	if out.RedirectURL != "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"booking_id":   bookingID,
			"redirect_url": out.RedirectURL,
			"session_id":   out.SessionID,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking_id":          bookingID,
		"confirmation_number": out.Confirmation.ConfirmationNumber,
		"total_amount_cents":  out.Confirmation.TotalAmountCents,
	})
}

// Retry handles POST /api/admin/editor/{bookingID}/retry.
func (h *AdminBookingsHandler) Retry(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	if err := h.manager.Retry(bookingID); err != nil {
		h.writeEditorError(w, err)
		return
	}
	h.writeEditorState(w, bookingID)
}

// CloseEditor handles DELETE /api/admin/editor/{bookingID}.
func (h *AdminBookingsHandler) CloseEditor(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	s, ok := h.manager.Get(bookingID)
	if !ok {
		jsonError(w, "no open editor for booking", http.StatusNotFound)
		return
	}
	wizardID := s.Wizard.ID()
	if err := h.manager.Close(bookingID); err != nil {
		h.writeEditorError(w, err)
		return
	}
	if err := h.registry.Remove(wizardID); err != nil {
		h.logger.Warn("registry removal after editor close", "booking_id", bookingID, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBooking handles POST /api/admin/bookings. Admin creation goes
// through the backend's admin endpoint and skips the public wizard flow
// entirely; validation stays with the backend.
func (h *AdminBookingsHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingapi.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = bookingapi.PaymentStatusUnpaid
	}

	booking, err := h.bookings.CreateAdmin(r.Context(), req)
	if err != nil {
		h.metrics.ObserveBookingCreate("admin", "error")
		writeFlowError(w, err)
		return
	}
	h.metrics.ObserveBookingCreate("admin", "ok")
	writeJSON(w, http.StatusCreated, booking)
}

// Delete handles DELETE /api/admin/bookings/{bookingID}. A booking the
// backend no longer knows about counts as deleted.
func (h *AdminBookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	if err := h.bookings.Delete(r.Context(), bookingID); err != nil {
		h.metrics.ObserveBatchDelete("failed")
		writeFlowError(w, err)
		return
	}
	h.metrics.ObserveBatchDelete("deleted")
	h.logger.Info("booking deleted", "booking_id", bookingID, "actor", h.actor(r))
	w.WriteHeader(http.StatusNoContent)
}

// BatchDelete handles POST /api/admin/bookings/batch-delete. Every id gets
// its own outcome; one failure never aborts the rest.
func (h *AdminBookingsHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(body.IDs) == 0 {
		jsonError(w, "ids are required", http.StatusBadRequest)
		return
	}

	results := h.bookings.DeleteBatch(r.Context(), body.IDs)

	type itemResult struct {
		ID      string `json:"id"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}
	items := make([]itemResult, 0, len(results))
	for _, res := range results {
		item := itemResult{ID: res.ID, Deleted: res.Err == nil}
		if res.Err != nil {
			item.Error = res.Err.Error()
			h.metrics.ObserveBatchDelete("failed")
		} else {
			h.metrics.ObserveBatchDelete("deleted")
		}
		items = append(items, item)
	}
	failed := bookingapi.Failed(results)
	h.logger.Info("batch delete finished",
		"requested", len(results), "failed", failed, "actor", h.actor(r))

	status := http.StatusOK
	if failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]any{
		"results": items,
		"deleted": len(results) - failed,
		"failed":  failed,
	})
}

// actor is the authenticated staff subject for audit log lines.
func (h *AdminBookingsHandler) actor(r *http.Request) string {
	if id, ok := middleware.AdminFromContext(r.Context()); ok {
		return id.Subject
	}
	return "unknown"
}

func (h *AdminBookingsHandler) writeEditorState(w http.ResponseWriter, bookingID string) {
	s, ok := h.manager.Get(bookingID)
	if !ok {
		jsonError(w, "no open editor for booking", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking_id":  bookingID,
		"wizard_id":   s.Wizard.ID().String(),
		"state":       s.Wizard.State(),
		"total_cents": s.Wizard.TotalCents(),
		"fail_reason": s.Wizard.FailReason(),
	})
}

func (h *AdminBookingsHandler) writeEditorError(w http.ResponseWriter, err error) {
	if errors.Is(err, editor.ErrNotOpen) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeFlowError(w, err)
}
