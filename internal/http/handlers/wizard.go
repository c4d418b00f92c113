package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/serenityspa/bookingflow/internal/catalog"
	"github.com/serenityspa/bookingflow/internal/confirmation"
	"github.com/serenityspa/bookingflow/internal/wizard"
	"github.com/serenityspa/bookingflow/pkg/logging"
)

// WizardHandler exposes the public booking wizard over HTTP. Each started
// wizard is one activation in the registry; the caller drives it step by
// step and either receives a confirmation or a checkout redirect.
type WizardHandler struct {
	registry *wizard.Registry
	cfg      wizard.Config
	catalog  *catalog.Client
	logger   *logging.Logger
}

// NewWizardHandler creates the wizard HTTP handler. cfg.Elements is left
// nil so every activation owns its own card-element mount point.
func NewWizardHandler(registry *wizard.Registry, cfg wizard.Config, catalogClient *catalog.Client, logger *logging.Logger) *WizardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.Elements = nil
	return &WizardHandler{
		registry: registry,
		cfg:      cfg,
		catalog:  catalogClient,
		logger:   logger.Component("wizard_handler"),
	}
}

type wizardStateResponse struct {
	WizardID   string             `json:"wizard_id"`
	State      wizard.State       `json:"state"`
	TotalCents int64              `json:"total_cents,omitempty"`
	FailReason string             `json:"fail_reason,omitempty"`
	View       *confirmation.View `json:"confirmation,omitempty"`
	Services   []serviceItem      `json:"services,omitempty"`
}

type serviceItem struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	DurationMin int    `json:"duration_min"`
}

func (h *WizardHandler) stateResponse(w *wizard.Wizard) wizardStateResponse {
	resp := wizardStateResponse{
		WizardID:   w.ID().String(),
		State:      w.State(),
		TotalCents: w.TotalCents(),
		FailReason: w.FailReason(),
	}
	if conf, ok := w.Confirmation(); ok {
		view := confirmation.Render(*conf)
		resp.View = &view
	}
	return resp
}

// Start handles POST /api/wizard. The response carries the service list so
// the first step renders without another round trip.
func (h *WizardHandler) Start(w http.ResponseWriter, r *http.Request) {
	inst := wizard.New(h.cfg)
	h.registry.Add(inst)

	resp := h.stateResponse(inst)
	for _, svc := range h.cfg.Catalog.Services() {
		resp.Services = append(resp.Services, serviceItem{
			Type:        svc.Type,
			Name:        svc.Name,
			PriceCents:  svc.PriceCents,
			DurationMin: svc.DurationMin,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get handles GET /api/wizard/{wizardID}.
func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(inst))
}

// SelectService handles POST /api/wizard/{wizardID}/service.
func (h *WizardHandler) SelectService(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var body struct {
		ServiceType string `json:"service_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	price, err := inst.SelectService(body.ServiceType)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	resp := h.stateResponse(inst)
	resp.TotalCents = price
	writeJSON(w, http.StatusOK, resp)
}

// Availability handles GET /api/wizard/{wizardID}/availability?date=.
func (h *WizardHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.lookup(w, r); !ok {
		return
	}
	date := r.URL.Query().Get("date")
	slots, err := h.catalog.Availability(r.Context(), date)
	if err != nil {
		if errors.Is(err, catalog.ErrBadDate) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, "availability lookup failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"times": catalog.AvailableTimes(slots),
	})
}

// SelectDateTime handles POST /api/wizard/{wizardID}/datetime.
func (h *WizardHandler) SelectDateTime(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var body struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := inst.SelectDateTime(r.Context(), body.Date, body.Time); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(inst))
}

// SetContact handles POST /api/wizard/{wizardID}/contact.
func (h *WizardHandler) SetContact(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var body struct {
		ClientName      string `json:"client_name"`
		ClientEmail     string `json:"client_email"`
		ClientPhone     string `json:"client_phone"`
		SpecialRequests string `json:"special_requests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := inst.SetContactInfo(body.ClientName, body.ClientEmail, body.ClientPhone, body.SpecialRequests); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(inst))
}

// SelectPayment handles POST /api/wizard/{wizardID}/payment-method.
func (h *WizardHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var body struct {
		Method   string `json:"method"`
		TipCents int64  `json:"tip_cents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := inst.SelectPaymentMethod(body.Method, body.TipCents); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(inst))
}

// Confirm handles POST /api/wizard/{wizardID}/confirm. The cash path
// answers with the confirmation; the card path answers with the redirect.
func (h *WizardHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.lookup(w, r)
	if !ok {
		return
	}
	out, err := inst.Confirm(r.Context())
	if err != nil {
		writeFlowError(w, err)
		return
	}
	if out.RedirectURL != "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"wizard_id":    inst.ID().String(),
			"state":        inst.State(),
			"redirect_url": out.RedirectURL,
			"session_id":   out.SessionID,
		})
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(inst))
}

// Retry handles POST /api/wizard/{wizardID}/retry.
func (h *WizardHandler) Retry(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := inst.RetryPayment(); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.stateResponse(inst))
}

// Close handles DELETE /api/wizard/{wizardID}.
func (h *WizardHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "wizardID"))
	if err != nil {
		jsonError(w, "invalid wizard id", http.StatusBadRequest)
		return
	}
	if err := h.registry.Remove(id); err != nil {
		writeFlowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WizardHandler) lookup(w http.ResponseWriter, r *http.Request) (*wizard.Wizard, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "wizardID"))
	if err != nil {
		jsonError(w, "invalid wizard id", http.StatusBadRequest)
		return nil, false
	}
	inst, ok := h.registry.Get(id)
	if !ok {
		jsonError(w, "wizard not found", http.StatusNotFound)
		return nil, false
	}
	return inst, true
}
