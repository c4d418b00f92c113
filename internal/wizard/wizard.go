package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/serenityspa/bookingflow/internal/bookingapi"
	"github.com/serenityspa/bookingflow/internal/catalog"
	"github.com/serenityspa/bookingflow/internal/confirmation"
	"github.com/serenityspa/bookingflow/internal/observability/metrics"
	"github.com/serenityspa/bookingflow/internal/payments"
	"github.com/serenityspa/bookingflow/pkg/logging"
)

var wizardTracer = otel.Tracer("bookingflow.internal.wizard")

// AvailabilityFetcher queries open slots for a date.
type AvailabilityFetcher interface {
	Availability(ctx context.Context, date string) ([]catalog.Slot, error)
}

// BookingCreator submits a new booking through the public endpoint.
type BookingCreator interface {
	CreatePublic(ctx context.Context, req bookingapi.CreateRequest) (*bookingapi.Booking, error)
}

// PaymentUpdater mutates the payment details of an existing booking
// (admin-edit mode).
type PaymentUpdater interface {
	UpdatePayment(ctx context.Context, bookingID string, req bookingapi.UpdatePaymentRequest) (*bookingapi.Booking, error)
}

// CheckoutStarter creates an external checkout session.
type CheckoutStarter interface {
	CreateSession(ctx context.Context, p payments.SessionParams) (*payments.Session, error)
}

// Config carries a wizard's collaborators.
type Config struct {
	Catalog      *catalog.Catalog
	Availability AvailabilityFetcher
	Bookings     BookingCreator
	Checkout     CheckoutStarter
	Elements     *ElementHost
	Logger       *logging.Logger
	Metrics      *metrics.FlowMetrics
}

// Outcome is the result of confirming the summary step. Exactly one branch
// is populated: a confirmation for the synchronous cash path, or a redirect
// for the card path.
type Outcome struct {
	Confirmation *confirmation.BookingConfirmation
	RedirectURL  string
	SessionID    string
}

// Wizard drives one booking activation through its steps. Each instance
// owns its draft exclusively; the mutex serializes operations so a later
// step can never be processed before an earlier step's validation finished.
type Wizard struct {
	mu        sync.Mutex
	id        uuid.UUID
	createdAt time.Time
	state     State
	draft     Draft

	cfg           Config
	bookingRef    string
	adminBookings PaymentUpdater

	element        *CardElement
	pendingSession string
	conf           *confirmation.BookingConfirmation
	failReason     string
	closed         bool

	logger *logging.Logger
}

// New starts a fresh public booking wizard at the service-selection step.
func New(cfg Config) *Wizard {
	return newWizard(cfg, "", nil, StateServiceSelection, Draft{})
}

// NewForBooking starts an admin-edit activation against an existing
// booking: the draft is pre-populated and the flow begins at the
// payment-method step.
func NewForBooking(bookingRef string, draft Draft, admin PaymentUpdater, cfg Config) *Wizard {
	return newWizard(cfg, bookingRef, admin, StatePaymentMethod, draft)
}

func newWizard(cfg Config, bookingRef string, admin PaymentUpdater, initial State, draft Draft) *Wizard {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Elements == nil {
		cfg.Elements = NewElementHost()
	}
	return &Wizard{
		id:            uuid.New(),
		createdAt:     time.Now().UTC(),
		state:         initial,
		draft:         draft,
		cfg:           cfg,
		bookingRef:    bookingRef,
		adminBookings: admin,
		logger:        logger.Component("wizard"),
	}
}

// ID identifies this activation.
func (w *Wizard) ID() uuid.UUID { return w.id }

// CreatedAt is when this activation started.
func (w *Wizard) CreatedAt() time.Time { return w.createdAt }

// State returns the current step.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Snapshot returns a copy of the draft.
func (w *Wizard) Snapshot() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// FailReason returns the human-readable reason for the Failed state.
func (w *Wizard) FailReason() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failReason
}

// Confirmation returns the terminal confirmation, if the wizard reached it.
func (w *Wizard) Confirmation() (*confirmation.BookingConfirmation, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conf, w.conf != nil
}

// AdminInitiated reports whether this activation edits an existing booking.
func (w *Wizard) AdminInitiated() bool { return w.bookingRef != "" }

// BookingRef is the edited booking's id, empty for public activations.
func (w *Wizard) BookingRef() string { return w.bookingRef }

func (w *Wizard) transition(to State) {
	w.cfg.Metrics.ObserveTransition(string(w.state), string(to))
	w.logger.Debug("wizard transition", "wizard_id", w.id, "from", w.state, "to", to)
	w.state = to
}

func (w *Wizard) guard(expect State) error {
	if w.closed {
		return ErrClosed
	}
	if w.state == expect {
		return nil
	}
	if w.state == StateSubmitting {
		return ErrSubmitInProgress
	}
	return fmt.Errorf("%w: in %s, expected %s", ErrInvalidTransition, w.state, expect)
}

// SelectService records the chosen service and returns its price, resolved
// synchronously from the already-loaded catalog.
func (w *Wizard) SelectService(serviceType string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(StateServiceSelection); err != nil {
		return 0, err
	}
	serviceType = strings.TrimSpace(serviceType)
	if serviceType == "" {
		return 0, &ValidationError{Fields: []FieldError{{Field: "service_type", Message: "service is required"}}}
	}
	svc, ok := w.cfg.Catalog.Service(serviceType)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownService, serviceType)
	}

	w.draft.ServiceType = serviceType
	w.draft.BasePriceCents = svc.PriceCents
	w.transition(StateDateTimeSelection)
	return svc.PriceCents, nil
}

// SelectDateTime fetches availability for the date and records the chosen
// time, which must be one of the open slots.
func (w *Wizard) SelectDateTime(ctx context.Context, date, timeOfDay string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(StateDateTimeSelection); err != nil {
		return err
	}

	slots, err := w.cfg.Availability.Availability(ctx, date)
	if err != nil {
		return fmt.Errorf("wizard: availability lookup: %w", err)
	}
	open := catalog.AvailableTimes(slots)
	if len(open) == 0 {
		return ErrNoAvailability
	}
	found := false
	for _, t := range open {
		if t == timeOfDay {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q on %s", ErrSlotUnavailable, timeOfDay, date)
	}

	w.draft.ScheduledDate = date
	w.draft.ScheduledTime = timeOfDay
	w.transition(StateContactInfo)
	return nil
}

// SetContactInfo stores the entered contact fields and validates them.
// Invalid fields block the transition but never clear what was typed, so
// valid entries survive a failed attempt.
func (w *Wizard) SetContactInfo(name, email, phone, specialRequests string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(StateContactInfo); err != nil {
		return err
	}

	w.draft.ClientName = name
	w.draft.ClientEmail = email
	w.draft.ClientPhone = phone
	w.draft.SpecialRequests = specialRequests

	if verr := validateContact(name, email, phone); verr != nil {
		return verr
	}
	w.transition(StatePaymentMethod)
	return nil
}

// SelectPaymentMethod records the chosen method and tip. The card path
// remounts the card element through the host, tearing down any prior
// instance first.
func (w *Wizard) SelectPaymentMethod(method string, tipCents int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.guard(StatePaymentMethod); err != nil {
		return err
	}
	parsed, err := payments.ParseMethod(method)
	if err != nil {
		return err
	}
	if tipCents < 0 {
		return &ValidationError{Fields: []FieldError{{Field: "tip_amount", Message: "tip cannot be negative"}}}
	}

	if parsed == payments.MethodCard {
		element, err := w.cfg.Elements.Remount()
		if err != nil {
			return err
		}
		w.element = element
	} else if w.element != nil {
		w.element.Unmount()
		w.element = nil
	}

	w.draft.PaymentMethod = parsed
	w.draft.TipCents = tipCents
	w.transition(StateSummary)
	return nil
}

// TotalCents is the amount the summary step shows and the payment uses.
func (w *Wizard) TotalCents() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.TotalCents()
}

// Confirm submits the summary. It only ever runs from an explicit summary
// confirmation; entering Submitting locks the draft and makes a duplicate
// confirm fail rather than double-submit.
func (w *Wizard) Confirm(ctx context.Context) (*Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, span := wizardTracer.Start(ctx, "wizard.confirm")
	defer span.End()
	span.SetAttributes(
		attribute.String("wizard.id", w.id.String()),
		attribute.String("wizard.payment_method", string(w.draft.PaymentMethod)),
		attribute.Bool("wizard.admin_initiated", w.AdminInitiated()),
	)

	if err := w.guard(StateSummary); err != nil {
		span.RecordError(err)
		return nil, err
	}

	route, err := payments.Resolve(w.draft.PaymentMethod, w.draft.TotalCents())
	if err != nil {
		// Amount and method problems keep the summary editable.
		span.RecordError(err)
		return nil, err
	}
	span.AddEvent("payment route resolved", trace.WithAttributes(
		attribute.Int64("wizard.total_cents", w.draft.TotalCents()),
	))

	w.transition(StateSubmitting)

	switch route {
	case payments.RouteDirectCreate:
		return w.submitDirect(ctx)
	default:
		return w.submitCheckout(ctx)
	}
}

func (w *Wizard) submitDirect(ctx context.Context) (*Outcome, error) {
	var booking *bookingapi.Booking
	var err error

	if w.AdminInitiated() {
		booking, err = w.adminBookings.UpdatePayment(ctx, w.bookingRef, bookingapi.UpdatePaymentRequest{
			PaymentMethod: string(w.draft.PaymentMethod),
			PaymentStatus: bookingapi.PaymentStatusUnpaid,
			TipAmount:     bookingapi.CentsToDollars(w.draft.TipCents),
			TotalPrice:    bookingapi.CentsToDollars(w.draft.TotalCents()),
		})
	} else {
		booking, err = w.cfg.Bookings.CreatePublic(ctx, bookingapi.CreateRequest{
			ClientName:      w.draft.ClientName,
			ClientEmail:     w.draft.ClientEmail,
			ClientPhone:     w.draft.ClientPhone,
			ServiceType:     w.draft.ServiceType,
			ScheduledDate:   w.draft.ScheduledDate,
			ScheduledTime:   w.draft.ScheduledTime,
			PaymentMethod:   string(w.draft.PaymentMethod),
			PaymentStatus:   bookingapi.PaymentStatusUnpaid,
			TotalPrice:      bookingapi.CentsToDollars(w.draft.TotalCents()),
			SpecialRequests: w.draft.SpecialRequests,
		})
	}
	if err != nil {
		w.cfg.Metrics.ObserveBookingCreate(w.audience(), "error")
		w.fail("booking could not be saved: " + err.Error())
		return nil, err
	}

	w.cfg.Metrics.ObserveBookingCreate(w.audience(), "ok")
	conf := w.buildConfirmation(booking.ConfirmationNumber, booking.Practitioner)
	w.confirm(conf)
	return &Outcome{Confirmation: conf}, nil
}

func (w *Wizard) submitCheckout(ctx context.Context) (*Outcome, error) {
	session, err := w.cfg.Checkout.CreateSession(ctx, payments.SessionParams{
		DraftID:        w.id.String(),
		BookingRef:     w.bookingRef,
		AmountCents:    w.draft.TotalCents(),
		Description:    w.description(),
		ClientName:     w.draft.ClientName,
		ClientEmail:    w.draft.ClientEmail,
		AdminInitiated: w.AdminInitiated(),
	})
	if err != nil {
		w.cfg.Metrics.ObserveCheckoutSession("failed", w.AdminInitiated())
		w.fail("payment session could not be created: " + err.Error())
		return nil, err
	}

	w.cfg.Metrics.ObserveCheckoutSession("created", w.AdminInitiated())
	if w.pendingSession != "" && w.pendingSession != session.ID {
		w.cfg.Metrics.ObserveSessionInvalidated()
	}
	w.pendingSession = session.ID

	// Control now passes to the external checkout page; the wizard stays
	// in Submitting until the provider calls back a return URL.
	return &Outcome{RedirectURL: session.RedirectURL, SessionID: session.ID}, nil
}

// HandlePaymentSuccess consumes the provider's success return and completes
// the flow. The confirmation is built entirely from data already held.
func (w *Wizard) HandlePaymentSuccess(sessionID string) (*confirmation.BookingConfirmation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if w.state != StateSubmitting {
		return nil, fmt.Errorf("%w: in %s, expected %s", ErrInvalidTransition, w.state, StateSubmitting)
	}
	if sessionID != "" && w.pendingSession != "" && sessionID != w.pendingSession {
		return nil, ErrStaleSession
	}

	w.cfg.Metrics.ObservePaymentReturn("success")
	ref := w.pendingSession
	if sessionID != "" {
		ref = sessionID
	}
	confirmationNumber := ref
	if w.bookingRef != "" {
		confirmationNumber = w.bookingRef
	}
	conf := w.buildConfirmation(confirmationNumber, "")
	w.pendingSession = ""
	w.confirm(conf)
	return conf, nil
}

// HandlePaymentCancelled consumes the provider's cancel return. The draft
// survives intact so the client can retry with a different method without
// re-entering anything.
func (w *Wizard) HandlePaymentCancelled(sessionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.state != StateSubmitting {
		return fmt.Errorf("%w: in %s, expected %s", ErrInvalidTransition, w.state, StateSubmitting)
	}
	if sessionID != "" && w.pendingSession != "" && sessionID != w.pendingSession {
		return ErrStaleSession
	}

	w.cfg.Metrics.ObservePaymentReturn("cancelled")
	w.pendingSession = ""
	w.fail("payment cancelled")
	return nil
}

// RetryPayment reopens the payment-method step after a failure, keeping
// everything entered so far.
func (w *Wizard) RetryPayment() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.state != StateFailed {
		return fmt.Errorf("%w: in %s, expected %s", ErrInvalidTransition, w.state, StateFailed)
	}
	w.failReason = ""
	w.transition(StatePaymentMethod)
	return nil
}

// Close tears the activation down, releasing the card element. Closing is
// refused while a submission is in flight; the confirm control is disabled
// at that point and external state must settle first.
func (w *Wizard) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	if w.state == StateSubmitting {
		return ErrSubmitInProgress
	}
	if w.element != nil {
		w.element.Unmount()
		w.element = nil
	}
	w.closed = true
	w.logger.Info("wizard closed", "wizard_id", w.id, "state", w.state)
	return nil
}

// Closed reports whether the activation has been torn down.
func (w *Wizard) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Wizard) audience() string {
	if w.AdminInitiated() {
		return "admin"
	}
	return "public"
}

func (w *Wizard) description() string {
	name := w.draft.ServiceType
	if svc, ok := w.cfg.Catalog.Service(w.draft.ServiceType); ok && svc.Name != "" {
		name = svc.Name
	}
	if name == "" {
		name = "Booking payment"
	}
	if w.draft.ScheduledDate != "" {
		return fmt.Sprintf("%s on %s %s", name, w.draft.ScheduledDate, w.draft.ScheduledTime)
	}
	return name
}

func (w *Wizard) buildConfirmation(confirmationNumber, practitioner string) *confirmation.BookingConfirmation {
	service := w.draft.ServiceType
	if svc, ok := w.cfg.Catalog.Service(w.draft.ServiceType); ok && svc.Name != "" {
		service = svc.Name
	}
	return &confirmation.BookingConfirmation{
		Service:            service,
		ScheduledDate:      w.draft.ScheduledDate,
		ScheduledTime:      w.draft.ScheduledTime,
		Practitioner:       practitioner,
		ConfirmationNumber: confirmationNumber,
		TotalAmountCents:   w.draft.TotalCents(),
	}
}

func (w *Wizard) confirm(conf *confirmation.BookingConfirmation) {
	w.conf = conf
	if w.element != nil {
		w.element.Unmount()
		w.element = nil
	}
	// The draft's job is done once a confirmation exists.
	w.draft = Draft{}
	w.transition(StateConfirmed)
}

func (w *Wizard) fail(reason string) {
	w.failReason = reason
	w.transition(StateFailed)
	w.logger.Warn("wizard failed", "wizard_id", w.id, "reason", reason)
}
