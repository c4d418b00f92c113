// Package editor hosts the admin edit-booking flow. Each open modal is its
// own wizard activation scoped to an existing booking; opening again after
// a close always starts a fresh activation, never reuses a prior one.
package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/serenityspa/bookingflow/internal/bookingapi"
	"github.com/serenityspa/bookingflow/internal/confirmation"
	"github.com/serenityspa/bookingflow/internal/wizard"
	"github.com/serenityspa/bookingflow/pkg/logging"
)

var (
	// ErrAlreadyOpen is returned when a second modal is opened for the same
	// booking before the first is closed.
	ErrAlreadyOpen = errors.New("editor: booking already being edited")

	// ErrNotOpen is returned for operations against a booking with no open
	// editor.
	ErrNotOpen = errors.New("editor: no open editor for booking")
)

// Manager tracks open edit sessions by booking id. The card-element mount
// point is shared with the public wizard host, so an edit modal reopened
// over a half-torn-down instance still goes through the same
// teardown-then-mount path.
type Manager struct {
	mu     sync.Mutex
	open   map[string]*Session
	cfg    wizard.Config
	admin  wizard.PaymentUpdater
	logger *logging.Logger
}

// Session is one open edit modal.
type Session struct {
	BookingRef string
	Wizard     *wizard.Wizard
}

// NewManager creates an editor manager sharing the wizard's collaborators.
func NewManager(cfg wizard.Config, admin wizard.PaymentUpdater, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		open:   make(map[string]*Session),
		cfg:    cfg,
		admin:  admin,
		logger: logger.Component("editor"),
	}
}

// Open starts editing a booking. The booking's current service price seeds
// the draft so tip changes recompute against the real base amount.
func (m *Manager) Open(booking *bookingapi.Booking) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.open[booking.ID]; exists {
		return nil, ErrAlreadyOpen
	}

	draft := wizard.Draft{
		ServiceType:    booking.ServiceType,
		ScheduledDate:  booking.ScheduledDate,
		ScheduledTime:  booking.ScheduledTime,
		ClientName:     booking.ClientName,
		ClientEmail:    booking.ClientEmail,
		ClientPhone:    booking.ClientPhone,
		BasePriceCents: basePriceCents(m.cfg, booking),
	}
	w := wizard.NewForBooking(booking.ID, draft, m.admin, m.cfg)

	s := &Session{BookingRef: booking.ID, Wizard: w}
	m.open[booking.ID] = s
	m.logger.Info("editor opened", "booking_id", booking.ID, "wizard_id", w.ID())
	return s, nil
}

// Get returns the open session for a booking.
func (m *Manager) Get(bookingRef string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.open[bookingRef]
	return s, ok
}

// Close tears the session down and frees the booking for a later reopen.
// Refused while a payment submission is in flight.
func (m *Manager) Close(bookingRef string) error {
	m.mu.Lock()
	s, ok := m.open[bookingRef]
	m.mu.Unlock()
	if !ok {
		return ErrNotOpen
	}

	if err := s.Wizard.Close(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.open, bookingRef)
	m.mu.Unlock()
	m.logger.Info("editor closed", "booking_id", bookingRef)
	return nil
}

// SetPayment re-selects the payment method and tip for the edited booking.
func (m *Manager) SetPayment(bookingRef, method string, tipCents int64) error {
	s, ok := m.Get(bookingRef)
	if !ok {
		return ErrNotOpen
	}
	return s.Wizard.SelectPaymentMethod(method, tipCents)
}

// Confirm applies the edit: cash updates the booking in place, card opens a
// checkout session scoped to the booking's identifier.
func (m *Manager) Confirm(ctx context.Context, bookingRef string) (*wizard.Outcome, error) {
	s, ok := m.Get(bookingRef)
	if !ok {
		return nil, ErrNotOpen
	}
	return s.Wizard.Confirm(ctx)
}

// HandlePaymentSuccess settles the card edit after the provider's success
// return. The session is closed and removed once settled.
func (m *Manager) HandlePaymentSuccess(bookingRef, sessionID string) (*confirmation.BookingConfirmation, error) {
	s, ok := m.Get(bookingRef)
	if !ok {
		return nil, ErrNotOpen
	}
	conf, err := s.Wizard.HandlePaymentSuccess(sessionID)
	if err != nil {
		return nil, err
	}
	if err := m.Close(bookingRef); err != nil && !errors.Is(err, ErrNotOpen) {
		m.logger.Warn("editor close after settle failed", "booking_id", bookingRef, "error", err)
	}
	return conf, nil
}

// HandlePaymentCancelled records a cancelled card edit. The session stays
// open so the admin can retry with the tip entry intact.
func (m *Manager) HandlePaymentCancelled(bookingRef, sessionID string) error {
	s, ok := m.Get(bookingRef)
	if !ok {
		return ErrNotOpen
	}
	return s.Wizard.HandlePaymentCancelled(sessionID)
}

// Retry reopens the payment step of a failed edit.
func (m *Manager) Retry(bookingRef string) error {
	s, ok := m.Get(bookingRef)
	if !ok {
		return ErrNotOpen
	}
	return s.Wizard.RetryPayment()
}

func basePriceCents(cfg wizard.Config, booking *bookingapi.Booking) int64 {
	if cfg.Catalog != nil {
		if price, ok := cfg.Catalog.Price(booking.ServiceType); ok {
			return price
		}
	}
	// Booking predates the current catalog; fall back to its stored total
	// minus the recorded tip.
	base := booking.TotalPriceCents() - booking.TipAmountCents()
	if base < 0 {
		base = 0
	}
	return base
}
