package wizard

import "errors"

// State is one step of the booking wizard.
type State string

const (
	StateServiceSelection  State = "service_selection"
	StateDateTimeSelection State = "datetime_selection"
	StateContactInfo       State = "contact_info"
	StatePaymentMethod     State = "payment_method"
	StateSummary           State = "summary"
	StateSubmitting        State = "submitting"
	StateConfirmed         State = "confirmed"
	StateFailed            State = "failed"
)

// Terminal reports whether no further transitions leave the state.
func (s State) Terminal() bool {
	return s == StateConfirmed
}

var (
	// ErrInvalidTransition is returned when an operation is attempted from
	// the wrong step.
	ErrInvalidTransition = errors.New("wizard: operation not valid in current step")

	// ErrSubmitInProgress is returned for a second confirm or a close while
	// a submission is underway. The confirm control is disabled during
	// submission; a duplicate confirm is a bug in the caller.
	ErrSubmitInProgress = errors.New("wizard: submission already in progress")

	// ErrClosed is returned for operations on a closed wizard instance.
	ErrClosed = errors.New("wizard: instance closed")

	// ErrUnknownService is returned for a service type missing from the catalog.
	ErrUnknownService = errors.New("wizard: unknown service type")

	// ErrNoAvailability is returned when the chosen date has no open slot.
	ErrNoAvailability = errors.New("wizard: no available slots on that date")

	// ErrSlotUnavailable is returned when the chosen time is not an open slot.
	ErrSlotUnavailable = errors.New("wizard: selected time is not available")

	// ErrStaleSession is returned when a payment return references a
	// checkout session that is no longer the active one.
	ErrStaleSession = errors.New("wizard: returned checkout session is no longer active")
)
