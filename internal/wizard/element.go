package wizard

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrElementAlreadyMounted is raised when a second card element is mounted
// without tearing down the first. The external card SDK allows only one
// live element per mount point; flows are expected to go through Remount,
// which makes the violation unreachable.
var ErrElementAlreadyMounted = errors.New("wizard: card element already mounted at this mount point")

// ElementHost owns the single mount point for the external card-input
// element. One live element is allowed at a time, however many wizard or
// editor activations come and go around it.
type ElementHost struct {
	mu   sync.Mutex
	live *CardElement
}

// NewElementHost creates an empty mount point.
func NewElementHost() *ElementHost {
	return &ElementHost{}
}

// Mount attaches a new card element. Fails if one is already live; callers
// inside the wizard use Remount instead so this cannot trigger.
func (h *ElementHost) Mount() (*CardElement, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.live != nil {
		return nil, ErrElementAlreadyMounted
	}
	e := &CardElement{id: uuid.NewString(), host: h}
	h.live = e
	return e, nil
}

// Remount tears down any live element before mounting a fresh one. This is
// the only mount path the wizard and editor use, so reopening a step or a
// modal can never hit the duplicate-element condition.
func (h *ElementHost) Remount() (*CardElement, error) {
	h.mu.Lock()
	if h.live != nil {
		h.live.detached = true
		h.live = nil
	}
	h.mu.Unlock()
	return h.Mount()
}

// Live returns the currently mounted element, if any.
func (h *ElementHost) Live() (*CardElement, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.live, h.live != nil
}

// CardElement is a handle to the mounted card-input element.
type CardElement struct {
	id       string
	host     *ElementHost
	detached bool
}

// ID identifies this element instance.
func (e *CardElement) ID() string {
	return e.id
}

// Unmount releases the mount point. Safe to call more than once.
func (e *CardElement) Unmount() {
	if e == nil || e.host == nil {
		return
	}
	e.host.mu.Lock()
	defer e.host.mu.Unlock()
	if e.host.live == e {
		e.host.live = nil
	}
	e.detached = true
}

// Detached reports whether this handle no longer owns the mount point.
func (e *CardElement) Detached() bool {
	if e == nil {
		return true
	}
	e.host.mu.Lock()
	defer e.host.mu.Unlock()
	return e.detached
}
