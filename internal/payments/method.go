package payments

import (
	"errors"
	"fmt"
	"strings"
)

// Method is how a booking is paid for.
type Method string

const (
	// MethodCash completes synchronously via a direct booking-create call
	// with an unpaid status; no external session is involved.
	MethodCash Method = "cash"
	// MethodCard requires an external checkout session and redirect.
	MethodCard Method = "card"
)

// Route is the resolver's decision for completing a confirmed summary.
type Route int

const (
	// RouteDirectCreate completes with a direct booking-create call.
	RouteDirectCreate Route = iota + 1
	// RouteCheckout delegates to the checkout session orchestrator.
	RouteCheckout
)

var (
	// ErrInvalidAmount blocks payment initiation for zero or negative totals.
	ErrInvalidAmount = errors.New("payments: amount must be a positive number of cents")

	// ErrUnknownMethod is returned for methods other than cash and card.
	ErrUnknownMethod = errors.New("payments: unknown payment method")
)

// ParseMethod normalizes user input into a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodCash:
		return MethodCash, nil
	case MethodCard:
		return MethodCard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Resolve decides how a confirmed booking completes. It never performs
// network calls; amount problems are rejected here, before any session or
// booking request is issued.
func Resolve(method Method, amountCents int64) (Route, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}
	switch method {
	case MethodCash:
		return RouteDirectCreate, nil
	case MethodCard:
		return RouteCheckout, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}
