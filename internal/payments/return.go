package payments

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ReturnOutcome classifies a provider return against the active-session
// reference for the draft.
type ReturnOutcome string

const (
	// ReturnSettled means the returned session was the active one and has
	// been cleared.
	ReturnSettled ReturnOutcome = "settled"
	// ReturnStale means the returned session was superseded by a newer one;
	// it must not complete the flow.
	ReturnStale ReturnOutcome = "stale"
	// ReturnUnknown means no active session exists for the draft, typically
	// an expired reference or a replayed return URL.
	ReturnUnknown ReturnOutcome = "unknown"
)

// ErrMalformedReturn is returned for provider return URLs missing the
// correlation parameters.
var ErrMalformedReturn = errors.New("payments: return URL missing draft or session id")

// Return is the parsed correlation data carried on a provider return URL.
type Return struct {
	DraftID   string
	SessionID string
}

// ParseReturn extracts the correlation parameters the checkout client put
// on the success and cancel URLs.
func ParseReturn(query url.Values) (Return, error) {
	ret := Return{
		DraftID:   strings.TrimSpace(query.Get("draft_id")),
		SessionID: strings.TrimSpace(query.Get("session_id")),
	}
	if ret.DraftID == "" || ret.SessionID == "" {
		return Return{}, ErrMalformedReturn
	}
	return ret, nil
}

// Verifier settles provider returns against the active-session store.
type Verifier struct {
	store *SessionStore
}

// NewVerifier wraps the session store for return handling.
func NewVerifier(store *SessionStore) *Verifier {
	return &Verifier{store: store}
}

// Verify classifies the return and, when it matches the active session,
// clears the reference so a replay of the same URL turns up unknown.
func (v *Verifier) Verify(ctx context.Context, ret Return) (ReturnOutcome, error) {
	active, err := v.store.Active(ctx, ret.DraftID)
	if err != nil {
		return ReturnUnknown, err
	}
	if active == "" {
		return ReturnUnknown, nil
	}
	if active != ret.SessionID {
		return ReturnStale, nil
	}
	settled, err := v.store.Settle(ctx, ret.DraftID, ret.SessionID)
	if err != nil {
		return ReturnUnknown, err
	}
	if !settled {
		return ReturnStale, nil
	}
	return ReturnSettled, nil
}
