package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/serenityspa/bookingflow/pkg/logging"
)

var checkoutTracer = otel.Tracer("bookingflow.internal.payments.checkout")

// ErrSessionCreation is returned when the payment gateway refuses the
// session or answers without a session identifier.
var ErrSessionCreation = errors.New("payments: checkout session creation failed")

// SessionParams describes one checkout session request.
type SessionParams struct {
	// DraftID identifies the wizard or editor activation that owns the
	// session. At most one session stays active per draft.
	DraftID string
	// BookingRef is an existing booking id for admin-initiated sessions,
	// empty for a new public booking.
	BookingRef  string
	AmountCents int64
	Description string
	ClientName  string
	ClientEmail string
	// AdminInitiated is set when the session originates in the admin editor.
	AdminInitiated bool
	// SuccessURL/CancelURL override the configured return URLs.
	SuccessURL string
	CancelURL  string
}

// Session is a created checkout session; RedirectURL is where control is
// handed to the external checkout page.
type Session struct {
	ID          string
	RedirectURL string
}

// checkoutRequest is the gateway's session-creation payload. Amount crosses
// the wire in cents.
type checkoutRequest struct {
	Amount      int64             `json:"amount"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
}

// checkoutSessionResponse tolerates both field spellings the gateway has
// been observed to use.
type checkoutSessionResponse struct {
	SessionID      string `json:"sessionId"`
	SessionIDSnake string `json:"session_id"`
	URL            string `json:"url"`
}

func (r checkoutSessionResponse) id() string {
	if r.SessionID != "" {
		return r.SessionID
	}
	return r.SessionIDSnake
}

// CheckoutClient creates checkout sessions against the external payment
// gateway and owns the at-most-one-active-session invariant through its
// SessionStore.
type CheckoutClient struct {
	baseURL    string
	successURL string
	cancelURL  string
	httpClient *http.Client
	logger     *logging.Logger
	store      *SessionStore
	dryRun     bool
}

// NewCheckoutClient creates a checkout session client.
func NewCheckoutClient(baseURL, successURL, cancelURL string, store *SessionStore, logger *logging.Logger) *CheckoutClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &CheckoutClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		successURL: successURL,
		cancelURL:  cancelURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		store:      store,
	}
}

// WithDryRun enables dry-run mode (returns fake sessions without calling
// the gateway).
func (c *CheckoutClient) WithDryRun(enabled bool) *CheckoutClient {
	c.dryRun = enabled
	return c
}

// WithHTTPClient overrides the HTTP client (for testing).
func (c *CheckoutClient) WithHTTPClient(hc *http.Client) *CheckoutClient {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// CreateSession creates a checkout session. Amount problems are rejected
// before any network call. Recording the new session invalidates any prior
// pending session for the same draft.
func (c *CheckoutClient) CreateSession(ctx context.Context, p SessionParams) (*Session, error) {
	ctx, span := checkoutTracer.Start(ctx, "checkout.create_session")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.draft_id", p.DraftID),
		attribute.Int64("checkout.amount_cents", p.AmountCents),
		attribute.Bool("checkout.admin_initiated", p.AdminInitiated),
	)

	if p.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	session, err := c.createSession(ctx, p)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if c.store != nil {
		if _, err := c.store.Swap(ctx, p.DraftID, session.ID); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	c.logger.Info("checkout session created",
		"draft_id", p.DraftID,
		"session_id", session.ID,
		"amount_cents", p.AmountCents,
		"admin_initiated", p.AdminInitiated,
	)
	return session, nil
}

func (c *CheckoutClient) createSession(ctx context.Context, p SessionParams) (*Session, error) {
	if c.dryRun {
		fakeID := "cs_dryrun_" + uuid.NewString()[:8]
		c.logger.Info("checkout dry run: skipping session creation",
			"draft_id", p.DraftID, "amount_cents", p.AmountCents)
		return &Session{
			ID:          fakeID,
			RedirectURL: "https://checkout.example.com/dry-run/" + fakeID,
		}, nil
	}

	successURL := p.SuccessURL
	if successURL == "" {
		successURL = c.successURL
	}
	cancelURL := p.CancelURL
	if cancelURL == "" {
		cancelURL = c.cancelURL
	}
	// The gateway appends session_id when redirecting back; draft_id is
	// ours to thread through so the return can be correlated.
	successURL = withDraftID(successURL, p.DraftID)
	cancelURL = withDraftID(cancelURL, p.DraftID)

	description := strings.TrimSpace(p.Description)
	if description == "" {
		description = "Booking payment"
	}

	metadata := map[string]string{
		"draft_id":     p.DraftID,
		"client_name":  p.ClientName,
		"client_email": p.ClientEmail,
	}
	if p.BookingRef != "" {
		metadata["booking_id"] = p.BookingRef
	}
	if p.AdminInitiated {
		metadata["admin_initiated"] = "true"
	}

	body, err := json.Marshal(checkoutRequest{
		Amount:      p.AmountCents,
		Description: description,
		Metadata:    metadata,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("payments: marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/payments/create-checkout-session", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payments: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrSessionCreation, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrSessionCreation, resp.StatusCode, msg)
	}

	var parsed checkoutSessionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSessionCreation, err)
	}
	if parsed.id() == "" {
		return nil, fmt.Errorf("%w: response missing session id", ErrSessionCreation)
	}

	return &Session{ID: parsed.id(), RedirectURL: parsed.URL}, nil
}

func withDraftID(rawURL, draftID string) string {
	if rawURL == "" || draftID == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("draft_id", draftID)
	u.RawQuery = q.Encode()
	return u.String()
}
