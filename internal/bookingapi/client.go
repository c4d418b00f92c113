package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/serenityspa/bookingflow/pkg/logging"
)

var bookingTracer = otel.Tracer("bookingflow.internal.bookingapi")

const (
	defaultTimeout = 10 * time.Second

	// adminHeader carries the static privileged-intent token on admin calls.
	adminHeader = "X-Admin-Access-Token"
)

var (
	// ErrUnauthorized is returned when the backend rejects the admin token.
	ErrUnauthorized = errors.New("bookingapi: admin access rejected")

	// ErrRejected is returned when the backend refuses a booking payload.
	ErrRejected = errors.New("bookingapi: booking rejected")
)

// Client talks to the external booking backend. Public creation and admin
// operations use distinct endpoints with distinct authorization; they are
// not interchangeable.
type Client struct {
	baseURL    string
	adminToken string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a booking backend client. adminToken may be empty when
// only public operations are needed.
func NewClient(baseURL, adminToken string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminToken: adminToken,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// WithHTTPClient overrides the HTTP client (for testing).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// CreatePublic submits a booking through the public web-booking endpoint.
func (c *Client) CreatePublic(ctx context.Context, req CreateRequest) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "bookingapi.create_public")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.service_type", req.ServiceType),
		attribute.String("booking.payment_method", req.PaymentMethod),
	)

	booking, err := c.create(ctx, "/api/web-booking/book", req, false)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.logger.Info("booking created",
		"booking_id", booking.ID,
		"service_type", req.ServiceType,
		"payment_method", req.PaymentMethod,
	)
	return booking, nil
}

// CreateAdmin submits a booking through the admin endpoint, carrying the
// static admin access token.
func (c *Client) CreateAdmin(ctx context.Context, req CreateRequest) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "bookingapi.create_admin")
	defer span.End()
	span.SetAttributes(attribute.String("booking.service_type", req.ServiceType))

	booking, err := c.create(ctx, "/api/admin/bookings", req, true)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.logger.Info("admin booking created", "booking_id", booking.ID)
	return booking, nil
}

// UpdatePayment changes the payment method, tip, and total of an existing
// booking through the admin endpoint.
func (c *Client) UpdatePayment(ctx context.Context, bookingID string, req UpdatePaymentRequest) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "bookingapi.update_payment")
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", bookingID))

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("bookingapi: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/admin/bookings/"+bookingID, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("bookingapi: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(adminHeader, c.adminToken)

	booking, err := c.send(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.logger.Info("booking payment updated", "booking_id", bookingID, "payment_method", req.PaymentMethod)
	return booking, nil
}

// Delete removes a booking through the admin endpoint. Deletion is
// idempotent: a 404 for an already-deleted booking counts as success.
func (c *Client) Delete(ctx context.Context, bookingID string) error {
	if strings.TrimSpace(bookingID) == "" {
		return fmt.Errorf("bookingapi: empty booking id")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/bookings/"+bookingID, nil)
	if err != nil {
		return fmt.Errorf("bookingapi: create request: %w", err)
	}
	req.Header.Set(adminHeader, c.adminToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bookingapi: http request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	default:
		return fmt.Errorf("bookingapi: delete %s: status %d", bookingID, resp.StatusCode)
	}
}

func (c *Client) create(ctx context.Context, path string, req CreateRequest, admin bool) (*Booking, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("bookingapi: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("bookingapi: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if admin {
		httpReq.Header.Set(adminHeader, c.adminToken)
	}

	return c.send(httpReq)
}

func (c *Client) send(req *http.Request) (*Booking, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bookingapi: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bookingapi: read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, msg)
	}

	var parsed createResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("bookingapi: unmarshal response: %w", err)
	}
	if !parsed.Success || parsed.Booking == nil {
		return nil, fmt.Errorf("%w: %s", ErrRejected, parsed.Error)
	}

	booking := parsed.Booking
	if booking.ConfirmationNumber == "" {
		booking.ConfirmationNumber = booking.ID
	}
	return booking, nil
}
