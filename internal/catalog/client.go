package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/serenityspa/bookingflow/pkg/logging"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrBadDate is returned for availability queries without a YYYY-MM-DD date.
	ErrBadDate = errors.New("catalog: date must be YYYY-MM-DD")

	// ErrBackend is returned when the booking backend reports success=false.
	ErrBackend = errors.New("catalog: backend reported failure")
)

// Client is a read-only client for the booking backend's pricing and
// availability endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a pricing/availability client for the given backend.
func NewClient(baseURL string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
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

// envelope is the {success, data} wrapper the backend puts around pricing
// responses. The data shape varies between deployments (map or list), so it
// is kept raw here and decoded per endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type availabilityEnvelope struct {
	Success        bool              `json:"success"`
	AvailableSlots []json.RawMessage `json:"availableSlots"`
	Error          string            `json:"error"`
}

// LoadCatalog fetches the service catalog and addon list. It is called once
// at wizard start so later price lookups are synchronous.
func (c *Client) LoadCatalog(ctx context.Context) (*Catalog, error) {
	services, err := c.fetchServices(ctx)
	if err != nil {
		return nil, err
	}
	addons, err := c.fetchAddons(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Info("catalog loaded", "services", len(services), "addons", len(addons))
	return NewCatalog(services, addons), nil
}

// Availability fetches the open slots for a date, normalizing the backend's
// mixed string/object slot shapes.
func (c *Client) Availability(ctx context.Context, date string) ([]Slot, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, ErrBadDate
	}

	var env availabilityEnvelope
	q := url.Values{"date": {date}}
	if err := c.get(ctx, "/api/bookings/availability?"+q.Encode(), &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrBackend, env.Error)
	}
	return normalizeSlots(env.AvailableSlots)
}

func (c *Client) fetchServices(ctx context.Context) ([]Service, error) {
	var env envelope
	if err := c.get(ctx, "/api/pricing/sessions", &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrBackend, env.Error)
	}
	return decodeServices(env.Data)
}

func (c *Client) fetchAddons(ctx context.Context) ([]Addon, error) {
	var env envelope
	if err := c.get(ctx, "/api/pricing/addons", &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s", ErrBackend, env.Error)
	}
	return decodeAddons(env.Data)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("catalog: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("catalog: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("catalog: status %d: %s", resp.StatusCode, msg)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("catalog: unmarshal response: %w", err)
	}
	return nil
}

// serviceEntry covers the field names seen across backend deployments.
type serviceEntry struct {
	Type        string      `json:"type"`
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Price       json.Number `json:"price"`
	DurationMin int         `json:"duration"`
}

// decodeServices accepts either a map keyed by service type or a flat list.
func decodeServices(data json.RawMessage) ([]Service, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		var byType map[string]serviceEntry
		if err := json.Unmarshal(data, &byType); err != nil {
			return nil, fmt.Errorf("catalog: decode services map: %w", err)
		}
		services := make([]Service, 0, len(byType))
		for key, e := range byType {
			services = append(services, Service{
				Type:        key,
				Name:        e.Name,
				PriceCents:  dollarsToCents(e.Price),
				DurationMin: e.DurationMin,
			})
		}
		return services, nil
	case '[':
		var list []serviceEntry
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("catalog: decode services list: %w", err)
		}
		services := make([]Service, 0, len(list))
		for _, e := range list {
			key := e.Type
			if key == "" {
				key = e.ID
			}
			services = append(services, Service{
				Type:        key,
				Name:        e.Name,
				PriceCents:  dollarsToCents(e.Price),
				DurationMin: e.DurationMin,
			})
		}
		return services, nil
	default:
		return nil, fmt.Errorf("catalog: unsupported services shape %q", trimmed[:1])
	}
}

type addonEntry struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

func decodeAddons(data json.RawMessage) ([]Addon, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var list []addonEntry
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("catalog: decode addons list: %w", err)
		}
		addons := make([]Addon, 0, len(list))
		for _, e := range list {
			addons = append(addons, Addon{ID: e.ID, Name: e.Name, PriceCents: dollarsToCents(e.Price)})
		}
		return addons, nil
	case '{':
		var byID map[string]addonEntry
		if err := json.Unmarshal(data, &byID); err != nil {
			return nil, fmt.Errorf("catalog: decode addons map: %w", err)
		}
		addons := make([]Addon, 0, len(byID))
		for id, e := range byID {
			addons = append(addons, Addon{ID: id, Name: e.Name, PriceCents: dollarsToCents(e.Price)})
		}
		return addons, nil
	default:
		return nil, fmt.Errorf("catalog: unsupported addons shape %q", trimmed[:1])
	}
}

// dollarsToCents converts the backend's dollar-denominated prices to cents.
func dollarsToCents(n json.Number) int64 {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}
