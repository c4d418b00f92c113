package catalog

// Service is one bookable session type from the pricing catalog.
type Service struct {
	Type        string
	Name        string
	PriceCents  int64
	DurationMin int
}

// Addon is an optional extra that can be attached to a session.
type Addon struct {
	ID         string
	Name       string
	PriceCents int64
}

// Slot is a single bookable time on a given date, normalized from the
// backend's mixed string/object slot payloads.
type Slot struct {
	Time      string
	Available bool
}

// Catalog holds the service price table and addon list fetched at wizard
// start. Lookups are synchronous; no network call is needed to display a
// price once the catalog is loaded.
type Catalog struct {
	services map[string]Service
	addons   []Addon
}

// NewCatalog builds a catalog from fetched services and addons.
func NewCatalog(services []Service, addons []Addon) *Catalog {
	byType := make(map[string]Service, len(services))
	for _, s := range services {
		byType[s.Type] = s
	}
	return &Catalog{services: byType, addons: addons}
}

// Service looks up a service by its type key.
func (c *Catalog) Service(serviceType string) (Service, bool) {
	s, ok := c.services[serviceType]
	return s, ok
}

// Price returns the base price for a service type.
func (c *Catalog) Price(serviceType string) (int64, bool) {
	s, ok := c.services[serviceType]
	if !ok {
		return 0, false
	}
	return s.PriceCents, true
}

// Addons returns the addon list.
func (c *Catalog) Addons() []Addon {
	return c.addons
}

// Services returns all services in the catalog.
func (c *Catalog) Services() []Service {
	out := make([]Service, 0, len(c.services))
	for _, s := range c.services {
		out = append(out, s)
	}
	return out
}
