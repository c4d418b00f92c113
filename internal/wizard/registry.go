package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/serenityspa/bookingflow/pkg/logging"
)

// Registry tracks live wizard activations by id and expires abandoned ones.
type Registry struct {
	mu      sync.RWMutex
	wizards map[uuid.UUID]*Wizard
	ttl     time.Duration
	logger  *logging.Logger
}

// NewRegistry creates a registry whose sweep expires activations older
// than ttl.
func NewRegistry(ttl time.Duration, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		wizards: make(map[uuid.UUID]*Wizard),
		ttl:     ttl,
		logger:  logger.Component("wizard_registry"),
	}
}

// Add registers an activation.
func (r *Registry) Add(w *Wizard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wizards[w.ID()] = w
}

// Get looks an activation up by id.
func (r *Registry) Get(id uuid.UUID) (*Wizard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wizards[id]
	return w, ok
}

// Remove closes and drops an activation. Removal of an unknown id is a
// no-op. An activation that refuses to close stays registered: a payment
// return may still have to settle it.
func (r *Registry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	w, ok := r.wizards[id]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	if err := w.Close(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.wizards, id)
	r.mu.Unlock()
	return nil
}

// Len reports the number of live activations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.wizards)
}

// Sweep expires activations older than the TTL. Submitting activations are
// left alone: a payment return may still arrive for them.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var expired []*Wizard
	for id, w := range r.wizards {
		if now.Sub(w.CreatedAt()) < r.ttl {
			continue
		}
		if w.State() == StateSubmitting {
			continue
		}
		delete(r.wizards, id)
		expired = append(expired, w)
	}
	r.mu.Unlock()

	for _, w := range expired {
		if err := w.Close(); err != nil {
			r.logger.Warn("sweep close failed", "wizard_id", w.ID(), "error", err)
		}
	}
	if len(expired) > 0 {
		r.logger.Info("swept expired wizards", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps on the interval until the context is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(time.Now().UTC())
		}
	}
}
