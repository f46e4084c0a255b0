package handle

import (
	"fmt"

	"github.com/cuemby/cachecore/pkg/normalize"
	"github.com/cuemby/cachecore/pkg/source"
)

// Handler recomputes a derived value for one field payload and writes it
// onto record at payload.HandleKey.
type Handler interface {
	Update(proxy *source.Proxy, record *source.RecordProxy, payload normalize.HandleFieldPayload) error
}

// Registry maps handle names to their Handler implementation.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register associates name with h, overwriting any previous registration.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Apply runs every payload's registered handler in order. A payload whose
// handle name has no registered Handler is a programmer error: Apply stops
// there and returns an error, leaving the remaining payloads unprocessed.
func (r *Registry) Apply(proxy *source.Proxy, payloads []normalize.HandleFieldPayload) error {
	for _, p := range payloads {
		h, ok := r.handlers[p.Handle]
		if !ok {
			return fmt.Errorf("handle: no handler registered for %q", p.Handle)
		}
		record, ok := proxy.Get(p.DataID)
		if !ok {
			continue
		}
		if err := h.Update(proxy, record, p); err != nil {
			return fmt.Errorf("handle: applying %q on %q: %w", p.Handle, p.DataID, err)
		}
	}
	return nil
}
