package partner

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownPartner matches any *UnknownPartnerError.
var ErrUnknownPartner = errors.New("unknown partner")

// UnknownPartnerError is returned when a binding names a partner with no
// registered adapter.
type UnknownPartnerError struct {
	PartnerID string
}

func (e *UnknownPartnerError) Error() string {
	return fmt.Sprintf("unknown partner %q", e.PartnerID)
}

// Is reports whether target is ErrUnknownPartner.
func (e *UnknownPartnerError) Is(target error) bool {
	return target == ErrUnknownPartner
}

// Registry maps partner IDs to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates a registry holding adapters.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an adapter. IDs must be unique.
func (r *Registry) Register(a Adapter) error {
	id := a.ID()
	if id == "" {
		return errors.New("adapter id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("adapter %q already registered", id)
	}
	r.adapters[id] = a
	return nil
}

// Lookup returns the adapter for partnerID.
func (r *Registry) Lookup(partnerID string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[partnerID]
	if !ok {
		return nil, &UnknownPartnerError{PartnerID: partnerID}
	}
	return a, nil
}

// IDs returns the registered partner IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
