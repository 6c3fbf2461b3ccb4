package cursor

import (
	"context"
	"sync"

	"github.com/rickgao/partner-reports/internal/model"
)

// MemoryStore keeps cursors in process memory. States are stored encoded, so
// callers never share maps with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, appID, partnerID string) (model.CursorState, bool, error) {
	s.mu.RLock()
	data, ok := s.states[model.CursorKey(appID, partnerID)]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	state, err := decodeState(data)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, appID, partnerID string, state model.CursorState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeState(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.states[model.CursorKey(appID, partnerID)] = data
	s.mu.Unlock()
	return nil
}
