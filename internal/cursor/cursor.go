// Package cursor persists per-binding progress cursors.
//
// A cursor is keyed by lower(appId) + ":" + partnerId and holds an opaque,
// adapter-defined state. Save replaces the whole value; nothing is merged.
package cursor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rickgao/partner-reports/internal/model"
)

// Store loads and saves progress cursors.
type Store interface {
	// Load returns the saved state and whether one exists.
	Load(ctx context.Context, appID, partnerID string) (model.CursorState, bool, error)

	// Save atomically replaces the state for the binding.
	Save(ctx context.Context, appID, partnerID string, state model.CursorState) error
}

func encodeState(state model.CursorState) ([]byte, error) {
	if state == nil {
		state = model.CursorState{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode cursor state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (model.CursorState, error) {
	state := model.CursorState{}
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode cursor state: %w", err)
	}
	return state, nil
}
