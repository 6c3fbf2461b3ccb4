// Package partner defines the adapter contract for exchange partners and the
// registry the orchestrator resolves bindings against.
//
// An adapter turns a partner's native order history into StandardTransactions.
// Given the binding's prior cursor it returns every completed record newer than
// that cursor, plus records inside its lookback window, together with the
// cursor to persist once those records are safely stored. Adapters must not
// write to storage themselves.
package partner

import (
	"context"

	"github.com/rickgao/partner-reports/internal/model"
)

// FetchResult is what one Fetch call produced.
type FetchResult struct {
	Transactions []model.StandardTransaction
	State        model.CursorState // Cursor to persist after ingestion succeeds
}

// Adapter fetches normalized transactions from one partner.
type Adapter interface {
	// ID returns the partner identifier bindings refer to.
	ID() string

	// Fetch returns completed transactions since prior. A nil or empty prior
	// means the binding has never synced. Fetch must not mutate prior.
	Fetch(ctx context.Context, prior model.CursorState, creds model.Credentials) (FetchResult, error)
}

// FetchFunc adapts a function to the Adapter interface.
type FetchFunc struct {
	PartnerID string
	Fn        func(ctx context.Context, prior model.CursorState, creds model.Credentials) (FetchResult, error)
}

// ID implements Adapter.
func (f FetchFunc) ID() string { return f.PartnerID }

// Fetch implements Adapter.
func (f FetchFunc) Fetch(ctx context.Context, prior model.CursorState, creds model.Credentials) (FetchResult, error) {
	return f.Fn(ctx, prior, creds)
}
