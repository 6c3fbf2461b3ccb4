package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rickgao/partner-reports/internal/model"
)

// ErrNotFound is returned by Get when no transaction has the given key.
var ErrNotFound = errors.New("transaction not found")

// Store persists normalized transactions.
type Store interface {
	// Ingest writes txs under namespace, skipping keys that already exist.
	Ingest(ctx context.Context, txs []model.StandardTransaction, namespace string) (IngestResult, error)

	// Get returns the transaction stored under key.
	Get(ctx context.Context, key string) (model.StandardTransaction, error)

	// ListRange returns the namespace's transactions with start <= timestamp < end,
	// ordered by timestamp ascending.
	ListRange(ctx context.Context, namespace string, start, end int64) ([]model.StandardTransaction, error)
}

// IngestResult summarizes one Ingest call.
type IngestResult struct {
	Inserted     int
	Duplicates   int      // Already stored, or repeated within the batch
	FailedKeys   []string // Keys that could not be persisted
	InsertedKeys []string
}

// ErrNamespaceRequired is returned by Ingest for an empty namespace.
var ErrNamespaceRequired = errors.New("namespace is required")

// IngestionError reports individual records that were rejected, either by
// validation or by a constraint on the stored row. Records not listed in
// FailedKeys were written or skipped as duplicates. Failures of the store
// itself (connection loss, cancellation) are returned as plain errors.
type IngestionError struct {
	Namespace  string
	FailedKeys []string
	Err        error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %s: %d records failed: %v", e.Namespace, len(e.FailedKeys), e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// Option configures a store.
type Option func(*options)

type options struct {
	currencies model.CurrencyTable
	chunkSize  int
	logger     *slog.Logger
}

// DefaultChunkSize is the number of rows sent per insert batch.
const DefaultChunkSize = 500

func defaultOptions() options {
	return options{
		currencies: model.DefaultCurrencyTable(),
		chunkSize:  DefaultChunkSize,
		logger:     slog.Default(),
	}
}

// WithCurrencyTable replaces the currency canonicalization table.
func WithCurrencyTable(t model.CurrencyTable) Option {
	return func(o *options) {
		if t != nil {
			o.currencies = t
		}
	}
}

// WithChunkSize sets how many rows are inserted per batch.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
