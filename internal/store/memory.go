package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/rickgao/partner-reports/internal/model"
)

// MemoryStore keeps transactions in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   map[string]memRow
	prep   *preparer
	logger *slog.Logger
}

type memRow struct {
	namespace string
	tx        model.StandardTransaction
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		rows:   make(map[string]memRow),
		prep:   newPreparer(o.currencies),
		logger: o.logger,
	}
}

// Ingest implements Store.
func (s *MemoryStore) Ingest(ctx context.Context, txs []model.StandardTransaction, namespace string) (IngestResult, error) {
	if err := ctx.Err(); err != nil {
		return IngestResult{}, err
	}
	if namespace == "" {
		return IngestResult{}, ErrNamespaceRequired
	}

	recs, dups, failed, perr := s.prep.prepare(txs, namespace)
	res := IngestResult{Duplicates: dups, FailedKeys: failed}

	s.mu.Lock()
	for _, r := range recs {
		if _, ok := s.rows[r.key]; ok {
			res.Duplicates++
			continue
		}
		s.rows[r.key] = memRow{namespace: r.namespace, tx: r.tx}
		res.Inserted++
		res.InsertedKeys = append(res.InsertedKeys, r.key)
	}
	s.mu.Unlock()

	s.logger.Debug("ingested transactions",
		"namespace", namespace,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"failed", len(res.FailedKeys),
	)

	if perr != nil {
		return res, &IngestionError{Namespace: namespace, FailedKeys: res.FailedKeys, Err: perr}
	}
	return res, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (model.StandardTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[model.Lower(key)]
	if !ok {
		return model.StandardTransaction{}, ErrNotFound
	}
	return row.tx, nil
}

// ListRange implements Store.
func (s *MemoryStore) ListRange(ctx context.Context, namespace string, start, end int64) ([]model.StandardTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ns := model.Lower(namespace)

	s.mu.RLock()
	type keyed struct {
		key string
		tx  model.StandardTransaction
	}
	var matched []keyed
	for k, row := range s.rows {
		if row.namespace != ns || row.tx.Timestamp < start || row.tx.Timestamp >= end {
			continue
		}
		matched = append(matched, keyed{key: k, tx: row.tx})
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].tx.Timestamp != matched[j].tx.Timestamp {
			return matched[i].tx.Timestamp < matched[j].tx.Timestamp
		}
		return matched[i].key < matched[j].key
	})

	out := make([]model.StandardTransaction, len(matched))
	for i, m := range matched {
		out[i] = m.tx
	}
	return out, nil
}

// Len returns the number of stored transactions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
