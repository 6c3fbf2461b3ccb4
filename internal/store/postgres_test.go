package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/partner-reports/internal/model"
)

// fakeDB emulates the transactions table: a set of keys plus keys that
// always fail to insert. execErr makes every write fail.
type fakeDB struct {
	mu        sync.Mutex
	keys      map[string]bool
	failKeys  map[string]bool
	lookupErr error
	execErr   error
	batches   int
	singles   int
}

var errValueTooLong = &pgconn.PgError{Code: "22001", Message: "value too long for type character varying(64)"}

func newFakeDB() *fakeDB {
	return &fakeDB{keys: map[string]bool{}, failKeys: map[string]bool{}}
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var found []string
	for _, k := range args[0].([]string) {
		if f.keys[k] {
			found = append(found, k)
		}
	}
	return &fakeRows{vals: found}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return fakeRow{err: pgx.ErrNoRows}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.singles++
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return f.insert(args[0].(string))
}

func (f *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	if f.execErr != nil {
		return &fakeBatchResults{err: f.execErr}
	}

	// all-or-nothing, like an implicit transaction
	for _, q := range b.QueuedQueries {
		if f.failKeys[q.Arguments[0].(string)] {
			return &fakeBatchResults{err: errValueTooLong}
		}
	}
	var tags []pgconn.CommandTag
	for _, q := range b.QueuedQueries {
		tag, _ := f.insert(q.Arguments[0].(string))
		tags = append(tags, tag)
	}
	return &fakeBatchResults{tags: tags}
}

func (f *fakeDB) insert(key string) (pgconn.CommandTag, error) {
	if f.failKeys[key] {
		return pgconn.CommandTag{}, errValueTooLong
	}
	if f.keys[key] {
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}
	f.keys[key] = true
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

type fakeBatchResults struct {
	tags []pgconn.CommandTag
	err  error
	i    int
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	if r.err != nil {
		return pgconn.CommandTag{}, r.err
	}
	tag := r.tags[r.i]
	r.i++
	return tag, nil
}

func (r *fakeBatchResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (r *fakeBatchResults) QueryRow() pgx.Row       { return fakeRow{err: errors.New("not implemented")} }
func (r *fakeBatchResults) Close() error            { return nil }

type fakeRow struct{ err error }

func (r fakeRow) Scan(dest ...any) error { return r.err }

type fakeRows struct {
	vals []string
	i    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return []any{r.vals[r.i-1]}, nil }
func (r *fakeRows) RawValues() [][]byte                          { return [][]byte{[]byte(r.vals[r.i-1])} }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.i < len(r.vals) {
		r.i++
		return true
	}
	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	*dest[0].(*string) = r.vals[r.i-1]
	return nil
}

func TestPostgresStore_Ingest(t *testing.T) {
	db := newFakeDB()
	s := NewPostgresStore(db, WithChunkSize(2))
	txs := []model.StandardTransaction{testTx("a", 1), testTx("b", 2), testTx("c", 3)}

	res, err := s.Ingest(context.Background(), txs, "ns")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Inserted != 3 {
		t.Errorf("Inserted = %d, want 3", res.Inserted)
	}
	if db.batches != 2 {
		t.Errorf("batches = %d, want 2", db.batches)
	}
	if diff := cmp.Diff([]string{"ns:a", "ns:b", "ns:c"}, res.InsertedKeys); diff != "" {
		t.Errorf("InsertedKeys mismatch (-want +got):\n%s", diff)
	}
}

func TestPostgresStore_IngestSkipsExisting(t *testing.T) {
	db := newFakeDB()
	db.keys["ns:a"] = true
	s := NewPostgresStore(db)

	res, err := s.Ingest(context.Background(), []model.StandardTransaction{testTx("A", 1), testTx("b", 2)}, "ns")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Inserted != 1 || res.Duplicates != 1 {
		t.Errorf("Ingest = %+v, want 1 inserted, 1 duplicate", res)
	}
}

func TestPostgresStore_LookupFailureFallsBackToConflicts(t *testing.T) {
	db := newFakeDB()
	db.keys["ns:a"] = true
	db.lookupErr = errors.New("connection reset")
	s := NewPostgresStore(db)

	res, err := s.Ingest(context.Background(), []model.StandardTransaction{testTx("a", 1), testTx("b", 2)}, "ns")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Inserted != 1 || res.Duplicates != 1 {
		t.Errorf("Ingest = %+v, want 1 inserted, 1 duplicate", res)
	}
}

func TestPostgresStore_PartialFailure(t *testing.T) {
	db := newFakeDB()
	db.failKeys["ns:b"] = true
	s := NewPostgresStore(db, WithChunkSize(10))

	res, err := s.Ingest(context.Background(), []model.StandardTransaction{testTx("a", 1), testTx("b", 2), testTx("c", 3)}, "ns")

	var ierr *IngestionError
	if !errors.As(err, &ierr) {
		t.Fatalf("error = %v, want *IngestionError", err)
	}
	if ierr.Namespace != "ns" {
		t.Errorf("Namespace = %q, want %q", ierr.Namespace, "ns")
	}
	if diff := cmp.Diff([]string{"ns:b"}, ierr.FailedKeys); diff != "" {
		t.Errorf("FailedKeys mismatch (-want +got):\n%s", diff)
	}
	if res.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", res.Inserted)
	}
	if !db.keys["ns:a"] || !db.keys["ns:c"] {
		t.Error("healthy records were not written")
	}
	if db.singles != 3 {
		t.Errorf("single-row inserts = %d, want 3", db.singles)
	}
}

func TestPostgresStore_StoreFailureIsNotPerRecord(t *testing.T) {
	db := newFakeDB()
	connErr := errors.New("connection refused")
	db.execErr = connErr
	s := NewPostgresStore(db)

	_, err := s.Ingest(context.Background(), []model.StandardTransaction{testTx("a", 1), testTx("b", 2)}, "ns")
	if !errors.Is(err, connErr) {
		t.Fatalf("error = %v, want wrapped connection error", err)
	}
	var ierr *IngestionError
	if errors.As(err, &ierr) {
		t.Errorf("error = %v, want a plain error, not *IngestionError", err)
	}
	if db.singles != 1 {
		t.Errorf("single-row inserts = %d, want 1 (abort on first store failure)", db.singles)
	}
}

func TestPostgresStore_EmptyNamespace(t *testing.T) {
	s := NewPostgresStore(newFakeDB())
	if _, err := s.Ingest(context.Background(), []model.StandardTransaction{testTx("a", 1)}, ""); !errors.Is(err, ErrNamespaceRequired) {
		t.Errorf("Ingest() error = %v, want ErrNamespaceRequired", err)
	}
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	s := NewPostgresStore(newFakeDB())
	_, err := s.Get(context.Background(), "ns:missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestRangeQuery(t *testing.T) {
	query, args, err := rangeQuery("Edge_Sideshift", 100, 200)
	if err != nil {
		t.Fatalf("rangeQuery: %v", err)
	}

	for _, frag := range []string{
		"FROM transactions",
		"namespace = $1",
		"ts >= $2",
		"ts < $3",
		"ORDER BY ts ASC, storage_key ASC",
	} {
		if !strings.Contains(query, frag) {
			t.Errorf("query %q missing %q", query, frag)
		}
	}
	if diff := cmp.Diff([]any{"edge_sideshift", int64(100), int64(200)}, args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertArgs(t *testing.T) {
	tx := testTx("o1", 1704067200)
	tx.DepositAddress = "bc1qxyz"
	tx.ISODate = model.ISODate(tx.Timestamp)
	args := insertArgs(record{key: "ns:o1", namespace: "ns", tx: tx})

	if len(args) != 16 {
		t.Fatalf("len(args) = %d, want 16", len(args))
	}
	if args[0] != "ns:o1" {
		t.Errorf("storage_key = %v, want ns:o1", args[0])
	}
	if args[4].(*string) != nil {
		t.Errorf("deposit_txid = %v, want nil", args[4])
	}
	if got := *args[5].(*string); got != "bc1qxyz" {
		t.Errorf("deposit_address = %q, want bc1qxyz", got)
	}
	if args[7] != "0.5" {
		t.Errorf("deposit_amount = %v, want 0.5", args[7])
	}
	if args[15].([]byte) != nil {
		t.Errorf("raw_tx = %v, want nil", args[15])
	}
}
