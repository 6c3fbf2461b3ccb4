package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/rickgao/partner-reports/internal/model"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const insertSQL = `
	INSERT INTO transactions (
		storage_key, namespace, order_id, status,
		deposit_txid, deposit_address, deposit_currency, deposit_amount,
		payout_txid, payout_address, payout_currency, payout_amount,
		ts, iso_date, usd_value, raw_tx
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (storage_key) DO NOTHING
`

const existingKeysSQL = `SELECT storage_key FROM transactions WHERE storage_key = ANY($1)`

var selectColumns = []string{
	"order_id",
	"status",
	"deposit_txid",
	"deposit_address",
	"deposit_currency",
	"deposit_amount::text",
	"payout_txid",
	"payout_address",
	"payout_currency",
	"payout_amount::text",
	"ts",
	"iso_date",
	"usd_value",
	"raw_tx",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists transactions in the transactions table.
type PostgresStore struct {
	db        DB
	prep      *preparer
	chunkSize int
	logger    *slog.Logger
}

// NewPostgresStore creates a PostgresStore on top of db.
func NewPostgresStore(db DB, opts ...Option) *PostgresStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &PostgresStore{
		db:        db,
		prep:      newPreparer(o.currencies),
		chunkSize: o.chunkSize,
		logger:    o.logger,
	}
}

// Ingest implements Store.
//
// Keys already present are filtered out with one lookup, then the survivors are
// inserted in chunks. The unique storage key stays the source of truth: a row
// inserted concurrently between lookup and insert is counted as a duplicate.
// A chunk that fails as a whole is retried row by row to isolate bad records.
// A row failing for any reason other than its own data aborts the call with a
// plain error, since the store itself is then unusable.
func (s *PostgresStore) Ingest(ctx context.Context, txs []model.StandardTransaction, namespace string) (IngestResult, error) {
	if namespace == "" {
		return IngestResult{}, ErrNamespaceRequired
	}
	start := time.Now()

	recs, dups, failed, perr := s.prep.prepare(txs, namespace)
	res := IngestResult{Duplicates: dups, FailedKeys: failed}

	var merr *multierror.Error
	if perr != nil {
		merr = multierror.Append(merr, perr)
	}

	recs, existing := s.dropExisting(ctx, recs)
	res.Duplicates += existing

	for _, chunk := range chunks(recs, s.chunkSize) {
		inserted, conflicts, err := s.insertBatch(ctx, chunk)
		if err == nil {
			res.Inserted += len(inserted)
			res.InsertedKeys = append(res.InsertedKeys, inserted...)
			res.Duplicates += conflicts
			continue
		}

		s.logger.Warn("batch insert failed, retrying rows individually",
			"namespace", namespace,
			"count", len(chunk),
			"error", err,
		)
		for _, r := range chunk {
			ok, err := s.insertOne(ctx, r)
			switch {
			case err != nil && !isRecordError(err):
				return res, fmt.Errorf("ingest %s: insert %s: %w", namespace, r.key, err)
			case err != nil:
				res.FailedKeys = append(res.FailedKeys, r.key)
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.key, err))
			case ok:
				res.Inserted++
				res.InsertedKeys = append(res.InsertedKeys, r.key)
			default:
				res.Duplicates++
			}
		}
	}

	s.logger.Debug("ingested transactions",
		"namespace", namespace,
		"inserted", res.Inserted,
		"duplicates", res.Duplicates,
		"failed", len(res.FailedKeys),
		"duration", time.Since(start),
	)

	if err := merr.ErrorOrNil(); err != nil {
		return res, &IngestionError{Namespace: namespace, FailedKeys: res.FailedKeys, Err: err}
	}
	return res, nil
}

// dropExisting removes records whose key is already stored. A failed lookup
// is not fatal since the insert itself ignores conflicts.
func (s *PostgresStore) dropExisting(ctx context.Context, recs []record) ([]record, int) {
	if len(recs) == 0 {
		return recs, 0
	}

	keys := make([]string, len(recs))
	for i, r := range recs {
		keys[i] = r.key
	}

	rows, err := s.db.Query(ctx, existingKeysSQL, keys)
	if err != nil {
		s.logger.Warn("existing key lookup failed", "error", err, "count", len(keys))
		return recs, 0
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		s.logger.Warn("existing key lookup failed", "error", err, "count", len(keys))
		return recs, 0
	}
	if len(found) == 0 {
		return recs, 0
	}

	exists := make(map[string]struct{}, len(found))
	for _, k := range found {
		exists[k] = struct{}{}
	}
	out := recs[:0:0]
	for _, r := range recs {
		if _, ok := exists[r.key]; !ok {
			out = append(out, r)
		}
	}
	return out, len(recs) - len(out)
}

// insertBatch inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
// The batch runs as one implicit transaction, so on error nothing was written.
func (s *PostgresStore) insertBatch(ctx context.Context, rows []record) (inserted []string, conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertSQL, insertArgs(r)...)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted = make([]string, 0, len(rows))
	for _, r := range rows {
		ct, err := results.Exec()
		if err != nil {
			return nil, 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
			continue
		}
		inserted = append(inserted, r.key)
	}

	return inserted, conflicts, nil
}

func (s *PostgresStore) insertOne(ctx context.Context, r record) (bool, error) {
	ct, err := s.db.Exec(ctx, insertSQL, insertArgs(r)...)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func insertArgs(r record) []any {
	tx := r.tx
	var raw []byte
	if len(tx.RawTx) > 0 {
		raw = tx.RawTx
	}
	return []any{
		r.key,
		r.namespace,
		tx.OrderID,
		tx.Status,
		nullString(tx.DepositTxid),
		nullString(tx.DepositAddress),
		tx.DepositCurrency,
		tx.DepositAmount.String(),
		nullString(tx.PayoutTxid),
		nullString(tx.PayoutAddress),
		tx.PayoutCurrency,
		tx.PayoutAmount.String(),
		tx.Timestamp,
		tx.ISODate,
		tx.USDValue,
		raw,
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, key string) (model.StandardTransaction, error) {
	query, args, err := psql.Select(selectColumns...).
		From("transactions").
		Where(sq.Eq{"storage_key": model.Lower(key)}).
		ToSql()
	if err != nil {
		return model.StandardTransaction{}, fmt.Errorf("build query: %w", err)
	}

	tx, err := scanTransaction(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.StandardTransaction{}, ErrNotFound
	}
	if err != nil {
		return model.StandardTransaction{}, fmt.Errorf("get transaction %s: %w", key, err)
	}
	return tx, nil
}

// ListRange implements Store.
func (s *PostgresStore) ListRange(ctx context.Context, namespace string, start, end int64) ([]model.StandardTransaction, error) {
	query, args, err := rangeQuery(namespace, start, end)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []model.StandardTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func rangeQuery(namespace string, start, end int64) (string, []any, error) {
	return psql.Select(selectColumns...).
		From("transactions").
		Where(sq.And{
			sq.Eq{"namespace": model.Lower(namespace)},
			sq.GtOrEq{"ts": start},
			sq.Lt{"ts": end},
		}).
		OrderBy("ts ASC", "storage_key ASC").
		ToSql()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (model.StandardTransaction, error) {
	var (
		tx                          model.StandardTransaction
		depositTxid, depositAddress *string
		payoutTxid, payoutAddress   *string
		depositAmount, payoutAmount string
		raw                         []byte
	)
	err := row.Scan(
		&tx.OrderID,
		&tx.Status,
		&depositTxid,
		&depositAddress,
		&tx.DepositCurrency,
		&depositAmount,
		&payoutTxid,
		&payoutAddress,
		&tx.PayoutCurrency,
		&payoutAmount,
		&tx.Timestamp,
		&tx.ISODate,
		&tx.USDValue,
		&raw,
	)
	if err != nil {
		return model.StandardTransaction{}, err
	}

	if tx.DepositAmount, err = decimal.NewFromString(depositAmount); err != nil {
		return model.StandardTransaction{}, fmt.Errorf("parse deposit amount %q: %w", depositAmount, err)
	}
	if tx.PayoutAmount, err = decimal.NewFromString(payoutAmount); err != nil {
		return model.StandardTransaction{}, fmt.Errorf("parse payout amount %q: %w", payoutAmount, err)
	}
	tx.DepositTxid = deref(depositTxid)
	tx.DepositAddress = deref(depositAddress)
	tx.PayoutTxid = deref(payoutTxid)
	tx.PayoutAddress = deref(payoutAddress)
	if len(raw) > 0 {
		tx.RawTx = raw
	}
	return tx, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
