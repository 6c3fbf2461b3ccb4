package store

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/partner-reports/internal/model"
)

// record is a normalized transaction ready to be written.
type record struct {
	key       string
	namespace string
	tx        model.StandardTransaction
}

type preparer struct {
	currencies model.CurrencyTable
	validate   *validator.Validate
}

func newPreparer(currencies model.CurrencyTable) *preparer {
	return &preparer{
		currencies: currencies,
		validate:   validator.New(),
	}
}

// prepare normalizes txs and drops in-batch duplicates, keeping the first
// occurrence of each key. Records that fail validation are returned as failed
// keys with a combined error.
func (p *preparer) prepare(txs []model.StandardTransaction, namespace string) (recs []record, dups int, failed []string, err error) {
	ns := model.Lower(namespace)

	var merr *multierror.Error
	seen := make(map[string]struct{}, len(txs))
	recs = make([]record, 0, len(txs))

	for _, tx := range txs {
		tx.OrderID = model.Lower(tx.OrderID)
		key := model.StorageKey(ns, tx.OrderID)
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}

		tx.DepositCurrency = p.currencies.Canonical(tx.DepositCurrency)
		tx.PayoutCurrency = p.currencies.Canonical(tx.PayoutCurrency)
		if tx.ISODate == "" {
			tx.ISODate = model.ISODate(tx.Timestamp)
		}
		tx.RawTx = bytes.Clone(tx.RawTx)
		if tx.USDValue != nil {
			v := *tx.USDValue
			tx.USDValue = &v
		}

		if verr := p.validate.Struct(tx); verr != nil {
			failed = append(failed, key)
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", key, verr))
			continue
		}

		recs = append(recs, record{key: key, namespace: ns, tx: tx})
	}

	return recs, dups, failed, merr.ErrorOrNil()
}

func chunks(recs []record, size int) [][]record {
	var out [][]record
	for size < len(recs) {
		recs, out = recs[size:], append(out, recs[:size])
	}
	if len(recs) > 0 {
		out = append(out, recs)
	}
	return out
}

// isRecordError reports whether err rejects one row rather than the whole
// write: Postgres data exceptions (class 22) and integrity violations (class 23).
func isRecordError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
}
