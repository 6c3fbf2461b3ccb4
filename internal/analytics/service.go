package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rickgao/partner-reports/internal/model"
	"github.com/rickgao/partner-reports/internal/store"
)

// ErrInvalidQuery is wrapped by every Query validation failure.
var ErrInvalidQuery = errors.New("invalid analytics query")

// MaxBuckets caps how many buckets one series of a query may produce.
const MaxBuckets = 10000

// bucketSeconds is the shortest length of a bucket of each granularity.
var bucketSeconds = map[Granularity]int64{
	Month: 28 * 24 * 3600,
	Day:   24 * 3600,
	Hour:  3600,
}

// Reader is the read side of a transaction store.
type Reader interface {
	Get(ctx context.Context, key string) (model.StandardTransaction, error)
	ListRange(ctx context.Context, namespace string, start, end int64) ([]model.StandardTransaction, error)
}

// Query asks for analytics over one partner namespace.
type Query struct {
	PartnerID   string // Namespace, "<appId>_<partnerId>"
	Start       int64
	End         int64
	Granularity string // Any mix of "month", "day", "hour"
}

// Validate checks the query bounds and granularity.
func (q Query) Validate() error {
	switch {
	case q.PartnerID == "":
		return fmt.Errorf("%w: partner id is required", ErrInvalidQuery)
	case q.Start <= 0 || q.End <= 0:
		return fmt.Errorf("%w: start and end must be positive", ErrInvalidQuery)
	case q.Start > q.End:
		return fmt.Errorf("%w: start must be less than end", ErrInvalidQuery)
	}
	grans := ParseGranularities(q.Granularity)
	if len(grans) == 0 {
		return fmt.Errorf("%w: granularity must include month, day or hour", ErrInvalidQuery)
	}
	for _, g := range grans {
		if (q.End-q.Start)/bucketSeconds[g]+1 > MaxBuckets {
			return fmt.Errorf("%w: %s series spans more than %d buckets", ErrInvalidQuery, g, MaxBuckets)
		}
	}
	return nil
}

// CheckTxResult is the stored USD value of one order. USDValue is nil when
// the order is unknown or not yet priced.
type CheckTxResult struct {
	PartnerID string   `json:"partnerId"`
	OrderID   string   `json:"orderId"`
	USDValue  *float64 `json:"usdValue,omitempty"`
}

// Service answers analytics and lookup queries from a store.
type Service struct {
	reader Reader
	logger *slog.Logger
}

// NewService creates a Service reading from r.
func NewService(r Reader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reader: r, logger: logger}
}

// Query validates q, reads its window and aggregates it.
func (s *Service) Query(ctx context.Context, q Query) (Response, error) {
	if err := q.Validate(); err != nil {
		return Response{}, err
	}

	start := time.Now()
	txs, err := s.reader.ListRange(ctx, q.PartnerID, q.Start, q.End)
	if err != nil {
		return Response{}, fmt.Errorf("list transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp < txs[j].Timestamp
	})

	resp := GetAnalytics(txs, q.Start, q.End, q.PartnerID, q.Granularity)
	s.logger.Debug("analytics query",
		"partner_id", q.PartnerID,
		"txs", resp.Result.NumAllTxs,
		"duration", time.Since(start),
	)
	return resp, nil
}

// CheckTx looks up the USD value stored for an order.
func (s *Service) CheckTx(ctx context.Context, partnerID, orderID string) (CheckTxResult, error) {
	out := CheckTxResult{PartnerID: partnerID, OrderID: orderID}

	tx, err := s.reader.Get(ctx, model.StorageKey(partnerID, orderID))
	if errors.Is(err, store.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("get transaction: %w", err)
	}
	out.USDValue = tx.USDValue
	return out, nil
}
