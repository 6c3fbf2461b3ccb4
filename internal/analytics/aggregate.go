package analytics

import (
	"strings"
	"time"

	"github.com/rickgao/partner-reports/internal/model"
)

// Granularity is a bucket width.
type Granularity string

const (
	Hour  Granularity = "hour"
	Day   Granularity = "day"
	Month Granularity = "month"
)

// Truncate returns the start of the UTC bucket containing t.
func (g Granularity) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case Hour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// Next returns the start of the bucket following the one starting at t.
func (g Granularity) Next(t time.Time) time.Time {
	switch g {
	case Hour:
		return t.Add(time.Hour)
	case Day:
		return t.AddDate(0, 0, 1)
	case Month:
		return t.AddDate(0, 1, 0)
	default:
		return t
	}
}

// ParseGranularities selects granularities by substring, so "monthdayhour"
// selects all three. Matching is case-insensitive.
func ParseGranularities(s string) []Granularity {
	s = strings.ToLower(s)
	var out []Granularity
	for _, g := range []Granularity{Month, Day, Hour} {
		if strings.Contains(s, string(g)) {
			out = append(out, g)
		}
	}
	return out
}

// Result holds one bucket series per granularity. Series that were not
// requested are empty.
type Result struct {
	Month     []model.AnalyticsBucket `json:"month"`
	Day       []model.AnalyticsBucket `json:"day"`
	Hour      []model.AnalyticsBucket `json:"hour"`
	NumAllTxs int                     `json:"numAllTxs"`
}

// Series returns the bucket series for g.
func (r Result) Series(g Granularity) []model.AnalyticsBucket {
	switch g {
	case Hour:
		return r.Hour
	case Day:
		return r.Day
	case Month:
		return r.Month
	}
	return nil
}

// Aggregate buckets txs over [start, end). Transactions outside the window
// are ignored; input order does not matter.
func Aggregate(txs []model.StandardTransaction, start, end int64, grans []Granularity) Result {
	res := Result{
		Month: []model.AnalyticsBucket{},
		Day:   []model.AnalyticsBucket{},
		Hour:  []model.AnalyticsBucket{},
	}

	var inWindow []model.StandardTransaction
	for _, tx := range txs {
		if tx.Timestamp >= start && tx.Timestamp < end {
			inWindow = append(inWindow, tx)
		}
	}
	res.NumAllTxs = len(inWindow)

	for _, g := range grans {
		buckets := aggregateOne(inWindow, start, end, g)
		switch g {
		case Hour:
			res.Hour = buckets
		case Day:
			res.Day = buckets
		case Month:
			res.Month = buckets
		}
	}
	return res
}

func aggregateOne(txs []model.StandardTransaction, start, end int64, g Granularity) []model.AnalyticsBucket {
	buckets := []model.AnalyticsBucket{}
	if start >= end {
		return buckets
	}

	index := make(map[int64]int)
	for t := g.Truncate(time.Unix(start, 0)); t.Unix() < end; t = g.Next(t) {
		index[t.Unix()] = len(buckets)
		buckets = append(buckets, newBucket(t.Unix()))
	}

	for _, tx := range txs {
		i, ok := index[g.Truncate(tx.Time()).Unix()]
		if !ok {
			continue
		}
		b := &buckets[i]
		b.NumTxs++
		b.USDValue += tx.USD()
		b.CurrencyCodes[tx.DepositCurrency]++
		b.CurrencyCodes[tx.PayoutCurrency]++
		b.CurrencyPairs[tx.Pair()]++
	}
	return buckets
}

func newBucket(start int64) model.AnalyticsBucket {
	return model.AnalyticsBucket{
		Start:         start,
		ISODate:       model.ISODate(start),
		CurrencyCodes: make(map[string]int),
		CurrencyPairs: make(map[string]int),
	}
}

// Response is the analytics answer returned to API and CLI callers.
type Response struct {
	Result    Result `json:"result"`
	PartnerID string `json:"partnerId"`
	Start     int64  `json:"start"`
	End       int64  `json:"end"`
}

// GetAnalytics aggregates txs for the granularities named in granularities.
func GetAnalytics(txs []model.StandardTransaction, start, end int64, partnerID, granularities string) Response {
	return Response{
		Result:    Aggregate(txs, start, end, ParseGranularities(granularities)),
		PartnerID: partnerID,
		Start:     start,
		End:       end,
	}
}
