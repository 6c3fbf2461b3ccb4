package partner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/partner-reports/internal/model"
)

// StatusComplete is the only status ingested.
const StatusComplete = "complete"

// IsTerminal reports whether a normalized status marks a finished swap.
func IsTerminal(status string) bool {
	return strings.EqualFold(status, StatusComplete)
}

// Cursor fields shared by timestamp-paged adapters.
const (
	FieldLatestTimestamp = "latestTimestamp"
	FieldOffset          = "offset"
	FieldPending         = "pendingTimestamp"
)

// TimestampCursor is the common cursor shape: the newest transaction time
// fully synced so far. An adapter that stops paging before reaching
// the lookback window records where to resume in Offset and the newest time
// seen in Pending; LatestTimestamp only moves once that backlog is drained.
type TimestampCursor struct {
	LatestTimestamp int64
	Offset          int64
	Pending         int64
}

// DecodeTimestampCursor reads a TimestampCursor from state. Missing fields are zero.
func DecodeTimestampCursor(state model.CursorState) TimestampCursor {
	var c TimestampCursor
	c.LatestTimestamp, _ = state.Int64(FieldLatestTimestamp)
	c.Offset, _ = state.Int64(FieldOffset)
	c.Pending, _ = state.Int64(FieldPending)
	return c
}

// State encodes the cursor for persistence.
func (c TimestampCursor) State() model.CursorState {
	s := model.CursorState{FieldLatestTimestamp: c.LatestTimestamp}
	if c.Offset != 0 {
		s[FieldOffset] = c.Offset
	}
	if c.Pending != 0 {
		s[FieldPending] = c.Pending
	}
	return s
}

// Resuming reports whether a previous fetch left a backlog.
func (c TimestampCursor) Resuming() bool {
	return c.Offset > 0
}

// Observe advances LatestTimestamp to ts if it is newer.
func (c *TimestampCursor) Observe(ts int64) {
	if ts > c.LatestTimestamp {
		c.LatestTimestamp = ts
	}
}

// LookbackStart returns the earliest timestamp an adapter must re-read when
// resuming from latest. It never goes below zero.
func LookbackStart(latest int64, lookback time.Duration) int64 {
	start := latest - int64(lookback/time.Second)
	if start < 0 {
		return 0
	}
	return start
}

// ParseAmount converts a partner-supplied amount to a decimal. Partners send
// amounts as JSON numbers or strings.
func ParseAmount(v any) (decimal.Decimal, error) {
	switch a := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return a, nil
	case string:
		if a == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(a)
	case json.Number:
		return decimal.NewFromString(a.String())
	case float64:
		return decimal.NewFromFloat(a), nil
	case int64:
		return decimal.NewFromInt(a), nil
	case int:
		return decimal.NewFromInt(int64(a)), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
}

// ParseTime parses an RFC 3339 timestamp and returns Unix seconds and the
// normalized ISO date.
func ParseTime(s string) (int64, string, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, "", fmt.Errorf("parse time %q: %w", s, err)
	}
	ts := t.Unix()
	return ts, model.ISODate(ts), nil
}
