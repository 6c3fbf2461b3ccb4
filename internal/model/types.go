package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

// StandardTransaction is a single completed swap normalized from a partner's
// native record. It is immutable once stored.
type StandardTransaction struct {
	OrderID string `json:"orderId" validate:"required"` // Partner's order identifier
	Status  string `json:"status" validate:"required"`  // Always "complete" for ingested records

	DepositTxid     string          `json:"depositTxid,omitempty"`
	DepositAddress  string          `json:"depositAddress,omitempty"`
	DepositCurrency string          `json:"depositCurrency" validate:"required"`
	DepositAmount   decimal.Decimal `json:"depositAmount"`

	PayoutTxid     string          `json:"payoutTxid,omitempty"`
	PayoutAddress  string          `json:"payoutAddress,omitempty"`
	PayoutCurrency string          `json:"payoutCurrency" validate:"required"`
	PayoutAmount   decimal.Decimal `json:"payoutAmount"`

	Timestamp int64  `json:"timestamp" validate:"gte=0"` // Seconds since epoch
	ISODate   string `json:"isoDate"`                    // Same instant as Timestamp, RFC 3339 UTC

	USDValue *float64        `json:"usdValue,omitempty"` // Filled by the pricing collaborator
	RawTx    json.RawMessage `json:"rawTx,omitempty"`    // Partner's native record, verbatim
}

// Time returns the transaction timestamp as a UTC time.
func (t StandardTransaction) Time() time.Time {
	return time.Unix(t.Timestamp, 0).UTC()
}

// ISOLayout formats instants the way partner APIs and reports expect them.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// ISODate formats a Unix timestamp in seconds as an ISO 8601 UTC string.
func ISODate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(ISOLayout)
}

// Pair returns the "<deposit>/<payout>" currency pair label.
func (t StandardTransaction) Pair() string {
	return t.DepositCurrency + "/" + t.PayoutCurrency
}

// USD returns the USD value, or 0 when the transaction is unpriced.
func (t StandardTransaction) USD() float64 {
	if t.USDValue == nil {
		return 0
	}
	return *t.USDValue
}

// -----------------------------------------------------------------------------
// Apps and bindings
// -----------------------------------------------------------------------------

// Credentials are the opaque per-binding secrets a partner adapter needs.
type Credentials map[string]string

// App is a registered integrator and the partners it is bound to.
type App struct {
	AppID    string                 `json:"appId"`
	Partners map[string]Credentials `json:"partners"` // partnerId -> credentials
}

// Binding pairs one app with one partner. It is the unit of sync work.
type Binding struct {
	AppID       string
	PartnerID   string
	Credentials Credentials
}

// Namespace returns the storage partition for the binding.
func (b Binding) Namespace() string {
	return Namespace(b.AppID, b.PartnerID)
}

// -----------------------------------------------------------------------------
// Cursor state
// -----------------------------------------------------------------------------

// CursorState is the adapter-defined progress marker for one binding.
// The engine stores and returns it without interpreting its contents.
type CursorState map[string]any

// Clone returns a shallow copy so adapters cannot mutate a caller's value.
func (s CursorState) Clone() CursorState {
	out := make(CursorState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Int64 reads a numeric field. Values decoded from JSON arrive as float64,
// values set in-process may be any integer type.
func (s CursorState) Int64(key string) (int64, bool) {
	switch v := s[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	default:
		return 0, false
	}
}

// -----------------------------------------------------------------------------
// Analytics
// -----------------------------------------------------------------------------

// AnalyticsBucket summarizes the transactions in one UTC-aligned interval.
type AnalyticsBucket struct {
	Start         int64          `json:"start"` // Bucket start, seconds since epoch
	ISODate       string         `json:"isoDate"`
	USDValue      float64        `json:"usdValue"`
	NumTxs        int            `json:"numTxs"`
	CurrencyCodes map[string]int `json:"currencyCodes"` // currency -> occurrences as deposit or payout
	CurrencyPairs map[string]int `json:"currencyPairs"` // "DEP/PAY" -> count
}
