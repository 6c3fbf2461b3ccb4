package analytics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rickgao/partner-reports/internal/model"
)

func usd(v float64) *float64 { return &v }

func atx(orderID string, ts int64, value *float64, dep, pay string) model.StandardTransaction {
	return model.StandardTransaction{
		OrderID:         orderID,
		Status:          "complete",
		DepositCurrency: dep,
		PayoutCurrency:  pay,
		Timestamp:       ts,
		USDValue:        value,
	}
}

func unix(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix()
}

func TestAggregate_WorkedExample(t *testing.T) {
	txs := []model.StandardTransaction{
		atx("A1", 100, usd(10), "BTC", "ETH"),
		atx("A2", 3700, usd(5), "BTC", "ETH"),
	}

	res := Aggregate(txs, 0, 7200, []Granularity{Hour})

	if len(res.Hour) != 2 {
		t.Fatalf("len(Hour) = %d, want 2", len(res.Hour))
	}
	want := []struct {
		start  int64
		numTxs int
		usd    float64
	}{
		{0, 1, 10},
		{3600, 1, 5},
	}
	for i, w := range want {
		b := res.Hour[i]
		if b.Start != w.start || b.NumTxs != w.numTxs || b.USDValue != w.usd {
			t.Errorf("Hour[%d] = {start %d, numTxs %d, usd %v}, want {%d, %d, %v}",
				i, b.Start, b.NumTxs, b.USDValue, w.start, w.numTxs, w.usd)
		}
	}
	if res.NumAllTxs != 2 {
		t.Errorf("NumAllTxs = %d, want 2", res.NumAllTxs)
	}
	if len(res.Day) != 0 || len(res.Month) != 0 {
		t.Errorf("unrequested series not empty: day %d, month %d", len(res.Day), len(res.Month))
	}
}

func TestAggregate_BoundaryGoesToLaterBucket(t *testing.T) {
	tests := []struct {
		name string
		g    Granularity
		ts   int64
		end  int64
		want int
	}{
		{"hour", Hour, 3600, 7200, 1},
		{"day", Day, 86400, 2 * 86400, 1},
		{"month", Month, unix(2024, time.February, 1), unix(2024, time.March, 1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := tt.g.Truncate(time.Unix(tt.ts-1, 0)).Unix()
			res := Aggregate([]model.StandardTransaction{atx("x", tt.ts, nil, "BTC", "ETH")}, start, tt.end, []Granularity{tt.g})
			series := res.Series(tt.g)
			for i, b := range series {
				wantTxs := 0
				if i == tt.want {
					wantTxs = 1
				}
				if b.NumTxs != wantTxs {
					t.Errorf("bucket %d (start %d) NumTxs = %d, want %d", i, b.Start, b.NumTxs, wantTxs)
				}
			}
		})
	}
}

func TestAggregate_BucketCompleteness(t *testing.T) {
	tests := []struct {
		name       string
		g          Granularity
		start, end int64
		want       int
	}{
		{"aligned hours", Hour, 0, 10 * 3600, 10},
		{"unaligned hour start", Hour, 1800, 3 * 3600, 3},
		{"days", Day, 3*86400 + 100, 5 * 86400, 2},
		{"months", Month, unix(2024, time.January, 15), unix(2024, time.April, 1), 3},
		{"months across year", Month, unix(2023, time.December, 1), unix(2024, time.February, 2), 3},
		{"empty window", Day, 86400, 86400, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Aggregate(nil, tt.start, tt.end, []Granularity{tt.g})
			series := res.Series(tt.g)
			if len(series) != tt.want {
				t.Fatalf("buckets = %d, want %d", len(series), tt.want)
			}
			for i, b := range series {
				if b.CurrencyCodes == nil || b.CurrencyPairs == nil {
					t.Errorf("bucket %d has nil maps", i)
				}
				if b.NumTxs != 0 || b.USDValue != 0 {
					t.Errorf("bucket %d not zeroed: %+v", i, b)
				}
				if i > 0 && tt.g.Next(time.Unix(series[i-1].Start, 0).UTC()).Unix() != b.Start {
					t.Errorf("bucket %d start %d does not follow %d", i, b.Start, series[i-1].Start)
				}
			}
		})
	}
}

func TestAggregate_MissingUSDStillCounted(t *testing.T) {
	txs := []model.StandardTransaction{
		atx("priced", 10, usd(7.5), "BTC", "ETH"),
		atx("unpriced", 20, nil, "BTC", "ETH"),
	}

	res := Aggregate(txs, 0, 3600, []Granularity{Hour})
	b := res.Hour[0]
	if b.NumTxs != 2 {
		t.Errorf("NumTxs = %d, want 2", b.NumTxs)
	}
	if b.USDValue != 7.5 {
		t.Errorf("USDValue = %v, want 7.5", b.USDValue)
	}
}

func TestAggregate_CurrencyMaps(t *testing.T) {
	txs := []model.StandardTransaction{
		atx("1", 10, nil, "BTC", "ETH"),
		atx("2", 20, nil, "BTC", "ETH"),
		atx("3", 30, nil, "ETH", "USDT"),
	}

	res := Aggregate(txs, 0, 86400, []Granularity{Day})
	b := res.Day[0]

	wantCodes := map[string]int{"BTC": 2, "ETH": 3, "USDT": 1}
	if diff := cmp.Diff(wantCodes, b.CurrencyCodes); diff != "" {
		t.Errorf("CurrencyCodes mismatch (-want +got):\n%s", diff)
	}
	wantPairs := map[string]int{"BTC/ETH": 2, "ETH/USDT": 1}
	if diff := cmp.Diff(wantPairs, b.CurrencyPairs); diff != "" {
		t.Errorf("CurrencyPairs mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_IgnoresOutOfWindow(t *testing.T) {
	txs := []model.StandardTransaction{
		atx("early", 50, usd(1), "BTC", "ETH"),
		atx("inside", 150, usd(2), "BTC", "ETH"),
		atx("atEnd", 3600, usd(4), "BTC", "ETH"),
	}

	res := Aggregate(txs, 100, 3600, []Granularity{Hour})
	if res.NumAllTxs != 1 {
		t.Errorf("NumAllTxs = %d, want 1", res.NumAllTxs)
	}
	if len(res.Hour) != 1 || res.Hour[0].USDValue != 2 {
		t.Errorf("Hour = %+v, want one bucket with usd 2", res.Hour)
	}
}

func TestAggregate_AllGranularitiesAgree(t *testing.T) {
	start, end := unix(2024, time.March, 1), unix(2024, time.March, 3)
	txs := []model.StandardTransaction{
		atx("1", start+10, usd(1), "BTC", "ETH"),
		atx("2", start+86400+7200, usd(2), "BTC", "ETH"),
	}

	res := Aggregate(txs, start, end, []Granularity{Month, Day, Hour})
	if len(res.Hour) != 48 || len(res.Day) != 2 || len(res.Month) != 1 {
		t.Fatalf("series lengths = %d/%d/%d, want 48/2/1", len(res.Hour), len(res.Day), len(res.Month))
	}
	for _, g := range []Granularity{Month, Day, Hour} {
		var n int
		var total float64
		for _, b := range res.Series(g) {
			n += b.NumTxs
			total += b.USDValue
		}
		if n != 2 || total != 3 {
			t.Errorf("%s totals = %d txs / %v usd, want 2 / 3", g, n, total)
		}
	}
	if res.Month[0].ISODate != "2024-03-01T00:00:00.000Z" {
		t.Errorf("Month[0].ISODate = %q", res.Month[0].ISODate)
	}
}

func TestParseGranularities(t *testing.T) {
	tests := []struct {
		in   string
		want []Granularity
	}{
		{"hour", []Granularity{Hour}},
		{"monthdayhour", []Granularity{Month, Day, Hour}},
		{"DayMonth", []Granularity{Month, Day}},
		{"week", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := ParseGranularities(tt.in)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseGranularities(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestGetAnalytics(t *testing.T) {
	txs := []model.StandardTransaction{atx("A1", 100, usd(10), "BTC", "ETH")}

	resp := GetAnalytics(txs, 0, 7200, "edge_sideshift", "hour")
	if resp.PartnerID != "edge_sideshift" || resp.Start != 0 || resp.End != 7200 {
		t.Errorf("header = %+v", resp)
	}
	if len(resp.Result.Hour) != 2 {
		t.Errorf("len(Hour) = %d, want 2", len(resp.Result.Hour))
	}
}
