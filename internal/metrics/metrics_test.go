package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSyncMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.ObserveBinding("sideshift", true, time.Second)
	m.ObserveBinding("sideshift", false, time.Second)
	m.ObserveBinding("sideshift", false, time.Second)
	m.AddIngested("sideshift", 5, 2, 1)
	m.ObserveCycle(time.Minute)

	if got := testutil.ToFloat64(m.bindings.WithLabelValues("sideshift", ResultFailure)); got != 2 {
		t.Errorf("failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ingested.WithLabelValues("sideshift", OutcomeInserted)); got != 5 {
		t.Errorf("inserted = %v, want 5", got)
	}
	if got := testutil.CollectAndCount(m.cycleDuration); got != 1 {
		t.Errorf("cycle histogram series = %d, want 1", got)
	}
}

func TestSyncMetrics_Nil(t *testing.T) {
	var m *SyncMetrics
	m.ObserveCycle(time.Second)
	m.ObserveBinding("x", true, time.Second)
	m.AddIngested("x", 1, 1, 1)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)
	m.ObserveBinding("sideshift", true, time.Second)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `partner_sync_binding_total{partner_id="sideshift",result="success"} 1`) {
		t.Errorf("metrics output missing binding counter:\n%s", rec.Body.String())
	}
}
