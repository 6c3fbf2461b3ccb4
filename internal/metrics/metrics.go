package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Binding outcomes.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Ingestion outcomes.
const (
	OutcomeInserted  = "inserted"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// SyncMetrics records orchestrator activity. A nil *SyncMetrics is valid and
// records nothing.
type SyncMetrics struct {
	cycleDuration   prometheus.Histogram
	bindings        *prometheus.CounterVec
	bindingDuration *prometheus.HistogramVec
	ingested        *prometheus.CounterVec
}

// NewSyncMetrics creates the sync metrics and registers them with reg.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	m := &SyncMetrics{
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "partner_sync_cycle_duration_seconds",
			Help:    "Duration of a full sync cycle across all bindings.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		bindings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "partner_sync_binding_total",
			Help: "Binding sync attempts by partner and result.",
		}, []string{"partner_id", "result"}),
		bindingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "partner_sync_binding_duration_seconds",
			Help:    "Duration of one binding sync.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"partner_id"}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "partner_sync_ingested_total",
			Help: "Records handed to ingestion by partner and outcome.",
		}, []string{"partner_id", "outcome"}),
	}

	reg.MustRegister(m.cycleDuration, m.bindings, m.bindingDuration, m.ingested)
	return m
}

// ObserveCycle records a completed cycle.
func (m *SyncMetrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
}

// ObserveBinding records one binding sync.
func (m *SyncMetrics) ObserveBinding(partnerID string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if !ok {
		result = ResultFailure
	}
	m.bindings.WithLabelValues(partnerID, result).Inc()
	m.bindingDuration.WithLabelValues(partnerID).Observe(d.Seconds())
}

// AddIngested records ingestion outcomes for one binding.
func (m *SyncMetrics) AddIngested(partnerID string, inserted, duplicates, failed int) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(partnerID, OutcomeInserted).Add(float64(inserted))
	m.ingested.WithLabelValues(partnerID, OutcomeDuplicate).Add(float64(duplicates))
	m.ingested.WithLabelValues(partnerID, OutcomeFailed).Add(float64(failed))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
