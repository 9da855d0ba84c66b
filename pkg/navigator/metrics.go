package navigator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is optional; a nil *Metrics records nothing.
type Metrics struct {
	stageDuration     *prometheus.HistogramVec
	fallbacks         *prometheus.CounterVec
	recordStoreErrors *prometheus.CounterVec
	runs              *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ehr_navigator",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ehr_navigator",
			Name:      "fallbacks_total",
			Help:      "Stage fallbacks taken after a model or parse failure.",
		}, []string{"stage", "reason"}),
		recordStoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ehr_navigator",
			Name:      "record_store_errors_total",
			Help:      "Failed record store queries by resource type.",
		}, []string{"resource_type"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ehr_navigator",
			Name:      "runs_total",
			Help:      "Completed navigation runs.",
		}, []string{"mode", "outcome"}),
	}
}

func (m *Metrics) observeStage(stage StageName, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

func (m *Metrics) fallback(stage StageName, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(string(stage), reason).Inc()
}

func (m *Metrics) recordStoreError(resourceType string) {
	if m == nil {
		return
	}
	m.recordStoreErrors.WithLabelValues(resourceType).Inc()
}

func (m *Metrics) observeRun(mode, outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(mode, outcome).Inc()
}
