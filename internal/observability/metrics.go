package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "balneabilidade_etl"

// Document outcomes recorded in DocumentsTotal.
const (
	OutcomeLoaded    = "loaded"
	OutcomeSkipped   = "skipped"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	DocumentsTotal  *prometheus.CounterVec // labels: outcome={loaded,skipped,duplicate,failed}
	Skips           *prometheus.CounterVec // labels: reason
	RecordsProduced prometheus.Counter
	LoadErrors      prometheus.Counter
	PipelineRunning prometheus.Gauge
	RunDuration     prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DocumentsTotal,
		m.Skips,
		m.RecordsProduced,
		m.LoadErrors,
		m.PipelineRunning,
		m.RunDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DocumentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Bulletin documents processed, by outcome.",
		}, []string{"outcome"}),
		Skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Documents that produced no records, by reason.",
		}, []string{"reason"}),
		RecordsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_produced_total",
			Help:      "Total point-day records handed to the sinks.",
		}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Sink writes that failed after retries.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-transform-load run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
	}
}
