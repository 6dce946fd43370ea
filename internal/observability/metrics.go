package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// discovery API and the catalog ingest loop.
type Metrics struct {
	DiscoveryRequests *prometheus.CounterVec   // labels: endpoint, outcome={ok,invalid,error}
	DiscoveryDuration *prometheus.HistogramVec // labels: endpoint
	DiscoveryResults  prometheus.Histogram

	OfferingCache *prometheus.CounterVec // labels: result={hit,miss}

	StoreUp prometheus.Gauge

	// Catalog feed ingest metrics.
	IngestEventsConsumed prometheus.Counter
	IngestEventsApplied  prometheus.Counter
	IngestParseErrors    prometheus.Counter
	IngestRunning        prometheus.Gauge
	IngestBatchSize      prometheus.Histogram
	IngestBatchDuration  prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DiscoveryRequests,
		m.DiscoveryDuration,
		m.DiscoveryResults,
		m.OfferingCache,
		m.StoreUp,
		m.IngestEventsConsumed,
		m.IngestEventsApplied,
		m.IngestParseErrors,
		m.IngestRunning,
		m.IngestBatchSize,
		m.IngestBatchDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DiscoveryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop_discovery",
			Name:      "requests_total",
			Help:      "Discovery API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		DiscoveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shop_discovery",
			Name:      "request_duration_seconds",
			Help:      "Discovery API request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"endpoint"}),
		DiscoveryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shop_discovery",
			Name:      "results_per_query",
			Help:      "Number of shops returned per nearby query.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		OfferingCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop_discovery",
			Name:      "offering_cache_total",
			Help:      "Offering lookup cache results.",
		}, []string{"result"}),
		StoreUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shop_discovery",
			Name:      "store_up",
			Help:      "1 when the last database readiness ping succeeded, 0 when it failed.",
		}),
		IngestEventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shop_discovery",
			Name:      "ingest_events_consumed_total",
			Help:      "Total catalog feed events read from the source topic.",
		}),
		IngestEventsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shop_discovery",
			Name:      "ingest_events_applied_total",
			Help:      "Total catalog feed events applied to the store.",
		}),
		IngestParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shop_discovery",
			Name:      "ingest_parse_errors_total",
			Help:      "Total catalog feed events rejected at the parse boundary.",
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shop_discovery",
			Name:      "ingest_running",
			Help:      "1 when the catalog ingest loop is active, 0 when shut down.",
		}),
		IngestBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shop_discovery",
			Name:      "ingest_batch_size",
			Help:      "Number of events per batch extracted from the feed.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		IngestBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shop_discovery",
			Name:      "ingest_batch_duration_seconds",
			Help:      "Duration of a complete batch extract-parse-apply cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
