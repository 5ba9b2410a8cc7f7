package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "casualty_tracker"

// Metrics holds the Prometheus counters, histograms, and gauges for the fetch and load pipeline.
type Metrics struct {
	// Upstream fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: region, outcome={success,timeout,http_error,network_error,validation_error,...}
	FetchDuration *prometheus.HistogramVec // labels: region
	DedupJoins    *prometheus.CounterVec   // labels: region
	Revalidations *prometheus.CounterVec   // labels: region, outcome={success,error,skipped}

	// Cache metrics.
	CacheLookups     *prometheus.CounterVec // labels: region, result={fresh,stale,expired,miss}
	CacheWriteErrors prometheus.Counter
	StaleFallbacks   *prometheus.CounterVec // labels: region

	// Load coordination metrics.
	LoadRetries      prometheus.Counter
	LastSuccess      *prometheus.GaugeVec // labels: region
	UpdatesPublished prometheus.Counter
	DashboardReady   prometheus.Gauge
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      help("Upstream fetches by region and outcome."),
		}, []string{"region", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      help("Upstream fetch duration including decode and normalization."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		}, []string{"region"}),
		DedupJoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_dedup_joins_total",
			Help:      help("Callers that joined an in-flight fetch instead of issuing a new one."),
		}, []string{"region"}),
		Revalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_revalidations_total",
			Help:      help("Background revalidations by region and outcome."),
		}, []string{"region", "outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      help("Cache reads by region and freshness."),
		}, []string{"region", "result"}),
		CacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_errors_total",
			Help:      help("Cache writes that failed and triggered a full cache purge."),
		}),
		StaleFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_fallbacks_total",
			Help:      help("Failed fetches answered from cached data."),
		}, []string{"region"}),
		LoadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_retries_total",
			Help:      help("Automatic retries after every region failed to load."),
		}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      help("Unix time of the last successful load per region."),
		}, []string{"region"}),
		UpdatesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_published_total",
			Help:      help("Changed snapshots published to the update topic."),
		}),
		DashboardReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dashboard_ready",
			Help:      help("1 once at least one region holds data, 0 otherwise."),
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.DedupJoins,
		m.Revalidations,
		m.CacheLookups,
		m.CacheWriteErrors,
		m.StaleFallbacks,
		m.LoadRetries,
		m.LastSuccess,
		m.UpdatesPublished,
		m.DashboardReady,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
