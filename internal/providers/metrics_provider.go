package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fbd/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncSyncsTotal()
	ObserveSyncDuration(duration time.Duration)
	AddNewFollowers(count int)
	IncRepairsTotal()
	IncLedgerFailures(op string)
	IncPayloadRejects(reason string)
	SetIdentitiesTotal(count int)
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	syncsTotal      prometheus.Counter
	syncDuration    prometheus.Histogram
	newFollowers    prometheus.Counter
	repairsTotal    prometheus.Counter
	ledgerFailures  *prometheus.CounterVec
	payloadRejects  *prometheus.CounterVec
	identitiesTotal prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncSyncsTotal() {
	m.syncsTotal.Inc()
}

func (m *MetricsProvider) ObserveSyncDuration(duration time.Duration) {
	m.syncDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) AddNewFollowers(count int) {
	m.newFollowers.Add(float64(count))
}

func (m *MetricsProvider) IncRepairsTotal() {
	m.repairsTotal.Inc()
}

func (m *MetricsProvider) IncLedgerFailures(op string) {
	m.ledgerFailures.WithLabelValues(op).Inc()
}

func (m *MetricsProvider) IncPayloadRejects(reason string) {
	m.payloadRejects.WithLabelValues(reason).Inc()
}

func (m *MetricsProvider) SetIdentitiesTotal(count int) {
	m.identitiesTotal.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fbd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fbd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fbd_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fbd_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		syncsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fbd_syncs_total",
			Help: "Total number of follower sync runs",
		}),

		syncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fbd_sync_duration_seconds",
			Help:    "Duration of follower sync runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		newFollowers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fbd_new_followers_total",
			Help: "Total number of new followers discovered",
		}),

		repairsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fbd_baseline_repairs_total",
			Help: "Total number of corrupted baselines rebuilt",
		}),

		ledgerFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fbd_ledger_failures_total",
			Help: "Total number of failed ledger operations",
		}, []string{"op"}),

		payloadRejects: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fbd_payload_rejects_total",
			Help: "Total number of remote payloads rejected before merge",
		}, []string{"reason"}),

		identitiesTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fbd_identities_total",
			Help: "Number of identities tracked by the local store",
		}),
	}

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncSyncsTotal()                                   {}
func (n *noopMetrics) ObserveSyncDuration(_ time.Duration)              {}
func (n *noopMetrics) AddNewFollowers(_ int)                            {}
func (n *noopMetrics) IncRepairsTotal()                                 {}
func (n *noopMetrics) IncLedgerFailures(_ string)                       {}
func (n *noopMetrics) IncPayloadRejects(_ string)                       {}
func (n *noopMetrics) SetIdentitiesTotal(_ int)                         {}
