package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics shared by the registry modules.
type Metrics struct {
	RecordWrites       *prometheus.CounterVec
	ExternalLookups    *prometheus.CounterVec
	ExternalLatency    *prometheus.HistogramVec
	GeoCacheFallbacks  prometheus.Counter
	SubscriptionEvents *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
	LoginThrottle      *prometheus.CounterVec
}

// New creates and registers the registry metrics. Call it once per process.
func New() *Metrics {
	return &Metrics{
		RecordWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registro_record_writes_total",
			Help: "Committed writes labeled by entity and operation",
		}, []string{"entity", "op"}),
		ExternalLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registro_external_lookups_total",
			Help: "Calls to external services labeled by service and outcome",
		}, []string{"service", "outcome"}),
		ExternalLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registro_external_lookup_seconds",
			Help:    "Latency of calls to external services",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		GeoCacheFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registro_geo_stale_responses_total",
			Help: "Geo-data answers served from cache because the WFS failed",
		}),
		SubscriptionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registro_subscription_events_total",
			Help: "Subscription lifecycle events",
		}, []string{"event"}),
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registro_cache_lookups_total",
			Help: "Lookup cache reads labeled by cache and result",
		}, []string{"cache", "result"}),
		LoginThrottle: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registro_login_throttle_total",
			Help: "Login throttling events labeled by outcome",
		}, []string{"event"}),
	}
}

// IncrementRecordWrite counts a committed create, update or delete.
func (m *Metrics) IncrementRecordWrite(entity, op string) {
	m.RecordWrites.WithLabelValues(entity, op).Inc()
}

// ObserveExternalLookup records the outcome and latency of an outbound call.
func (m *Metrics) ObserveExternalLookup(service, outcome string, d time.Duration) {
	m.ExternalLookups.WithLabelValues(service, outcome).Inc()
	m.ExternalLatency.WithLabelValues(service).Observe(d.Seconds())
}

func (m *Metrics) IncrementGeoStale() {
	m.GeoCacheFallbacks.Inc()
}

func (m *Metrics) IncrementSubscriptionEvent(event string) {
	m.SubscriptionEvents.WithLabelValues(event).Inc()
}

// ObserveCache counts a cache read as a hit or a miss.
func (m *Metrics) ObserveCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

// IncrementLoginThrottle counts recorded failures, lockouts and rejected attempts.
func (m *Metrics) IncrementLoginThrottle(event string) {
	m.LoginThrottle.WithLabelValues(event).Inc()
}
