package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the planner.
type Metrics struct {
	// Estimate metrics
	EstimateRequests *prometheus.CounterVec
	EstimateLatency  prometheus.Histogram
	SkippedChannels  *prometheus.CounterVec
	DuplicateRules   prometheus.Counter
	EstimateChannels prometheus.Histogram

	// Recommendation metrics
	RecommendRequests *prometheus.CounterVec
	RecommendLatency  prometheus.Histogram
	RecommendCache    *prometheus.CounterVec

	// Report metrics
	ReportsGenerated prometheus.Counter

	// System metrics
	DBConnections *prometheus.GaugeVec
	RateLimitHits *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		EstimateRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "estimate_requests_total",
				Help:      "Total number of estimate computations",
			},
			[]string{"status"},
		),
		EstimateLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "estimate_latency_seconds",
				Help:      "Estimate computation latency in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		SkippedChannels: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "estimate_skipped_channels_total",
				Help:      "Channels silently dropped from estimates",
			},
			[]string{"channel"},
		),
		DuplicateRules: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_duplicate_rules_total",
				Help:      "Ambiguous surcharge rows detected during estimates",
			},
		),
		EstimateChannels: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "estimate_channels",
				Help:      "Number of channels per computed estimate",
				Buckets:   []float64{1, 2, 3, 5, 8, 13},
			},
		),
		RecommendRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommend_requests_total",
				Help:      "Total number of segment recommendation calls",
			},
			[]string{"status"},
		),
		RecommendLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recommend_latency_seconds",
				Help:      "Recommendation service latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		RecommendCache: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommend_cache_total",
				Help:      "Recommendation cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		ReportsGenerated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_generated_total",
				Help:      "Total number of proposal reports rendered",
			},
		),
		DBConnections: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections",
				Help:      "Database connection pool state",
			},
			[]string{"state"},
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Requests rejected by rate limiting",
			},
			[]string{"endpoint"},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordEstimate records one estimate computation.
func (m *Metrics) RecordEstimate(status string, channels int, latency time.Duration) {
	m.EstimateRequests.WithLabelValues(status).Inc()
	if status == "ok" {
		m.EstimateLatency.Observe(latency.Seconds())
		m.EstimateChannels.Observe(float64(channels))
	}
}

// RecordSkippedChannel records one silently dropped channel.
func (m *Metrics) RecordSkippedChannel(channel string) {
	m.SkippedChannels.WithLabelValues(channel).Inc()
}

// RecordDuplicateRules records ambiguous surcharge rows seen in a snapshot.
func (m *Metrics) RecordDuplicateRules(n int) {
	m.DuplicateRules.Add(float64(n))
}

// RecordRecommend records one recommendation call.
func (m *Metrics) RecordRecommend(status string, latency time.Duration) {
	m.RecommendRequests.WithLabelValues(status).Inc()
	m.RecommendLatency.Observe(latency.Seconds())
}

// RecordRecommendCache records a cache lookup outcome (hit, miss, bypass).
func (m *Metrics) RecordRecommendCache(outcome string) {
	m.RecommendCache.WithLabelValues(outcome).Inc()
}

// RecordReport records one rendered proposal report.
func (m *Metrics) RecordReport() {
	m.ReportsGenerated.Inc()
}

// RecordRateLimitHit records a rate-limited request.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}

// UpdateDBStats updates connection pool gauges.
func (m *Metrics) UpdateDBStats(idle, inUse, total int) {
	m.DBConnections.WithLabelValues("idle").Set(float64(idle))
	m.DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnections.WithLabelValues("total").Set(float64(total))
}
