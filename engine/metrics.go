// api/engine/metrics.go
package engine

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a Prometheus collector for the decision pipeline backed by a
// custom registry, keeping the default registry's process collectors out of
// the exposition.
type Metrics struct {
	registry *prometheus.Registry

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	riskScores         prometheus.Histogram
	policyOpsTotal     *prometheus.CounterVec
	cacheHitsTotal     *prometheus.CounterVec
	trustRecomputes    prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		evaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zerotrust_evaluations_total",
			Help: "Total number of access evaluations by final decision.",
		}, []string{"decision"}),

		evaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zerotrust_evaluation_duration_seconds",
			Help:    "Access evaluation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),

		riskScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zerotrust_risk_score",
			Help:    "Distribution of assessed risk scores.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),

		policyOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zerotrust_policy_operations_total",
			Help: "Total number of policy store operations by type and result.",
		}, []string{"operation", "result"}),

		cacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zerotrust_decision_cache_total",
			Help: "Decision cache lookups by outcome.",
		}, []string{"outcome"}),

		trustRecomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zerotrust_trust_recomputes_total",
			Help: "Total number of trust score recomputation cycles.",
		}),
	}

	reg.MustRegister(
		m.evaluationsTotal,
		m.evaluationDuration,
		m.riskScores,
		m.policyOpsTotal,
		m.cacheHitsTotal,
		m.trustRecomputes,
	)

	return m
}

func (m *Metrics) RecordEvaluation(decision string, duration time.Duration) {
	m.evaluationsTotal.WithLabelValues(decision).Inc()
	m.evaluationDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordRiskScore(score float64) {
	m.riskScores.Observe(score)
}

func (m *Metrics) RecordPolicyOp(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.policyOpsTotal.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheHitsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordTrustRecompute() {
	m.trustRecomputes.Inc()
}

// Handler serves the registry in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
