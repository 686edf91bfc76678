// Package metrics implements ports.MetricsSink on Prometheus.
//
// Every sink owns its registry, so counters start at zero when the process
// (or a test) constructs one and nothing is shared through package globals.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
)

const namespace = "aegis"

// PrometheusSink holds the service counters.
type PrometheusSink struct {
	registry *prometheus.Registry

	Queries          prometheus.Counter
	Failures         prometheus.Counter
	PolicyViolations prometheus.Counter
	Heals            *prometheus.CounterVec
	HealErrors       prometheus.Counter
	HealDropped      prometheus.Counter
	Reingests        *prometheus.CounterVec
	Confidence       prometheus.Histogram
}

// NewPrometheusSink creates and registers all metrics on a fresh registry.
func NewPrometheusSink() *PrometheusSink {
	s := &PrometheusSink{
		registry: prometheus.NewRegistry(),
		Queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries received on the ask path.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Answers that failed the quality gate.",
		}),
		PolicyViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_violations_total",
			Help:      "Answers withheld by the policy gate.",
		}),
		Heals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heals_total",
			Help:      "Healing actions dispatched, by action.",
		}, []string{"action"}),
		HealErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heal_errors_total",
			Help:      "Healing attempts that failed.",
		}),
		HealDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heal_dropped_total",
			Help:      "Healing requests dropped because the queue was full.",
		}),
		Reingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reingest_total",
			Help:      "Reingestion runs, by outcome.",
		}, []string{"outcome"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_confidence",
			Help:      "Retrieval confidence per query.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
	s.registry.MustRegister(
		s.Queries, s.Failures, s.PolicyViolations, s.Heals,
		s.HealErrors, s.HealDropped, s.Reingests, s.Confidence,
	)
	return s
}

func (s *PrometheusSink) IncQueries()          { s.Queries.Inc() }
func (s *PrometheusSink) IncFailures()         { s.Failures.Inc() }
func (s *PrometheusSink) IncPolicyViolations() { s.PolicyViolations.Inc() }
func (s *PrometheusSink) IncHealError()        { s.HealErrors.Inc() }
func (s *PrometheusSink) IncHealDropped()      { s.HealDropped.Inc() }

func (s *PrometheusSink) IncHeal(action entities.HealingAction) {
	s.Heals.WithLabelValues(string(action)).Inc()
}

func (s *PrometheusSink) IncReingest(outcome string) {
	s.Reingests.WithLabelValues(outcome).Inc()
}

func (s *PrometheusSink) ObserveConfidence(confidence float64) {
	s.Confidence.Observe(confidence)
}

// Counters flattens every counter to name -> value. Names drop the namespace
// and _total suffix; labeled series append the label value, e.g. "heals_reingest".
func (s *PrometheusSink) Counters() map[string]float64 {
	out := make(map[string]float64)
	families, err := s.registry.Gather()
	if err != nil {
		return out
	}
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(mf.GetName(), namespace+"_"), "_total")
		for _, m := range mf.GetMetric() {
			key := name
			for _, lp := range m.GetLabel() {
				key += "_" + lp.GetValue()
			}
			out[key] = m.GetCounter().GetValue()
		}
	}
	return out
}

// Handler serves the registry in the Prometheus exposition format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
