package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/psys/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "psy"

// Metrics holds the collectors updated by the simulator hooks.
type Metrics struct {
	Steps            prometheus.Counter
	RuleApplications *prometheus.CounterVec
	Runs             *prometheus.CounterVec
	RunSteps         prometheus.Histogram
	RunDuration      prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg.
// When reg is also a Gatherer, Handler serves it; otherwise the default
// gatherer is used.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Number of maximally parallel steps that fired at least one rule.",
		}),
		// Labelled by rule index: rule tokens are user input and unbounded.
		RuleApplications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_applications_total",
			Help:      "Number of rule applications, by position in the rule set.",
		}, []string{"rule"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of finished runs, by final status.",
		}, []string{"status"}),
		RunSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_steps",
			Help:      "Steps taken by a run before it stopped.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run.",
			Buckets:   prometheus.DefBuckets,
		}),
		gatherer: prometheus.DefaultGatherer,
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.Steps, m.RuleApplications, m.Runs, m.RunSteps, m.RunDuration)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Hooks returns lifecycle hooks that record into m. They are safe for
// concurrent runs.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnd: func(_ context.Context, e *domain.StepEvent) {
			if e.Fired {
				m.Steps.Inc()
			}
		},
		OnRuleApplied: func(_ context.Context, e *domain.RuleEvent) {
			m.RuleApplications.WithLabelValues(strconv.Itoa(e.RuleIndex)).Add(float64(e.Applications))
		},
		OnHalt: func(_ context.Context, e *domain.HaltEvent) {
			m.Runs.WithLabelValues(string(e.Status)).Inc()
			m.RunSteps.Observe(float64(e.Steps))
			m.RunDuration.Observe(e.Elapsed.Seconds())
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
