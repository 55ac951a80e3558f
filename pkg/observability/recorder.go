package observability

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/espalier/pkg/domain"
)

// Recorder collects engine metrics from lifecycle events.
// Each Recorder owns its prometheus registry, so several test engines (or
// several recorders in one process) never fight over metric registration.
type Recorder struct {
	registry  *prometheus.Registry
	namespace string

	dispatches          *prometheus.CounterVec
	transitionsApplied  *prometheus.CounterVec
	executorFailures    *prometheus.CounterVec
	loadDuration        prometheus.Histogram
	contractTransitions *prometheus.GaugeVec
}

// Option defines a functional option for configuring the Recorder.
type Option func(*Recorder)

// WithNamespace overrides the metric namespace (default "espalier").
func WithNamespace(ns string) Option {
	return func(r *Recorder) {
		r.namespace = ns
	}
}

// WithRegistry collects into an existing registry instead of a private one.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(r *Recorder) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		registry:  prometheus.NewRegistry(),
		namespace: "espalier",
	}
	for _, opt := range opts {
		opt(r)
	}

	r.dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "dispatches_total",
			Help:      "Total number of dispatched requests",
		},
		[]string{"node", "action", "outcome"},
	)
	r.transitionsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "transitions_applied_total",
			Help:      "Total number of successfully applied transitions",
		},
		[]string{"node", "kind"},
	)
	r.executorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: r.namespace,
			Name:      "executor_failures_total",
			Help:      "Total number of transition executor failures",
		},
		[]string{"node", "kind"},
	)
	r.loadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: r.namespace,
			Name:      "contract_load_seconds",
			Help:      "Duration of contract discovery, read and parse",
		},
	)
	r.contractTransitions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: r.namespace,
			Name:      "contract_transitions",
			Help:      "Number of transitions in the loaded contract",
		},
		[]string{"node"},
	)

	r.registry.MustRegister(
		r.dispatches,
		r.transitionsApplied,
		r.executorFailures,
		r.loadDuration,
		r.contractTransitions,
	)
	return r
}

// Hooks returns lifecycle hooks that feed this recorder.
// Pass the result to espalier.WithLifecycleHooks.
func (r *Recorder) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnContractLoad: func(ctx context.Context, e *domain.LoadEvent) {
			r.loadDuration.Observe(e.Duration.Seconds())
			r.contractTransitions.WithLabelValues(e.Node).Set(float64(e.Transitions))
		},
		OnTransitionApply: func(ctx context.Context, e *domain.TransitionEvent) {
			if e.IsError {
				r.executorFailures.WithLabelValues(e.Node, string(e.Kind)).Inc()
				return
			}
			r.transitionsApplied.WithLabelValues(e.Node, string(e.Kind)).Inc()
		},
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			r.dispatches.WithLabelValues(e.Node, e.Action, strings.ToLower(string(e.Status))).Inc()
		},
	}
}

// Handler exposes the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry so hosts can add their own collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
