package observability

import (
	"context"

	"github.com/aretw0/passivate/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the interpreter collectors.
type Metrics struct {
	NodeVisits     *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	ActionErrors   *prometheus.CounterVec
	Suspensions    *prometheus.CounterVec
	Resumptions    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passivate_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"tree_id", "kind"},
		),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "passivate_action_duration_seconds",
				Help:    "Duration of action capability invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"capability"},
		),
		ActionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passivate_action_errors_total",
				Help: "Total number of failed action invocations",
			},
			[]string{"capability"},
		),
		Suspensions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passivate_suspensions_total",
				Help: "Total number of runs suspended into a checkpoint",
			},
			[]string{"tree_id"},
		),
		Resumptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passivate_resumptions_total",
				Help: "Total number of checkpoints resumed",
			},
			[]string{"tree_id"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NodeVisits, m.ActionDuration, m.ActionErrors, m.Suspensions, m.Resumptions)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.TreeID, string(e.NodeKind)).Inc()
		},
		OnActionReturn: func(ctx context.Context, e *domain.ActionEvent) {
			m.ActionDuration.WithLabelValues(e.Capability).Observe(e.Duration.Seconds())
			if e.IsError {
				m.ActionErrors.WithLabelValues(e.Capability).Inc()
			}
		},
		OnSuspend: func(ctx context.Context, e *domain.CheckpointEvent) {
			m.Suspensions.WithLabelValues(e.TreeID).Inc()
		},
		OnResume: func(ctx context.Context, e *domain.CheckpointEvent) {
			m.Resumptions.WithLabelValues(e.TreeID).Inc()
		},
	}
}
