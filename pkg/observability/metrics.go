package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dialogue collectors.
type Metrics struct {
	registry *prometheus.Registry

	NodeVisits      *prometheus.CounterVec
	TaskStates      *prometheus.CounterVec
	SlotTransitions *prometheus.CounterVec
	Escalations     *prometheus.CounterVec
	ResolutionGaps  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg. A nil reg gets a
// fresh private registry, which keeps tests independent.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slotflow_node_visits_total",
			Help: "Total number of flow node entries.",
		}, []string{"node_id"}),
		TaskStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slotflow_task_states_total",
			Help: "Task state changes by kind and target state.",
		}, []string{"kind", "state"}),
		SlotTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slotflow_slot_transitions_total",
			Help: "Slot phase transitions by target phase.",
		}, []string{"to"}),
		Escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slotflow_escalations_total",
			Help: "NoInput and NoMatch escalations by step and level.",
		}, []string{"step", "level"}),
		ResolutionGaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slotflow_resolution_gaps_total",
			Help: "Messages that could not be resolved, by step.",
		}, []string{"step"}),
	}
	reg.MustRegister(m.NodeVisits, m.TaskStates, m.SlotTransitions, m.Escalations, m.ResolutionGaps)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeID).Inc()
		},
		OnTaskState: func(_ context.Context, e *domain.TaskEvent) {
			m.TaskStates.WithLabelValues(string(e.Kind), string(e.To)).Inc()
		},
		OnSlotTransition: func(_ context.Context, e *domain.SlotEvent) {
			m.SlotTransitions.WithLabelValues(string(e.To)).Inc()
			if e.Step == domain.StepNoInput || e.Step == domain.StepNoMatch {
				m.Escalations.WithLabelValues(string(e.Step), strconv.Itoa(e.Level)).Inc()
			}
		},
		OnResolutionGap: func(_ context.Context, e *domain.GapEvent) {
			step := string(e.Gap.Step)
			if step == "" {
				step = "message"
			}
			m.ResolutionGaps.WithLabelValues(step).Inc()
		},
	}
}
