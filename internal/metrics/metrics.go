// Package metrics holds the Prometheus collectors for the engagement engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote outcomes used as the "outcome" label.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeNoop      = "noop"
	OutcomeClosed    = "closed"
)

// Metrics is nil-safe: a nil *Metrics records nothing, so components can be
// built without a registry in tests.
type Metrics struct {
	VotesCast          *prometheus.CounterVec
	Recomputes         prometheus.Counter
	EscalatedRecompute prometheus.Counter
	EventsPublished    *prometheus.CounterVec
	EventsDropped      *prometheus.CounterVec
	SinkErrors         *prometheus.CounterVec
	OpenStreams        prometheus.Gauge
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		VotesCast: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wardwatch_votes_cast_total",
			Help: "vote cast attempts by outcome",
		}, []string{"outcome"}),
		Recomputes: f.NewCounter(prometheus.CounterOpts{
			Name: "wardwatch_aggregate_recomputes_total",
			Help: "full aggregate recomputations written to issue_reports",
		}),
		EscalatedRecompute: f.NewCounter(prometheus.CounterOpts{
			Name: "wardwatch_aggregate_escalated_total",
			Help: "recomputations whose total met the escalation threshold",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wardwatch_realtime_events_total",
			Help: "realtime events handed to the fanout queue",
		}, []string{"event"}),
		EventsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wardwatch_realtime_events_dropped_total",
			Help: "realtime events dropped before delivery",
		}, []string{"reason"}),
		SinkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wardwatch_realtime_sink_errors_total",
			Help: "errors returned by fanout sinks",
		}, []string{"sink"}),
		OpenStreams: f.NewGauge(prometheus.GaugeOpts{
			Name: "wardwatch_realtime_open_streams",
			Help: "currently connected realtime streams",
		}),
	}
}

func (m *Metrics) VoteCast(outcome string) {
	if m == nil {
		return
	}
	m.VotesCast.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Recomputed(escalated bool) {
	if m == nil {
		return
	}
	m.Recomputes.Inc()
	if escalated {
		m.EscalatedRecompute.Inc()
	}
}

func (m *Metrics) EventPublished(name string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(name).Inc()
}

func (m *Metrics) EventDropped(reason string) {
	if m == nil {
		return
	}
	m.EventsDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(sink).Inc()
}

func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.OpenStreams.Inc()
}

func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.OpenStreams.Dec()
}
