// Package metrics exposes Prometheus collectors for session activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/groupbite/internal/domain/session"
	"github.com/rpggio/groupbite/internal/domain/vote"
)

const namespace = "groupbite"

var _ session.Observer = (*Metrics)(nil)

// Metrics holds the service collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	SessionsCreated   prometheus.Counter
	SessionsConcluded prometheus.Counter
	ActiveSessions    prometheus.Gauge
	CandidatesServed  prometheus.Histogram
	Votes             *prometheus.CounterVec
	WriteConflicts    *prometheus.CounterVec
	CandidateFallback *prometheus.CounterVec
	WatchDropped      prometheus.Counter
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Voting sessions started.",
		}),
		SessionsConcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_concluded_total",
			Help:      "Voting sessions explicitly concluded.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions started minus sessions concluded since process start.",
		}),
		CandidatesServed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_candidates",
			Help:      "Candidates frozen into each new session.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40},
		}),
		Votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Votes recorded, by value.",
		}, []string{"value"}),
		WriteConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_conflicts_total",
			Help:      "Concurrent-write conflicts, by operation.",
		}, []string{"op"}),
		CandidateFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_fallback_total",
			Help:      "Candidate fetches served from the built-in pool, by reason.",
		}, []string{"reason"}),
		WatchDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_dropped_total",
			Help:      "Session events dropped for slow watchers.",
		}),
	}

	m.registry.MustRegister(
		m.SessionsCreated,
		m.SessionsConcluded,
		m.ActiveSessions,
		m.CandidatesServed,
		m.Votes,
		m.WriteConflicts,
		m.CandidateFallback,
		m.WatchDropped,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionCreated(candidates int) {
	m.SessionsCreated.Inc()
	m.ActiveSessions.Inc()
	m.CandidatesServed.Observe(float64(candidates))
}

func (m *Metrics) SessionConcluded() {
	m.SessionsConcluded.Inc()
	m.ActiveSessions.Dec()
}

func (m *Metrics) VoteRecorded(value vote.Value) {
	m.Votes.WithLabelValues(string(value)).Inc()
}

func (m *Metrics) WriteConflict(op string) {
	m.WriteConflicts.WithLabelValues(op).Inc()
}

// Fallback counts a candidate fetch served from the built-in pool
func (m *Metrics) Fallback(reason string) {
	m.CandidateFallback.WithLabelValues(reason).Inc()
}

// Dropped counts an event dropped for a slow watcher
func (m *Metrics) Dropped() {
	m.WatchDropped.Inc()
}
