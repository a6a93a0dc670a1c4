package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the approval workflow counters. A nil *Metrics is a valid no-op.
type Metrics struct {
	ApplicationsSubmitted prometheus.Counter

	// Decisions by party (owner, admin) and outcome (approved, rejected)
	Decisions *prometheus.CounterVec

	// Decision attempts refused with a conflict by party: out-of-order and repeated decisions alike
	DecisionConflicts *prometheus.CounterVec

	GrantsIssued prometheus.Counter

	RequestDuration *prometheus.HistogramVec
}

// New registers all metrics with reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ApplicationsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "access_approval_applications_submitted_total",
			Help: "Total number of access applications submitted",
		}),
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "access_approval_decisions_total",
			Help: "Total decisions recorded by deciding party and outcome",
		}, []string{"party", "outcome"}),
		DecisionConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "access_approval_decision_conflicts_total",
			Help: "Decision attempts refused with a conflict: out of order (owner not reviewed or declined) or already decided",
		}, []string{"party"}),
		GrantsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "access_approval_grants_issued_total",
			Help: "Total number of access grants issued",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "access_approval_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementSubmitted() {
	if m != nil {
		m.ApplicationsSubmitted.Inc()
	}
}

func (m *Metrics) IncrementDecision(party, outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(party, outcome).Inc()
	}
}

func (m *Metrics) IncrementConflict(party string) {
	if m != nil {
		m.DecisionConflicts.WithLabelValues(party).Inc()
	}
}

func (m *Metrics) IncrementGrantsIssued() {
	if m != nil {
		m.GrantsIssued.Inc()
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
	}
}

// Handler exposes the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
