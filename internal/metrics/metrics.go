package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registration traffic and the outcome of each operation.
type Metrics struct {
	RegistrationsCreated *prometheus.CounterVec
	TeamsCreated         prometheus.Counter
	TeamJoins            *prometheus.CounterVec
	JoinCodeCollisions   prometheus.Counter
	PaymentProofs        *prometheus.CounterVec
	StatusChanges        *prometheus.CounterVec
	EmailsSent           *prometheus.CounterVec
	EventCacheLookups    *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
}

// New registers every metric with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "festival_registrations_created_total",
			Help: "Registrations created, by kind (solo, team, mun)",
		}, []string{"kind"}),
		TeamsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "festival_teams_created_total",
			Help: "Teams created",
		}),
		TeamJoins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "festival_team_joins_total",
			Help: "Join attempts, by outcome code",
		}, []string{"outcome"}),
		JoinCodeCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "festival_join_code_collisions_total",
			Help: "Generated join codes that were already taken",
		}),
		PaymentProofs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "festival_payment_proofs_total",
			Help: "Payment proof uploads, by outcome code",
		}, []string{"outcome"}),
		StatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "festival_status_changes_total",
			Help: "Admin status transitions, by field and new value",
		}, []string{"field", "value"}),
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "festival_emails_total",
			Help: "Notification emails, by template and outcome",
		}, []string{"template", "outcome"}),
		EventCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "festival_event_cache_lookups_total",
			Help: "Event catalog cache lookups, by result (hit, miss, error)",
		}, []string{"result"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "festival_operation_duration_seconds",
			Help:    "Duration of registration engine operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

// NewNop returns metrics registered on a private registry, for tests and
// tools that do not expose /metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Outcome is the label for an error: "ok" for nil, its code otherwise.
func Outcome(code string) string {
	if code == "" {
		return "ok"
	}
	return code
}
