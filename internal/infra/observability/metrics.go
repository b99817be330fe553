package observability

import (
	"time"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/sony/gobreaker"
)

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	operationDuration  *prometheus.HistogramVec
	remoteErrors       *prometheus.CounterVec
	sessionTransitions *prometheus.CounterVec
	guardDecisions     *prometheus.CounterVec
	sharedListCalls    prometheus.Counter
	breakerState       *prometheus.GaugeVec
}

// remoteErrorKinds are the taxonomy entries counted as remote errors.
var remoteErrorKinds = []domain.ErrorKind{
	domain.KindUnauthorized,
	domain.KindForbidden,
	domain.KindInvalid,
	domain.KindConflict,
	domain.KindNetworkFailure,
	domain.KindNotFound,
	domain.KindUnknown,
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests build as many
// Metrics as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "money_operation_duration_seconds",
				Help:    "Duration of client operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		remoteErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "money_remote_errors_total",
				Help: "Errors returned by remote calls, by kind.",
			},
			[]string{"kind"},
		),
		sessionTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "money_session_transitions_total",
				Help: "Session state transitions.",
			},
			[]string{"transition"},
		),
		guardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "money_guard_decisions_total",
				Help: "Route guard decisions.",
			},
			[]string{"outcome"},
		),
		sharedListCalls: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "money_shared_list_calls_total",
				Help: "ListMonths calls answered by an in-flight request.",
			},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "money_remote_breaker_state",
				Help: "Circuit breaker state per remote (0 closed, 1 half-open, 2 open).",
			},
			[]string{"breaker"},
		),
	}
}

// RecordOperation records the duration of an operation.
func (m *Metrics) RecordOperation(operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRemoteError counts err by its kind. Nil errors are ignored.
func (m *Metrics) IncrRemoteError(err error) {
	if err == nil {
		return
	}
	m.remoteErrors.WithLabelValues(string(domain.Kind(err))).Inc()
}

// IncrTransition counts a session transition.
func (m *Metrics) IncrTransition(t domain.SessionTransition) {
	m.sessionTransitions.WithLabelValues(string(t)).Inc()
}

// IncrGuardDecision counts a guard outcome ("allow" or "redirect").
func (m *Metrics) IncrGuardDecision(outcome string) {
	m.guardDecisions.WithLabelValues(outcome).Inc()
}

// IncrSharedList counts a ListMonths call that joined an in-flight request.
func (m *Metrics) IncrSharedList() {
	m.sharedListCalls.Inc()
}

// SetBreakerState records the current state of a circuit breaker.
func (m *Metrics) SetBreakerState(name string, state gobreaker.State) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// Snapshot returns the counters served on /status.
func (m *Metrics) Snapshot(state domain.SessionState) *domain.ClientStatus {
	var remote float64
	for _, k := range remoteErrorKinds {
		remote += getCounterValue(m.remoteErrors, string(k))
	}

	return &domain.ClientStatus{
		Session:         state,
		Logins:          int64(getCounterValue(m.sessionTransitions, string(domain.TransitionLogin))),
		Logouts:         int64(getCounterValue(m.sessionTransitions, string(domain.TransitionLogout))),
		Expirations:     int64(getCounterValue(m.sessionTransitions, string(domain.TransitionExpired))),
		GuardAllowed:    int64(getCounterValue(m.guardDecisions, "allow")),
		GuardRedirected: int64(getCounterValue(m.guardDecisions, "redirect")),
		RemoteErrors:    int64(remote),
		SharedListCalls: int64(counterValue(m.sharedListCalls)),
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return counterValue(cv.WithLabelValues(label))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
