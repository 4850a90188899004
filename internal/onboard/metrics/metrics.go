// Package metrics exposes the service's prometheus instrumentation. Delivery
// method is an observability concern rather than a caller-visible one, so the
// dispatcher's per-channel outcomes land here instead of in API responses.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	// DispatchAttempts counts every channel attempt by method and outcome
	// ("success" / "failure").
	DispatchAttempts *prometheus.CounterVec

	// InvitationTransitions counts state-machine transitions by target status.
	InvitationTransitions *prometheus.CounterVec

	// RemindersSent counts successful reminder resends.
	RemindersSent prometheus.Counter

	// InvitationsExpired counts invitations transitioned by the sweep.
	InvitationsExpired prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		DispatchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboard",
			Name:      "dispatch_attempts_total",
			Help:      "Delivery channel attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		InvitationTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboard",
			Name:      "invitation_transitions_total",
			Help:      "Invitation status transitions by target status.",
		}, []string{"to_status"}),
		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "onboard",
			Name:      "reminders_sent_total",
			Help:      "Successful reminder resends.",
		}),
		InvitationsExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "onboard",
			Name:      "invitations_expired_total",
			Help:      "Pending invitations expired by the background sweep.",
		}),
	}
}

// Handler serves the registry for GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDispatch records one channel attempt.
func (m *Metrics) ObserveDispatch(method string, ok bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.DispatchAttempts.WithLabelValues(method, outcome).Inc()
}

// ObserveTransition records an invitation reaching a status.
func (m *Metrics) ObserveTransition(toStatus string) {
	if m == nil {
		return
	}
	m.InvitationTransitions.WithLabelValues(toStatus).Inc()
}

// ObserveReminder records a successful resend.
func (m *Metrics) ObserveReminder() {
	if m == nil {
		return
	}
	m.RemindersSent.Inc()
}

// ObserveExpired records n invitations expired by a sweep pass.
func (m *Metrics) ObserveExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.InvitationsExpired.Add(float64(n))
}
