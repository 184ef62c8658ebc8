// Package metrics exposes Prometheus counters for signed exchanges.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome of a request authentication attempt.
type Outcome string

// Authentication outcomes.
const (
	OutcomeAuthenticated        Outcome = "authenticated"
	OutcomeUnsigned             Outcome = "unsigned"
	OutcomeInvalidRequest       Outcome = "invalid_request"
	OutcomeAuthenticationFailed Outcome = "authentication_failed"
	OutcomeBackendError         Outcome = "backend_error"
	OutcomePreAuthenticated     Outcome = "pre_authenticated"
)

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "signed_exchange"

// Metrics holds the exchange counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	authentications *prometheus.CounterVec
	signedResponses *prometheus.CounterVec
	discarded       prometheus.Counter
}

// New registers the exchange counters on reg.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		authentications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "requests",
				Name:      "authentications_total",
				Help:      "Number of inbound requests by authentication outcome",
			},
			[]string{"outcome"},
		),
		signedResponses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "responses",
				Name:      "signed_total",
				Help:      "Number of signed responses sent, by error marker",
			},
			[]string{"error"},
		),
		discarded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "responses",
				Name:      "discarded_total",
				Help:      "Number of buffered responses discarded because the client went away",
			},
		),
	}
}

// ObserveAuthentication counts one authentication attempt.
func (m *Metrics) ObserveAuthentication(outcome Outcome) {
	if m == nil {
		return
	}
	m.authentications.WithLabelValues(string(outcome)).Inc()
}

// ObserveSignedResponse counts one signed response.
func (m *Metrics) ObserveSignedResponse(isError bool) {
	if m == nil {
		return
	}
	m.signedResponses.WithLabelValues(strconv.FormatBool(isError)).Inc()
}

// ObserveDiscardedResponse counts one response dropped before signing.
func (m *Metrics) ObserveDiscardedResponse() {
	if m == nil {
		return
	}
	m.discarded.Inc()
}
