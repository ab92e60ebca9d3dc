// Package metrics exposes registration and email delivery counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the service counters. A nil *Metrics records nothing.
type Metrics struct {
	registrations *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

// New registers the counters on reg. Use prometheus.NewRegistry in tests.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "webinar_registrations_total",
			Help: "Registration requests by outcome (ok, invalid, error).",
		}, []string{"result"}),
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "webinar_email_deliveries_total",
			Help: "Confirmation email delivery attempts by backend and outcome.",
		}, []string{"backend", "result"}),
		gatherer: reg,
	}
}

// RecordRegistration counts one registration request.
func (m *Metrics) RecordRegistration(result string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(result).Inc()
}

// RecordDelivery counts one backend attempt.
func (m *Metrics) RecordDelivery(backend string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.deliveries.WithLabelValues(backend, result).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Registrations returns the registration counter (for tests).
func (m *Metrics) Registrations() *prometheus.CounterVec { return m.registrations }

// Deliveries returns the delivery counter (for tests).
func (m *Metrics) Deliveries() *prometheus.CounterVec { return m.deliveries }
