// Package metrics holds the Prometheus collectors for the attendance core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing, which keeps unit tests free of registry
// bookkeeping.
type Metrics struct {
	RegistrationsTotal prometheus.Counter
	CapacityRejections prometheus.Counter
	ScansTotal         *prometheus.CounterVec
	ModerationTotal    *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatherly_registrations_total",
			Help: "Total number of successful event registrations",
		}),
		CapacityRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatherly_capacity_rejections_total",
			Help: "Registrations rejected because the event was full",
		}),
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatherly_scans_total",
			Help: "Ticket scans by outcome",
		}, []string{"outcome"}),
		ModerationTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatherly_moderation_total",
			Help: "Moderation decisions by outcome",
		}, []string{"decision"}),
	}
}

// IncRegistration counts one successful registration.
func (m *Metrics) IncRegistration() {
	if m == nil {
		return
	}
	m.RegistrationsTotal.Inc()
}

// IncCapacityRejection counts one capacity-bound rejection.
func (m *Metrics) IncCapacityRejection() {
	if m == nil {
		return
	}
	m.CapacityRejections.Inc()
}

// IncScan counts one scan with its outcome label.
func (m *Metrics) IncScan(outcome string) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(outcome).Inc()
}

// IncModeration counts one moderation decision.
func (m *Metrics) IncModeration(decision string) {
	if m == nil {
		return
	}
	m.ModerationTotal.WithLabelValues(decision).Inc()
}
