package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "property_admin"

// Metrics holds the Prometheus collectors used by the service and the page.
type Metrics struct {
	// HTTPRequestsTotal counts served requests.
	// Labels: method, route, status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration measures request latency.
	// Labels: method, route
	HTTPRequestDuration *prometheus.HistogramVec

	// PropertyWritesTotal counts property writes by outcome.
	// Labels: outcome (applied, stale, invalid, not_found)
	PropertyWritesTotal *prometheus.CounterVec

	// ControllerTransitionsTotal counts resource controller transitions.
	// Labels: controller, status
	ControllerTransitionsTotal *prometheus.CounterVec

	// NoticesTotal counts delivered notices by variant.
	NoticesTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		PropertyWritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "property_writes_total",
			Help:      "Property writes by outcome",
		}, []string{"outcome"}),
		ControllerTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "resource",
			Name:      "transitions_total",
			Help:      "Resource controller snapshot transitions by controller and status",
		}, []string{"controller", "status"}),
		NoticesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "notify",
			Name:      "notices_total",
			Help:      "Delivered notices by variant",
		}, []string{"variant"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.PropertyWritesTotal,
			m.ControllerTransitionsTotal,
			m.NoticesTotal,
		)
	}
	return m
}

// ObserveTransition records one controller transition. A nil receiver is a no-op.
func (m *Metrics) ObserveTransition(controller, status string) {
	if m == nil {
		return
	}
	m.ControllerTransitionsTotal.WithLabelValues(controller, status).Inc()
}

// ObserveNotice records one delivered notice. A nil receiver is a no-op.
func (m *Metrics) ObserveNotice(variant string) {
	if m == nil {
		return
	}
	m.NoticesTotal.WithLabelValues(variant).Inc()
}

// ObserveWrite records one property write outcome. A nil receiver is a no-op.
func (m *Metrics) ObserveWrite(outcome string) {
	if m == nil {
		return
	}
	m.PropertyWritesTotal.WithLabelValues(outcome).Inc()
}
