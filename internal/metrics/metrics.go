// Package metrics holds the Prometheus collectors of the fleet service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// AllocationsTotal counts buffer allocations by hub and outcome (success/failed).
	AllocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_buffer_allocations_total",
			Help: "Total number of buffer vehicle allocation attempts.",
		},
		[]string{"hub", "result"},
	)

	// ComplianceChecksTotal counts composite compliance checks by zone and outcome.
	ComplianceChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_compliance_checks_total",
			Help: "Total number of composite compliance checks.",
		},
		[]string{"zone", "result"}, // result: compliant/non_compliant
	)

	// ComplianceViolationsTotal counts violations by finding code.
	ComplianceViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_compliance_violations_total",
			Help: "Total number of compliance violations found.",
		},
		[]string{"code"},
	)

	// ComplianceCacheLookups counts cache lookups (hit/miss).
	ComplianceCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_compliance_cache_lookups_total",
			Help: "Compliance result cache lookups.",
		},
		[]string{"outcome"},
	)

	// RouteTransitionsTotal counts lifecycle events by event and whether they applied.
	RouteTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_route_transitions_total",
			Help: "Total number of route lifecycle events.",
		},
		[]string{"event", "result"}, // result: applied/rejected
	)

	// HTTPRequestDuration records API latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleet_http_request_duration_seconds",
			Help:    "Latency of HTTP API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
)

func init() {
	prometheus.MustRegister(AllocationsTotal)
	prometheus.MustRegister(ComplianceChecksTotal)
	prometheus.MustRegister(ComplianceViolationsTotal)
	prometheus.MustRegister(ComplianceCacheLookups)
	prometheus.MustRegister(RouteTransitionsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
}

// Outcome maps a boolean to the label value used across counters.
func Outcome(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
