// Package metrics exposes Prometheus collectors for the auth gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Auth counts session operations by name and outcome and owns the registry
// served on /metrics.
type Auth struct {
	Registry   *prometheus.Registry
	operations *prometheus.CounterVec
	revoked    prometheus.Counter
}

// New builds a registry with the Go and process collectors plus the
// auth counters.
func New() *Auth {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &Auth{
		Registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buddysign",
			Name:      "auth_operations_total",
			Help:      "Session operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		revoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "buddysign",
			Name:      "tokens_revoked_total",
			Help:      "Token identifiers added to the revocation registry.",
		}),
	}
	reg.MustRegister(a.operations, a.revoked)
	return a
}

// Observe records one operation.  A nil receiver is a no-op.
func (a *Auth) Observe(operation string, err error) {
	if a == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	a.operations.WithLabelValues(operation, outcome).Inc()
}

// Revoked counts one jti added to the registry.
func (a *Auth) Revoked() {
	if a == nil {
		return
	}
	a.revoked.Inc()
}
