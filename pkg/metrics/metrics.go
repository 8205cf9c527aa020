package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zen8labs_auth"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// AuthRequests counts lifecycle operations (authenticate, refresh, logout) by outcome.
	AuthRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "requests_total", Help: "Number of session lifecycle operations by operation and result."},
		[]string{"operation", "result"},
	)
	// SessionsRevoked counts sessions marked revoked, by reason (device, evicted, logout).
	SessionsRevoked = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sessions_revoked_total", Help: "Number of sessions revoked by reason."},
		[]string{"reason"},
	)
	// BestEffortFailures counts swallowed failures of non-fatal pipeline steps.
	BestEffortFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "best_effort_failures_total", Help: "Number of failed non-fatal steps by step name."},
		[]string{"step"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(AuthRequests)
	reg.MustRegister(SessionsRevoked)
	reg.MustRegister(BestEffortFailures)
}
