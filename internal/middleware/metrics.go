package middleware

import (
	"net/http"

	"github.com/haguru/myblog/internal/interfaces"
)

// RegisterMetrics registers the collectors the middlewares of this package report to.
func RegisterMetrics(m interfaces.Metrics) {
	m.RegisterCounterVec(AuthorizationDecisionsTotal, AuthorizationDecisionsTotalHelp, []string{"decision"})
	m.RegisterCounter(RateLimitedTotal, RateLimitedTotalHelp)
	m.RegisterCounter(CSRFRejectedTotal, CSRFRejectedTotalHelp)
	m.RegisterGauge(RequestsInFlight, RequestsInFlightHelp)
}

// InFlight tracks the number of requests being served in the RequestsInFlight gauge.
func InFlight(m interfaces.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.IncGauge(RequestsInFlight)
			defer m.DecGauge(RequestsInFlight)
			next.ServeHTTP(w, r)
		})
	}
}
