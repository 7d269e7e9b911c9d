package middleware

const (
	// Error bodies
	ErrUnauthorized    = "unauthorized"
	ErrForbidden       = "forbidden"
	ErrTooManyRequests = "Too many requests. Please try again later."
	ErrCSRFOrigin      = "CSRF validation failed: invalid origin"
	ErrCSRFReferer     = "CSRF validation failed: invalid referer"
	ErrCSRFMissing     = "CSRF validation failed: missing origin"

	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// metrics constants
	AuthorizationDecisionsTotal     = "authorization_decisions_total"
	AuthorizationDecisionsTotalHelp = "Total number of access policy decisions by outcome"
	RateLimitedTotal                = "rate_limited_total"
	RateLimitedTotalHelp            = "Total number of requests rejected by the rate limiter"
	CSRFRejectedTotal               = "csrf_rejected_total"
	CSRFRejectedTotalHelp           = "Total number of requests rejected by the origin check"
	RequestsInFlight                = "http_requests_in_flight"
	RequestsInFlightHelp            = "Number of HTTP requests currently being served"
)
