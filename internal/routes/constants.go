package routes

var (
	RegisterDurationSecondsBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	LoginDurationSecondsBuckets    = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10}
)

const (
	// API route constants
	RegisterRouteAPI = "/auth/register"
	MetricsRouteAPI  = "/metrics"
	HealthRouteAPI   = "/healthz"
	HomeRouteAPI     = "/"

	// maxBodyBytes caps JSON request bodies.
	maxBodyBytes = 1 << 20

	// form field names of the login page
	FormUsername = "username"
	FormPassword = "password"

	// message constants
	MsgUserRegistered = "User registered successfully!"
	MsgHealthy        = "ok"

	// Error messages
	ErrMethodNotAllowed         = "method not allowed"
	ErrInvalidContentType       = "content-Type must be application/json"
	ErrInvalidRequestBody       = "invalid request body"
	ErrFailedToRegisterUser     = "failed to register user"
	ErrFailedToEncodeResponse   = "failed to encode response"
	ErrFailedToGenerateToken    = "failed to generate session token"
	ErrFailedToRenderPage       = "failed to render page"
	ErrInvalidCredentials       = "invalid username or password"
	ErrInvalidContentTypeFormat = "invalid content-type: %s"
	ErrUnhealthy                = "database unavailable"

	// metrics constants
	RegisterRequestsTotal       = "register_requests_total"
	RegisterRequestsTotalHelp   = "Total number of registration requests received"
	RegisterSuccessTotal        = "register_success_total"
	RegisterSuccessTotalHelp    = "Total number of successful registrations"
	RegisterRejectedTotal       = "register_rejected_total"
	RegisterRejectedTotalHelp   = "Total number of registrations rejected by validation, by reason"
	RegisterErrorsTotal         = "register_errors_total"
	RegisterErrorsTotalHelp     = "Total number of registrations failing for internal reasons"
	RegisterDurationSeconds     = "register_duration_seconds"
	RegisterDurationSecondsHelp = "Duration of registration requests in seconds"
	LoginRequestsTotal          = "login_requests_total"
	LoginRequestsTotalHelp      = "Total number of login requests received"
	LoginSuccessTotal           = "login_success_total"
	LoginSuccessTotalHelp       = "Total number of successful login requests"
	LoginFailedTotal            = "login_failed_total"
	LoginFailedTotalHelp        = "Total number of failed login requests"
	LoginDurationSeconds        = "login_duration_seconds"
	LoginDurationSecondsHelp    = "Duration of login requests in seconds"

	// rejection reasons
	ReasonInvalidInput = "invalid_input"
	ReasonConflict     = "conflict"
)
