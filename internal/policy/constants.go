package policy

const (
	// Access kinds as written in configuration.
	PermitAll     = "permit_all"
	Authenticated = "authenticated"
	HasAnyRole    = "has_any_role"

	// AnyRequest is the catch-all pattern every rule table must end with.
	AnyRequest = "/**"

	recursiveSuffix = "/**"
	// failureQuery is appended to the login page when no failure URL is configured.
	failureQuery = "?error"
)
