package userservice

import "errors"

var (
	// ErrInvalidInput classifies registration requests rejected for their content.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict classifies registration requests clashing with an existing user.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials is returned by AuthenticateUser for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RegistrationError is a client-facing registration failure. Error returns
// Message unchanged so it can be written to the response body as is.
type RegistrationError struct {
	Kind    error
	Message string
}

func (e *RegistrationError) Error() string {
	return e.Message
}

// Unwrap exposes Kind, so errors.Is(err, ErrConflict) works.
func (e *RegistrationError) Unwrap() error {
	return e.Kind
}

func invalidInput(msg string) error {
	return &RegistrationError{Kind: ErrInvalidInput, Message: msg}
}

func conflict(msg string) error {
	return &RegistrationError{Kind: ErrConflict, Message: msg}
}
