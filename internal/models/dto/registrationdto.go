package dto

// RegistrationRequestDTO is the POST /auth/register payload. Password is plaintext.
type RegistrationRequestDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegistrationResponseDTO struct {
	Message string `json:"message"`
}

// ErrorResponseDTO is the body of every JSON error response.
type ErrorResponseDTO struct {
	Error string `json:"error"`
}
