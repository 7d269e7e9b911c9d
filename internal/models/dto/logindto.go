package dto

// LoginRequestDTO carries the form login fields.
type LoginRequestDTO struct {
	Username string `validate:"required,max=255"`
	Password string `validate:"required,max=72"`
}
