package interfaces

import (
	"context"

	"github.com/haguru/myblog/internal/models"
	"github.com/haguru/myblog/internal/models/dto"
)

type UserService interface {
	RegisterUser(ctx context.Context, request dto.RegistrationRequestDTO) error
	AuthenticateUser(ctx context.Context, username, password string) (*models.User, error)
}
