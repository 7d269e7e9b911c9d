package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/haguru/myblog/internal/interfaces"
	"github.com/haguru/myblog/internal/models"
	"github.com/haguru/myblog/internal/models/dto"
	"github.com/haguru/myblog/pkg/helper"
)

type UserService struct {
	UserRepo interfaces.UserRepository
	Hasher   interfaces.PasswordHasher
	Logger   interfaces.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(repo interfaces.UserRepository, hasher interfaces.PasswordHasher, logger interfaces.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		Hasher:   hasher,
		Logger:   logger,
	}
}

// RegisterUser validates the request and stores a new user with a hashed password.
// Checks run in order and the first failure wins: blank password, taken username,
// taken email. Nothing is written unless all of them pass.
func (s *UserService) RegisterUser(ctx context.Context, request dto.RegistrationRequestDTO) error {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "user", request.Username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", request.Username)

	if strings.TrimSpace(request.Password) == "" {
		s.Logger.Warn(MsgPasswordRequired, "func", funcName, "user", request.Username)
		return invalidInput(MsgPasswordRequired)
	}

	taken, err := s.UserRepo.ExistsByUsername(ctx, request.Username)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "user", request.Username, "error", err)
		return fmt.Errorf("%s: %w", ErrFailedToRegisterUser, err)
	}
	if taken {
		s.Logger.Warn(MsgUsernameInUse, "func", funcName, "user", request.Username)
		return conflict(MsgUsernameInUse)
	}

	taken, err = s.UserRepo.ExistsByEmail(ctx, request.Email)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "user", request.Username, "error", err)
		return fmt.Errorf("%s: %w", ErrFailedToRegisterUser, err)
	}
	if taken {
		s.Logger.Warn(MsgEmailInUse, "func", funcName, "user", request.Username)
		return conflict(MsgEmailInUse)
	}

	hashedPassword, err := s.Hasher.Hash(request.Password)
	if errors.Is(err, interfaces.ErrPasswordTooLong) {
		s.Logger.Warn(MsgPasswordTooLong, "func", funcName, "user", request.Username)
		return invalidInput(MsgPasswordTooLong)
	}
	if err != nil {
		s.Logger.Error(ErrFailedToHashPassword, "func", funcName, "user", request.Username, "error", err)
		return fmt.Errorf("%s: %s: %w", ErrFailedToRegisterUser, ErrFailedToHashPassword, err)
	}

	saved, err := s.UserRepo.Save(ctx, *models.NewUser(request.Username, request.Email, hashedPassword))
	switch {
	case errors.Is(err, interfaces.ErrDuplicateUsername):
		// lost a race with a concurrent registration of the same username
		s.Logger.Warn(MsgUsernameInUse, "func", funcName, "user", request.Username, "error", err)
		return conflict(MsgUsernameInUse)
	case errors.Is(err, interfaces.ErrDuplicateEmail):
		s.Logger.Warn(MsgEmailInUse, "func", funcName, "user", request.Username, "error", err)
		return conflict(MsgEmailInUse)
	case err != nil:
		s.Logger.Error(ErrFailedToRegisterUser, "func", funcName, "user", request.Username, "error", err)
		return fmt.Errorf("%s: %w", ErrFailedToRegisterUser, err)
	}

	s.Logger.Info("User registered successfully", "func", funcName, "user", saved.Username, "ID", saved.ID)
	return nil
}

// AuthenticateUser verifies a user's credentials and returns the stored user.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (*models.User, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "user", username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", username)

	user, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		s.Logger.Error(ErrRetrievingUser, "func", funcName, "user", username, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrRetrievingUser, err)
	}
	if user == nil {
		s.Logger.Warn(ErrUserNotFound, "func", funcName, "user", username)
		return nil, fmt.Errorf("%s: %w", ErrUserNotFound, ErrInvalidCredentials)
	}

	if err := s.Hasher.Verify(user.Password, password); err != nil {
		s.Logger.Warn(ErrInvalidPassword, "func", funcName, "user", username)
		return nil, fmt.Errorf("%s: %w", ErrInvalidPassword, ErrInvalidCredentials)
	}

	s.Logger.Info("User authenticated successfully", "func", funcName, "user", username)
	return user, nil
}
