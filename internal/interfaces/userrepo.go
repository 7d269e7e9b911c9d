package interfaces

import (
	"context"
	"errors"

	"github.com/haguru/myblog/internal/models"
)

var (
	// ErrDuplicateUsername is returned by Save when the store's uniqueness constraint on username rejects the write.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail is returned by Save when the store's uniqueness constraint on email rejects the write.
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository defines the contract for storing and retrieving User data.
// This interface remains the same as it's database-agnostic.
type UserRepository interface {
	// FindByUsername returns (nil, nil) when no user matches.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save persists a new user and returns it with the store-assigned ID.
	Save(ctx context.Context, user models.User) (*models.User, error)
	EnsureIndices(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
