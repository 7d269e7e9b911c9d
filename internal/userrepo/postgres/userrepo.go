package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/haguru/myblog/internal/interfaces"
	"github.com/haguru/myblog/internal/models"
	"github.com/haguru/myblog/internal/userrepo/constants"
	"github.com/haguru/myblog/internal/userrepo/postgres/migrations"
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for a unique constraint violation.
const uniqueViolation = "23505"

// PostgresUserRepository implements UserRepository for PostgreSQL databases.
type PostgresUserRepository struct {
	dbClient interfaces.DBClient
}

// NewPostgresUserRepository creates a new PostgreSQL repository instance.
func NewPostgresUserRepository(dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &PostgresUserRepository{dbClient: dbClient}, nil
}

// Save inserts user and returns it with the id assigned by the users_id sequence.
func (r *PostgresUserRepository) Save(ctx context.Context, user models.User) (*models.User, error) {
	doc := map[string]interface{}{
		constants.FieldEmail:    user.Email,
		constants.FieldUsername: user.Username,
		constants.FieldPassword: user.Password,
	}

	insertedID, err := r.dbClient.InsertOne(ctx, constants.UsersCollection, doc)
	if err != nil {
		return nil, translateInsertError(err)
	}

	id, ok := insertedID.(int64)
	if !ok {
		return nil, fmt.Errorf("failed to assert inserted ID to int64, got %T", insertedID)
	}
	user.ID = id
	return &user, nil
}

// FindByUsername returns (nil, nil) when no row matches.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	filter := map[string]interface{}{constants.FieldUsername: username}
	err := r.dbClient.FindOne(ctx, constants.UsersCollection, filter, &user)
	if errors.Is(err, interfaces.ErrNoDocument) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username from PostgreSQL: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, constants.FieldUsername, username)
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, constants.FieldEmail, email)
}

func (r *PostgresUserRepository) exists(ctx context.Context, field, value string) (bool, error) {
	found, err := r.dbClient.Exists(ctx, constants.UsersCollection, map[string]interface{}{field: value})
	if err != nil {
		return false, fmt.Errorf("failed to check %s in PostgreSQL: %w", field, err)
	}
	return found, nil
}

// EnsureIndices runs the embedded migrations, which create the users table
// with unique constraints on username and email.
func (r *PostgresUserRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, constants.UsersCollection, migrations.Migrations)
}

func (r *PostgresUserRepository) Ping(ctx context.Context) error {
	return r.dbClient.Ping(ctx)
}

// Close closes the PostgreSQL database connection.
func (r *PostgresUserRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}

func translateInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case constants.UsernameConstraint:
			return fmt.Errorf("%w: %s", interfaces.ErrDuplicateUsername, pqErr.Message)
		case constants.EmailConstraint:
			return fmt.Errorf("%w: %s", interfaces.ErrDuplicateEmail, pqErr.Message)
		}
	}
	return fmt.Errorf("failed to add user to PostgreSQL: %w", err)
}
