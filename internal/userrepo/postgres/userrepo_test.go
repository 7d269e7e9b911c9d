package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/haguru/myblog/config"
	"github.com/haguru/myblog/internal/interfaces"
	"github.com/haguru/myblog/internal/interfaces/mocks"
	"github.com/haguru/myblog/internal/models"
	"github.com/haguru/myblog/internal/userrepo/postgres/migrations"
	pgclient "github.com/haguru/myblog/pkg/databases/postgres"
)

func newRepoWithMock(t *testing.T) (interfaces.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	client := pgclient.NewPostgresDatabaseClientFromDB(db, &config.PostgresConfig{
		ValidTables: []string{"users"},
		ValidFields: []string{"id", "username", "email", "password"},
	})
	repo, err := NewPostgresUserRepository(client)
	require.NoError(t, err)
	return repo, mock
}

func TestNewPostgresUserRepository_NilClient(t *testing.T) {
	_, err := NewPostgresUserRepository(nil)
	assert.Error(t, err)
}

func TestPostgresUserRepository_Save(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users \(email, password, username\) VALUES \(\$1, \$2, \$3\) RETURNING id`).
		WithArgs("testuser@example.com", "encodedPassword123", "testuser").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	saved, err := repo.Save(context.Background(), *models.NewUser("testuser", "testuser@example.com", "encodedPassword123"))
	require.NoError(t, err)
	assert.Equal(t, &models.User{
		ID:       1,
		Email:    "testuser@example.com",
		Username: "testuser",
		Password: "encodedPassword123",
	}, saved)
}

func TestPostgresUserRepository_Save_UniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		wantErr    error
	}{
		{name: "username taken", constraint: "users_username_key", wantErr: interfaces.ErrDuplicateUsername},
		{name: "email taken", constraint: "users_email_key", wantErr: interfaces.ErrDuplicateEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectQuery(`INSERT INTO users`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint, Message: "duplicate key value violates unique constraint"})

			_, err := repo.Save(context.Background(), *models.NewUser("testuser", "testuser@example.com", "hash"))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPostgresUserRepository_Save_OtherError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23502", Constraint: ""})

	_, err := repo.Save(context.Background(), *models.NewUser("testuser", "testuser@example.com", "hash"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, interfaces.ErrDuplicateUsername))
	assert.False(t, errors.Is(err, interfaces.ErrDuplicateEmail))
}

func TestPostgresUserRepository_FindByUsername(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT id, email, username, password FROM users WHERE username = \$1 LIMIT 1`).
		WithArgs("testuser").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password"}).
			AddRow(int64(4), "testuser@example.com", "testuser", "hash"))

	user, err := repo.FindByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: 4, Email: "testuser@example.com", Username: "testuser", Password: "hash"}, user)
}

func TestPostgresUserRepository_FindByUsername_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT id, email, username, password FROM users`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password"}))

	user, err := repo.FindByUsername(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestPostgresUserRepository_Exists(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE username = \$1\)`).
		WithArgs("testuser").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE email = \$1\)`).
		WithArgs("testuser@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	byUsername, err := repo.ExistsByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.True(t, byUsername)

	byEmail, err := repo.ExistsByEmail(context.Background(), "testuser@example.com")
	require.NoError(t, err)
	assert.False(t, byEmail)
}

func TestPostgresUserRepository_EnsureIndices(t *testing.T) {
	client := mocks.NewMockDBClient(t)
	client.On("EnsureSchema", mock.Anything, "users", migrations.Migrations).Return(nil)

	repo, err := NewPostgresUserRepository(client)
	require.NoError(t, err)
	assert.NoError(t, repo.EnsureIndices(context.Background()))
}

func TestMigrationsEmbedded(t *testing.T) {
	content, err := migrations.Migrations.ReadFile("00001_create_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(content), "CONSTRAINT users_username_key UNIQUE (username)")
	assert.Contains(t, string(content), "CONSTRAINT users_email_key UNIQUE (email)")
}
