package users_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agrobridge/auth-service/users"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*users.PostgresRepo, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return users.NewPostgresRepo(db), mock
}

func userRows(producerID interface{}, lastLogin interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "producer_id", "active", "date_joined", "last_login"}).
		AddRow("user-1", "ana@example.com", "$2a$10$hash", "producer", producerID, true, time.Now().Add(-30*24*time.Hour), lastLogin)
}

func TestGetByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+.*\s+FROM\s+users\s+WHERE\s+email\s+=\s+\$1`).
		WithArgs("ana@example.com").
		WillReturnRows(userRows("prod-9", time.Now()))

	user, err := repo.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.Equal(t, users.RoleProducer, user.Role)
	require.Equal(t, "prod-9", user.ProducerID)
	require.True(t, user.Active)
}

func TestGetByEmailNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+.*\s+FROM\s+users\s+WHERE\s+email\s+=\s+\$1`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, users.ErrNotFound)
}

func TestGetByIDNullableColumns(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+.*\s+FROM\s+users\s+WHERE\s+id\s+=\s+\$1`).
		WithArgs("user-1").
		WillReturnRows(userRows(nil, nil))

	user, err := repo.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	require.Empty(t, user.ProducerID)
	require.True(t, user.LastLogin.IsZero())
}
