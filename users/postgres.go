package users

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// DBTX is the database handle the repo needs. *sql.DB and *sql.Tx both satisfy it.
type DBTX interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const (
	userColumns = `id, email, password_hash, role, producer_id, active, date_joined, last_login`

	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	getUserByIDSQL    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
)

// PostgresRepo is a read-only Postgres implementation of Repo. Account writes
// are owned by the main platform backend.
type PostgresRepo struct {
	db DBTX
}

var _ Repo = (*PostgresRepo)(nil)

func NewPostgresRepo(db DBTX) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, getUserByEmailSQL, email))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, getUserByIDSQL, id))
}

func (r *PostgresRepo) scanUser(row *sql.Row) (*User, error) {
	var (
		user       User
		producerID sql.NullString
		lastLogin  sql.NullTime
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&producerID,
		&user.Active,
		&user.DateJoined,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "[PostgresRepo.scanUser] scanning user row")
	}
	user.ProducerID = producerID.String
	if lastLogin.Valid {
		user.LastLogin = lastLogin.Time
	}
	return &user, nil
}
