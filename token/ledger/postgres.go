package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DBTX is the subset of database/sql used by the Postgres repo, satisfied by
// both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresRepo implements Repo over PostgreSQL (pgx stdlib driver).
type PostgresRepo struct {
	db      DBTX
	nowFunc func() time.Time
}

// PostgresRepoOption defines a function type to modify the PostgresRepo instance.
type PostgresRepoOption func(*PostgresRepo)

// WithPostgresNowFunc sets the clock function (primarily for testing).
func WithPostgresNowFunc(now func() time.Time) PostgresRepoOption {
	return func(r *PostgresRepo) {
		r.nowFunc = now
	}
}

// NewPostgresRepo constructs a repo bound to the given DBTX.
func NewPostgresRepo(db DBTX, options ...PostgresRepoOption) *PostgresRepo {
	r := &PostgresRepo{
		db:      db,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

var _ Repo = (*PostgresRepo)(nil)

// Create inserts a new refresh token record. The unique constraint on the token
// column rejects duplicate token strings.
func (r *PostgresRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) (string, error) {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token, issued_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`
	id := uuid.New().String()
	if _, err := r.db.ExecContext(ctx, query, id, userID, token, r.nowFunc(), expiresAt); err != nil {
		return "", errors.Wrap(err, "[PostgresRepo.Create] INSERT refresh_tokens")
	}
	return id, nil
}

// FindByToken returns the record for the given raw token string, or ErrNotFound.
func (r *PostgresRepo) FindByToken(ctx context.Context, token string) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, token, issued_at, expires_at, revoked
		FROM refresh_tokens
		WHERE token = $1
	`
	record := &RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&record.ID,
		&record.UserID,
		&record.Token,
		&record.IssuedAt,
		&record.ExpiresAt,
		&record.Revoked,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "[PostgresRepo.FindByToken] SELECT refresh_tokens")
	}
	return record, nil
}

// Revoke marks a record revoked. Zero rows affected is fine: the record is
// either already revoked or gone, both of which satisfy the caller.
func (r *PostgresRepo) Revoke(ctx context.Context, id string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return errors.Wrap(err, "[PostgresRepo.Revoke] UPDATE refresh_tokens")
	}
	return nil
}
