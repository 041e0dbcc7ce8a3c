package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RevokedTokensSchema creates the revoked_tokens table.
const RevokedTokensSchema = `CREATE TABLE IF NOT EXISTS revoked_tokens (
  jti        CHAR(36)    NOT NULL,
  expires_at DATETIME(6) NOT NULL,
  revoked_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
  PRIMARY KEY (jti)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// TokenRepo persists revoked jtis in MySQL (one row per jti).
type TokenRepo struct {
	DB      *sql.DB
	Timeout time.Duration
}

func NewTokenRepo(db *sql.DB, timeout time.Duration) *TokenRepo {
	return &TokenRepo{DB: db, Timeout: timeout}
}

// Migrate creates the revoked_tokens table if it does not exist.
func (r *TokenRepo) Migrate(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.DB.ExecContext(ctx, RevokedTokensSchema); err != nil {
		return fmt.Errorf("%w: migrate revoked_tokens: %w", ErrUnavailable, err)
	}
	return nil
}

// Revoke records jti.  A second revoke of the same jti is a no-op.
func (r *TokenRepo) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?,?)",
		jti, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("%w: revoke: %w", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether jti has a row.
func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM revoked_tokens WHERE jti=? LIMIT 1", jti).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: revocation lookup: %w", ErrUnavailable, err)
	}
	return true, nil
}

func (r *TokenRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}
