package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/model"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// UsersSchema creates the users table.  Children are kept as a JSON document
// since they are only ever read and written with the owning account.
const UsersSchema = `CREATE TABLE IF NOT EXISTS users (
  id            CHAR(36)     NOT NULL,
  email         VARCHAR(320) NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  name          VARCHAR(255) NOT NULL,
  is_parent     TINYINT(1)   NULL,
  points        INT          NULL,
  children      JSON         NOT NULL,
  created_at    DATETIME(6)  NOT NULL,
  last_login    DATETIME(6)  NULL,
  PRIMARY KEY (email),
  UNIQUE KEY uq_users_id (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

const userColumns = "id,email,password_hash,name,is_parent,points,children,created_at,last_login"

// UserRepo is the MySQL-backed CredentialStore.
type UserRepo struct {
	DB      *sql.DB
	Timeout time.Duration
}

func NewUserRepo(db *sql.DB, timeout time.Duration) *UserRepo {
	return &UserRepo{DB: db, Timeout: timeout}
}

// Migrate creates the users table if it does not exist.
func (r *UserRepo) Migrate(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.DB.ExecContext(ctx, UsersSchema); err != nil {
		return fmt.Errorf("%w: migrate users: %w", ErrUnavailable, err)
	}
	return nil
}

// GetByEmail fetches a user by its storage key.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by its opaque id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// Create inserts u.  A duplicate email maps to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	children := u.Children
	if children == nil {
		children = []model.Child{}
	}
	doc, err := json.Marshal(children)
	if err != nil {
		return fmt.Errorf("encode children: %w", err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?)",
		u.ID, u.Email, u.PasswordHash, u.Name,
		nullBool(u.IsParent), nullInt(u.Points), doc, u.CreatedAt, nullTime(u.LastLogin))
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrEmailExists
		}
		return fmt.Errorf("%w: insert user: %w", ErrUnavailable, err)
	}
	return nil
}

// Update applies the set fields of patch to the row keyed by email.
func (r *UserRepo) Update(ctx context.Context, email string, patch model.UserPatch) error {
	if patch.LastLogin == nil {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login=? WHERE email=?", patch.LastLogin.UTC(), email)
	if err != nil {
		return fmt.Errorf("%w: update user: %w", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update user: %w", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u         model.User
		isParent  sql.NullBool
		points    sql.NullInt64
		children  []byte
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name,
		&isParent, &points, &children, &u.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("%w: query user: %w", ErrUnavailable, err)
	}
	if len(children) > 0 {
		if err := json.Unmarshal(children, &u.Children); err != nil {
			return model.User{}, fmt.Errorf("%w: decode children: %w", ErrUnavailable, err)
		}
	}
	if isParent.Valid {
		b := isParent.Bool
		u.IsParent = &b
	}
	if points.Valid {
		p := int(points.Int64)
		u.Points = &p
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
