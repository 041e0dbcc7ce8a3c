package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/model"
)

var userCols = []string{"id", "email", "password_hash", "name", "is_parent", "points", "children", "created_at", "last_login"}

func newUserRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db, time.Second), mock
}

func TestUserRepo_GetByEmail_Found(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(userCols).AddRow(
		"u1", "a@b.com", "digest", "Kid", true, nil,
		[]byte(`[{"id":"u1","name":"Kid","points":3},{"id":"c2","name":"Two","points":5}]`),
		created, nil)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\? LIMIT 1`).
		WithArgs("a@b.com").
		WillReturnRows(rows)

	u, err := repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)

	assert.Equal(t, "u1", u.ID)
	require.NotNil(t, u.IsParent)
	assert.True(t, *u.IsParent)
	assert.Nil(t, u.Points)
	assert.Nil(t, u.LastLogin)
	require.Len(t, u.Children, 2)
	assert.Equal(t, 8, model.PrepareUserResponse(u).Points)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\? LIMIT 1`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_GetByID_DBError(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\?`).
		WithArgs("u1").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.GetByID(context.Background(), "u1")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestUserRepo_Create(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	points := 0
	u := sampleUser("u1", "a@b.com")
	u.Points = &points

	mock.ExpectExec(`INSERT INTO users \(.+\) VALUES \(\?,\?,\?,\?,\?,\?,\?,\?,\?\)`).
		WithArgs("u1", "a@b.com", "digest", "Kid", sqlmock.AnyArg(), int64(0), sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), sampleUser("u1", "a@b.com"))
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_Update(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	at := time.Date(2025, 2, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE users SET last_login=\? WHERE email=\?`).
		WithArgs(at, "a@b.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), "a@b.com", model.UserPatch{LastLogin: &at}))

	mock.ExpectExec(`UPDATE users SET last_login=\? WHERE email=\?`).
		WithArgs(at, "x@b.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Update(context.Background(), "x@b.com", model.UserPatch{LastLogin: &at}), ErrNotFound)

	require.NoError(t, repo.Update(context.Background(), "a@b.com", model.UserPatch{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Migrate(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
