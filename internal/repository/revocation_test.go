package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocations_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevocations()
	exp := time.Now().Add(time.Hour)

	ok, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Revoke(ctx, "jti-1", exp))
	require.NoError(t, r.Revoke(ctx, "jti-1", exp))

	ok, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestMemoryRevocations_PastExpiryStillRevoked(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevocations()

	require.NoError(t, r.Revoke(ctx, "old", time.Now().Add(-time.Hour)))

	ok, err := r.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryRevocations_Concurrent(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevocations()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Revoke(ctx, "shared", time.Time{})
		}()
		go func() {
			defer wg.Done()
			_, _ = r.IsRevoked(ctx, "shared")
		}()
	}
	wg.Wait()

	ok, _ := r.IsRevoked(ctx, "shared")
	assert.True(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRedisRevocations(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := NewRedisRevocations(rdb, "")

	ok, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, r.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	ok, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := r.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	members, err := mr.Members(DefaultRevocationKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"jti-1"}, members)
}

func TestRedisRevocations_Unavailable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	r := NewRedisRevocations(rdb, "k")

	mr.Close()

	_, err := r.IsRevoked(ctx, "jti")
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, r.Revoke(ctx, "jti", time.Now()), ErrUnavailable)
}

func TestTokenRepo(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepo(db, time.Second)
	ctx := context.Background()
	exp := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT IGNORE INTO revoked_tokens \(jti, expires_at\) VALUES \(\?,\?\)`).
		WithArgs("jti-1", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Revoke(ctx, "jti-1", exp))

	mock.ExpectQuery(`SELECT 1 FROM revoked_tokens WHERE jti=\?`).
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	ok, err := repo.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(`SELECT 1 FROM revoked_tokens WHERE jti=\?`).
		WithArgs("jti-2").
		WillReturnError(sql.ErrNoRows)
	ok, err = repo.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(`SELECT 1 FROM revoked_tokens`).
		WillReturnError(sql.ErrConnDone)
	_, err = repo.IsRevoked(ctx, "jti-3")
	require.ErrorIs(t, err, ErrUnavailable)

	require.NoError(t, mock.ExpectationsWereMet())
}
