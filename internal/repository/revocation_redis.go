package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRevocationKey is the Redis set holding revoked jtis.
const DefaultRevocationKey = "buddysign:revoked_jti"

// RedisRevocations stores the revoked set in a single Redis set so every
// instance behind a load balancer, and every restart, sees the same state.
// SADD and SISMEMBER are atomic on the server.
type RedisRevocations struct {
	rdb redis.UniversalClient
	key string
}

func NewRedisRevocations(rdb redis.UniversalClient, key string) *RedisRevocations {
	if key == "" {
		key = DefaultRevocationKey
	}
	return &RedisRevocations{rdb: rdb, key: key}
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, _ time.Time) error {
	if err := r.rdb.SAdd(ctx, r.key, jti).Err(); err != nil {
		return fmt.Errorf("%w: revoke: %w", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ok, err := r.rdb.SIsMember(ctx, r.key, jti).Result()
	if err != nil {
		return false, fmt.Errorf("%w: revocation lookup: %w", ErrUnavailable, err)
	}
	return ok, nil
}

// Len reports the cardinality of the revoked set.
func (r *RedisRevocations) Len(ctx context.Context) (int64, error) {
	return r.rdb.SCard(ctx, r.key).Result()
}
