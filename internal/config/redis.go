package config

// Redis backs the shared revocation registry, the auth rate limiter and the
// info response cache.  When the server cannot be reached at startup the
// constructor returns nil and callers degrade: rate limiting and caching are
// switched off, and a redis revocation store is refused by main.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// RedisConfig lists the connection settings.  REDIS_HOST and REDIS_PORT take
// precedence over REDIS_ADDR when both are set.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT"`
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	TLS      bool   `env:"REDIS_TLS" envDefault:"false"`
}

// LoadRedisConfig parses REDIS_* variables.
func LoadRedisConfig() (RedisConfig, error) {
	var rc RedisConfig
	if err := env.Parse(&rc); err != nil {
		return RedisConfig{}, err
	}
	if rc.Host != "" && rc.Port != "" {
		rc.Addr = rc.Host + ":" + rc.Port
	}
	return rc, nil
}

// Options converts the config into go-redis options.
func (rc RedisConfig) Options() *redis.Options {
	opts := &redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	}
	if rc.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// NewRedisClient connects and pings with a short timeout.  It returns nil if
// the server is unreachable.
func NewRedisClient(rc RedisConfig) *redis.Client {
	client := redis.NewClient(rc.Options())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
