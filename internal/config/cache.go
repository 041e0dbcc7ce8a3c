package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// CacheConfig defines settings for the Redis response cache used on public,
// non-personalised GET endpoints.  Methods lists the cacheable HTTP methods.
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED" envDefault:"true"`
	MethodList   []string      `env:"CACHE_METHODS" envSeparator:"," envDefault:"GET"`
	TTL          time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
	Prefix       string        `env:"CACHE_PREFIX" envDefault:"cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`

	Methods map[string]bool `env:"-"`
}

// LoadCacheConfig parses CACHE_* variables.  Method names are upper-cased.
func LoadCacheConfig() (CacheConfig, error) {
	var cc CacheConfig
	if err := env.Parse(&cc); err != nil {
		return CacheConfig{}, err
	}
	cc.Methods = parseMethods(cc.MethodList)
	return cc, nil
}

func parseMethods(list []string) map[string]bool {
	m := map[string]bool{}
	for _, p := range list {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
