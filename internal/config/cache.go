package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware used on
// the public wiki endpoints. Caching is off when Enabled is false or no
// Redis client is available.
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED" envDefault:"true"`
	MethodList   []string      `env:"CACHE_METHODS" envSeparator:"," envDefault:"GET"`
	TTL          time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
	Prefix       string        `env:"CACHE_PREFIX" envDefault:"cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`

	// Methods is MethodList upper-cased as a set.
	Methods map[string]bool
}

func (cc *CacheConfig) normalize() {
	cc.Methods = map[string]bool{}
	for _, m := range cc.MethodList {
		if m = strings.TrimSpace(strings.ToUpper(m)); m != "" {
			cc.Methods[m] = true
		}
	}
	if cc.TTL <= 0 {
		cc.TTL = 30 * time.Second
	}
}
