package middleware

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/eunhae2004/MakeFinalProject-main/internal/apperror"
	"github.com/eunhae2004/MakeFinalProject-main/internal/config"
)

// bucketScript refills KEYS[1] by whole intervals, then takes one token.
// It returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local intervals = math.floor(elapsed / interval_ms)
if intervals > 0 then
	tokens = math.min(capacity, tokens + intervals * refill_tokens)
	last_refill = last_refill + intervals * interval_ms
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, tokens, retry_after_ms }
`)

type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// TokenBucket limits requests per key. State lives in Redis when a client
// is available; otherwise, and whenever Redis fails, an in-process limiter
// from x/time/rate applies the same capacity and refill rate.
type TokenBucket struct {
	cfg   config.RateLimitConfig
	rdb   *redis.Client
	log   zerolog.Logger
	now   func() time.Time
	local *localBuckets
}

func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) *TokenBucket {
	every := cfg.RefillInterval / time.Duration(max(cfg.RefillTokens, 1))
	return &TokenBucket{
		cfg: cfg,
		rdb: rdb,
		log: log,
		now: time.Now,
		local: &localBuckets{
			limit:   rate.Every(every),
			burst:   max(cfg.Capacity, 1),
			ttl:     cfg.TTL,
			entries: map[string]*localEntry{},
		},
	}
}

// Middleware rejects callers that ran out of tokens with 429 RATE_LIMITED
// and a Retry-After header.
func (tb *TokenBucket) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !tb.cfg.Enabled {
			return next
		}
		return func(c echo.Context) error {
			key := rateKey(tb.cfg, c)
			d := tb.take(c, key)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(tb.cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if tb.cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if !d.allowed {
				secs := int(math.Ceil(d.retry.Seconds()))
				h.Set("Retry-After", strconv.Itoa(max(secs, 0)))
				if tb.cfg.Debug {
					tb.log.Debug().Str("key", key).Dur("retry", d.retry).Msg("rate limited")
				}
				return apperror.RateLimited(apperror.CodeRateLimited, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

func (tb *TokenBucket) take(c echo.Context, key string) decision {
	now := tb.now()
	if tb.rdb == nil {
		return tb.local.take(key, now)
	}
	vals, err := bucketScript.Run(c.Request().Context(), tb.rdb, []string{key},
		now.UnixMilli(),
		tb.cfg.Capacity,
		tb.cfg.RefillTokens,
		tb.cfg.RefillInterval.Milliseconds(),
		int64(tb.cfg.TTL/time.Second),
	).Slice()
	if err != nil || len(vals) != 3 {
		tb.log.Warn().Err(err).Str("key", key).Msg("redis rate limit unavailable, using local bucket")
		return tb.local.take(key, now)
	}
	return decision{
		allowed:   asInt64(vals[0]) == 1,
		remaining: asInt64(vals[1]),
		retry:     time.Duration(asInt64(vals[2])) * time.Millisecond,
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

type localEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type localBuckets struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu        sync.Mutex
	entries   map[string]*localEntry
	lastSweep time.Time
}

func (lb *localBuckets) take(key string, now time.Time) decision {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.ttl > 0 && now.Sub(lb.lastSweep) > lb.ttl {
		for k, e := range lb.entries {
			if now.Sub(e.lastSeen) > lb.ttl {
				delete(lb.entries, k)
			}
		}
		lb.lastSweep = now
	}
	e, ok := lb.entries[key]
	if !ok {
		e = &localEntry{lim: rate.NewLimiter(lb.limit, lb.burst)}
		lb.entries[key] = e
	}
	e.lastSeen = now

	if e.lim.AllowN(now, 1) {
		return decision{allowed: true, remaining: int64(e.lim.TokensAt(now))}
	}
	r := e.lim.ReserveN(now, 1)
	retry := r.DelayFrom(now)
	r.CancelAt(now)
	return decision{retry: retry}
}

// rateKey builds the bucket key according to cfg.KeyStrategy.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := rateSubject(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
