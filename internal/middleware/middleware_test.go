package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eunhae2004/MakeFinalProject-main/internal/apperror"
	"github.com/eunhae2004/MakeFinalProject-main/internal/config"
	"github.com/eunhae2004/MakeFinalProject-main/internal/repository/memory"
	"github.com/eunhae2004/MakeFinalProject-main/internal/token"
)

func newTokens(t *testing.T) *token.Service {
	t.Helper()
	svc, err := token.New(token.Options{
		Secret:     "test-secret",
		Algorithm:  "HS256",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
	}, memory.New().Revocations())
	require.NoError(t, err)
	return svc
}

func newCtx(e *echo.Echo, method, target string, header http.Header) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func errCode(t *testing.T, err error) string {
	t.Helper()
	ae, found := apperror.As(err)
	require.True(t, found, "expected *apperror.Error, got %v", err)
	return ae.Code
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	tokens := newTokens(t)
	access, err := tokens.IssueAccess("user-1")
	require.NoError(t, err)
	refresh, err := tokens.IssueRefresh("user-1")
	require.NoError(t, err)

	mw := JWTAuth(tokens)

	t.Run("missing header", func(t *testing.T) {
		c, _ := newCtx(e, http.MethodGet, "/", nil)
		err := mw(ok)(c)
		assert.Equal(t, apperror.CodeUnauthorized, errCode(t, err))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		c, _ := newCtx(e, http.MethodGet, "/", http.Header{"Authorization": {"Basic abc"}})
		assert.Equal(t, apperror.CodeUnauthorized, errCode(t, mw(ok)(c)))
	})

	t.Run("refresh token refused", func(t *testing.T) {
		c, _ := newCtx(e, http.MethodGet, "/", http.Header{"Authorization": {"Bearer " + refresh}})
		assert.Equal(t, apperror.CodeTokenTypeInvalid, errCode(t, mw(ok)(c)))
	})

	t.Run("tampered signature", func(t *testing.T) {
		bad := access[:len(access)-2] + "xx"
		c, _ := newCtx(e, http.MethodGet, "/", http.Header{"Authorization": {"Bearer " + bad}})
		assert.Equal(t, apperror.CodeTokenInvalid, errCode(t, mw(ok)(c)))
	})

	t.Run("valid access token", func(t *testing.T) {
		c, rec := newCtx(e, http.MethodGet, "/", http.Header{"Authorization": {"bearer " + access}})
		require.NoError(t, mw(ok)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", UserID(c))
	})
}

func TestUserIDDefaults(t *testing.T) {
	c, _ := newCtx(echo.New(), http.MethodGet, "/", nil)
	assert.Equal(t, "", UserID(c))
	assert.Equal(t, "anon", rateSubject(c))
	c.Set(ContextUserID, "u")
	assert.Equal(t, "u", rateSubject(c))
}

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
	}
}

func TestTokenBucketLocalFallback(t *testing.T) {
	e := echo.New()
	tb := NewTokenBucket(rateCfg(), nil, zerolog.Nop())
	h := tb.Middleware()(ok)

	for i := 0; i < 2; i++ {
		c, rec := newCtx(e, http.MethodPost, "/auth/login", nil)
		require.NoError(t, h(c))
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	c, rec := newCtx(e, http.MethodPost, "/auth/login", nil)
	err := h(c)
	assert.Equal(t, apperror.CodeRateLimited, errCode(t, err))
	assert.Equal(t, http.StatusTooManyRequests, apperror.KindOf(err).Status())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Another client has its own bucket.
	c, _ = newCtx(e, http.MethodPost, "/auth/login", http.Header{"X-Real-Ip": {"10.0.0.9"}})
	assert.NoError(t, h(c))
}

func TestTokenBucketDisabled(t *testing.T) {
	cfg := rateCfg()
	cfg.Enabled = false
	cfg.Capacity = 1
	h := NewTokenBucket(cfg, nil, zerolog.Nop()).Middleware()(ok)
	e := echo.New()
	for i := 0; i < 5; i++ {
		c, _ := newCtx(e, http.MethodPost, "/auth/login", nil)
		require.NoError(t, h(c))
	}
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	c, _ := newCtx(e, http.MethodPost, "/auth/login", http.Header{"X-Real-Ip": {"1.2.3.4"}})
	c.SetPath("/auth/login")
	c.Set(ContextUserID, "u1")

	cases := map[string]string{
		"ip":         "rl:ip:1.2.3.4",
		"user":       "rl:user:u1",
		"route":      "rl:route:POST /auth/login",
		"ip_user":    "rl:ip:1.2.3.4:user:u1",
		"user_route": "rl:user:u1:route:POST /auth/login",
		"":           "rl:ip:1.2.3.4:user:u1:route:POST /auth/login",
	}
	for strategy, want := range cases {
		cfg := rateCfg()
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, rateKey(cfg, c), strategy)
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 0, 99, '{'})
	assert.False(t, ok)
}

func TestCacheKeyIgnoresUnselectedParts(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route"}
	a, _ := newCtx(e, http.MethodGet, "/wiki/plants?cursor=a", nil)
	b, _ := newCtx(e, http.MethodGet, "/wiki/plants?cursor=b", nil)
	a.SetPath("/wiki/plants")
	b.SetPath("/wiki/plants")
	assert.Equal(t, cacheKey(cfg, a), cacheKey(cfg, b))

	cfg.KeyStrategy = "route_query"
	assert.NotEqual(t, cacheKey(cfg, a), cacheKey(cfg, b))
}

func TestResponseCachePassThroughWithoutRedis(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}
	h := NewResponseCache(cfg, nil, zerolog.Nop()).Middleware()(ok)
	c, rec := newCtx(echo.New(), http.MethodGet, "/wiki/plants", nil)
	require.NoError(t, h(c))
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCaptureWriterTruncation(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.truncated)
	_, _ = cw.Write([]byte("def"))
	assert.True(t, cw.truncated)
	assert.Equal(t, "abcdef", rec.Body.String())
}

type observed struct {
	method, route string
	status        int
}

type fakeObserver struct{ got []observed }

func (f *fakeObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.got = append(f.got, observed{method, route, status})
}

func TestMetricsAndRequestLogger(t *testing.T) {
	e := echo.New()
	var buf bytes.Buffer
	obs := &fakeObserver{}
	failing := func(echo.Context) error {
		return apperror.NotFound(apperror.CodeNotFound, "plant not found")
	}
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		ae, _ := apperror.As(err)
		_ = c.JSON(ae.Status(), map[string]string{"code": ae.Code})
	}
	h := Metrics(obs)(RequestLogger(zerolog.New(&buf))(failing))

	c, rec := newCtx(e, http.MethodGet, "/plants/x", nil)
	c.SetPath("/plants/:id")
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Len(t, obs.got, 1)
	assert.Equal(t, observed{http.MethodGet, "/plants/:id", http.StatusNotFound}, obs.got[0])

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
	assert.Equal(t, "/plants/:id", line["route"])
}
