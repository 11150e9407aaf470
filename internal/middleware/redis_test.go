package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/config"
	"github.com/iliyamo/course-platform/internal/logging"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func TestTokenBucket_BlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	e := echo.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(logging.Nop{})
	e.POST("/auth/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(rateCfg(), rdb, logging.Nop{}))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = do(e, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	retry, err := strconv.Atoi(last.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 0)
	assert.Contains(t, last.Body.String(), `"code":"RATE_LIMITED"`)
}

func TestTokenBucket_SeparateRoutes(t *testing.T) {
	_, rdb := newRedis(t)
	e := echo.New()
	mw := NewTokenBucket(rateCfg(), rdb, logging.Nop{})
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.POST("/a", ok, mw)
	e.POST("/b", ok, mw)

	for i := 0; i < 2; i++ {
		do(e, httptest.NewRequest(http.MethodPost, "/a", nil))
	}
	assert.Equal(t, http.StatusOK, do(e, httptest.NewRequest(http.MethodPost, "/b", nil)).Code)
}

func TestTokenBucket_RedisDownPassesThrough(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	e := echo.New()
	e.POST("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(rateCfg(), rdb, logging.Nop{}))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(e, httptest.NewRequest(http.MethodPost, "/x", nil)).Code)
	}
}

func TestTokenBucket_DisabledOrNilClient(t *testing.T) {
	cfg := rateCfg()
	cfg.Enabled = false
	_, rdb := newRedis(t)
	assert.NotNil(t, NewTokenBucket(cfg, rdb, logging.Nop{}))
	assert.NotNil(t, NewTokenBucket(rateCfg(), nil, logging.Nop{}))
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "catalog",
		MaxBodyBytes: 1 << 20,
	}
}

func TestRedisCache_HitMissAndInvalidate(t *testing.T) {
	_, rdb := newRedis(t)
	var calls int32

	e := echo.New()
	cache := NewRedisCache(cacheCfg(), rdb, logging.Nop{})
	invalidate := InvalidateOnWrite(cacheCfg(), rdb, logging.Nop{})
	e.GET("/courses/:id", func(c echo.Context) error {
		n := atomic.AddInt32(&calls, 1)
		return c.JSON(http.StatusOK, map[string]any{"id": c.Param("id"), "n": n})
	}, cache)
	e.GET("/missing", func(c echo.Context) error {
		atomic.AddInt32(&calls, 1)
		return c.NoContent(http.StatusNotFound)
	}, cache)
	e.POST("/courses", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, invalidate)

	first := do(e, httptest.NewRequest(http.MethodGet, "/courses/1", nil))
	second := do(e, httptest.NewRequest(http.MethodGet, "/courses/1", nil))
	other := do(e, httptest.NewRequest(http.MethodGet, "/courses/2", nil))

	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"), "path params are part of the key")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	do(e, httptest.NewRequest(http.MethodGet, "/missing", nil))
	do(e, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.EqualValues(t, 4, atomic.LoadInt32(&calls), "non-200 responses are not cached")

	assert.Equal(t, http.StatusCreated, do(e, httptest.NewRequest(http.MethodPost, "/courses", nil)).Code)
	keys, err := rdb.Keys(context.Background(), "catalog:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	after := do(e, httptest.NewRequest(http.MethodGet, "/courses/1", nil))
	assert.Equal(t, "MISS", after.Header().Get("X-Cache"))
}

func TestInvalidateCache_OnlyPrefix(t *testing.T) {
	mr, rdb := newRedis(t)
	require.NoError(t, mr.Set("catalog:a", "1"))
	require.NoError(t, mr.Set("catalog:b", "1"))
	require.NoError(t, mr.Set("rl:ip:1", "1"))

	require.NoError(t, InvalidateCache(context.Background(), rdb, "catalog"))

	assert.False(t, mr.Exists("catalog:a"))
	assert.False(t, mr.Exists("catalog:b"))
	assert.True(t, mr.Exists("rl:ip:1"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func TestRedisCache_HitKeepsSingleCORSHeaders(t *testing.T) {
	_, rdb := newRedis(t)
	const origin = "http://localhost:5173"

	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: []string{origin}, AllowCredentials: true}))
	e.GET("/courses/categories", func(c echo.Context) error {
		return c.JSON(http.StatusOK, []string{"AI Ethics"})
	}, NewRedisCache(cacheCfg(), rdb, logging.Nop{}))

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/courses/categories", nil)
		req.Header.Set(echo.HeaderOrigin, origin)
		return do(e, req)
	}
	miss, hit := get(), get()

	require.Equal(t, "MISS", miss.Header().Get("X-Cache"))
	require.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.Equal(t, []string{origin}, hit.Header().Values(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, []string{"true"}, hit.Header().Values(echo.HeaderAccessControlAllowCredentials))
	assert.Len(t, hit.Header().Values(echo.HeaderVary), len(miss.Header().Values(echo.HeaderVary)))
	assert.Len(t, hit.Header().Values(echo.HeaderXRequestID), 1)
	assert.NotEqual(t, miss.Header().Get(echo.HeaderXRequestID), hit.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, miss.Body.String(), hit.Body.String())
}

func TestPerRequestHeader(t *testing.T) {
	for _, k := range []string{"access-control-allow-origin", "Access-Control-Expose-Headers", "Vary", "X-Request-Id", "content-length"} {
		assert.True(t, perRequestHeader(k), k)
	}
	assert.False(t, perRequestHeader("Content-Type"))
}
