package httpx_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestForwardedIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:4000", nil, "192.0.2.1"},
		{"remote addr without port", "192.0.2.1", nil, "192.0.2.1"},
		{"first forwarded hop", "192.0.2.1:4000", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1"}, "203.0.113.7"},
		{"real ip", "192.0.2.1:4000", map[string]string{"X-Real-IP": "203.0.113.8"}, "203.0.113.8"},
		{"forwarded wins over real ip", "192.0.2.1:4000", map[string]string{
			"X-Forwarded-For": "203.0.113.9",
			"X-Real-IP":       "203.0.113.8",
		}, "203.0.113.9"},
		{"blank forwarded falls through", "192.0.2.1:4000", map[string]string{"X-Forwarded-For": " , "}, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.ForwardedIPKeyExtractor(req))
		})
	}
}

func loginRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/account/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:4000"
	return req
}

func TestJSONFieldKeyExtractor(t *testing.T) {
	email := httpx.JSONFieldKeyExtractor("email")

	t.Run("normalises the value", func(t *testing.T) {
		require.Equal(t, "alice@x.io", email(loginRequest(`{"email":"  Alice@X.io ","password":"p"}`)))
	})

	t.Run("handler can read the body again", func(t *testing.T) {
		body := `{"email":"bob@x.io","password":"secret1"}`
		req := loginRequest(body)
		require.Equal(t, "bob@x.io", email(req))

		rest, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Equal(t, body, string(rest))
	})

	for name, body := range map[string]string{
		"missing field": `{"password":"p"}`,
		"not a string":  `{"email":42}`,
		"not json":      `email=alice`,
		"empty body":    ``,
	} {
		t.Run(name, func(t *testing.T) {
			require.Empty(t, email(loginRequest(body)))
		})
	}
}

func TestCompositeKeyExtractor(t *testing.T) {
	key := httpx.CompositeKeyExtractor(":", httpx.RemoteIPKeyExtractor, httpx.JSONFieldKeyExtractor("email"))

	require.Equal(t, "192.0.2.1:carol@x.io", key(loginRequest(`{"email":"carol@x.io"}`)))
	require.Equal(t, "192.0.2.1", key(loginRequest(`{}`)))

	anonymous := httpx.CompositeKeyExtractor(":", httpx.UserIDKeyExtractor)
	require.Empty(t, anonymous(loginRequest(`{}`)))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := httpx.NewMemoryLimiterWithClock(
		httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3},
		clock.Now,
	)

	for i := range 3 {
		allowed, _, err := limiter.Allow(ctx, "a")
		require.NoError(t, err)
		require.True(t, allowed, "request %d", i+1)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	require.False(t, allowed)
	require.InDelta(t, float64(20*time.Second), float64(retryAfter), float64(time.Millisecond))

	// A rejection does not consume the next token.
	clock.Advance(21 * time.Second)
	allowed, _, err = limiter.Allow(ctx, "a")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestMemoryLimiter_DropsIdleBuckets(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := httpx.NewMemoryLimiterWithClock(
		httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10},
		clock.Now,
	)

	for _, key := range []string{"a", "b", "c"} {
		_, _, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
	}
	require.Equal(t, 3, httpx.MemoryLimiterKeys(limiter))

	clock.Advance(10 * time.Minute)
	allowed, _, err := limiter.Allow(ctx, "d")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, httpx.MemoryLimiterKeys(limiter))
}

type stubLimiter struct {
	allowed    bool
	retryAfter time.Duration
	err        error
	keys       []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.retryAfter, s.err
}

func serveLimited(mw httpx.Middleware, req *http.Request) (*httptest.ResponseRecorder, bool) {
	called := false
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, called
}

func TestRateLimitMiddleware(t *testing.T) {
	config := httpx.RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	t.Run("rejected", func(t *testing.T) {
		limiter := &stubLimiter{retryAfter: 1500 * time.Millisecond}
		rec, called := serveLimited(httpx.RateLimitMiddleware(limiter, config, httpx.RemoteIPKeyExtractor), loginRequest(`{}`))

		require.False(t, called)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "2", rec.Header().Get("Retry-After"))
		require.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), "Too many requests")
		require.Equal(t, []string{"192.0.2.1"}, limiter.keys)
	})

	t.Run("retry after is at least one second", func(t *testing.T) {
		limiter := &stubLimiter{retryAfter: 10 * time.Millisecond}
		rec, _ := serveLimited(httpx.RateLimitMiddleware(limiter, config, httpx.RemoteIPKeyExtractor), loginRequest(`{}`))
		require.Equal(t, "1", rec.Header().Get("Retry-After"))
	})

	t.Run("allowed", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}
		rec, called := serveLimited(httpx.RateLimitMiddleware(limiter, config, httpx.RemoteIPKeyExtractor), loginRequest(`{}`))
		require.True(t, called)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("backend error fails open", func(t *testing.T) {
		limiter := &stubLimiter{err: errors.New("connection refused")}
		rec, called := serveLimited(httpx.RateLimitMiddleware(limiter, config, httpx.RemoteIPKeyExtractor), loginRequest(`{}`))
		require.True(t, called)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("no key skips the limiter", func(t *testing.T) {
		limiter := &stubLimiter{}
		noKey := func(*http.Request) string { return "" }
		_, called := serveLimited(httpx.RateLimitMiddleware(limiter, config, noKey), loginRequest(`{}`))
		require.True(t, called)
		require.Empty(t, limiter.keys)
	})
}

func TestRateLimiter_ByIPAndJSONField(t *testing.T) {
	var rl httpx.RateLimiter
	mw := rl.ByIPAndJSONField("login", httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Hour, Burst: 2}, "email")
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), "@x.io")
		w.WriteHeader(http.StatusOK)
	}))

	status := func(body string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, loginRequest(body))
		return rec.Code
	}

	require.Equal(t, http.StatusOK, status(`{"email":"dave@x.io"}`))
	require.Equal(t, http.StatusOK, status(`{"email":"DAVE@x.io"}`))
	require.Equal(t, http.StatusTooManyRequests, status(`{"email":"dave@x.io"}`))

	// Another account from the same address has its own bucket.
	require.Equal(t, http.StatusOK, status(`{"email":"erin@x.io"}`))
}

func TestRateLimiter_ByIP(t *testing.T) {
	var rl httpx.RateLimiter
	mw := rl.ByIP("register", httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 1})

	from := func(addr string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/account/register", nil)
		req.RemoteAddr = addr
		return req
	}

	rec, _ := serveLimited(mw, from("192.0.2.1:1"))
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = serveLimited(mw, from("192.0.2.1:2"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	rec, _ = serveLimited(mw, from("192.0.2.2:1"))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiter_ProxyHeaders(t *testing.T) {
	config := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Hour, Burst: 1}

	spoofed := func(hop string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/account/login", nil)
		req.RemoteAddr = "192.0.2.1:4000"
		req.Header.Set("X-Forwarded-For", hop)
		return req
	}

	t.Run("ignored by default", func(t *testing.T) {
		mw := httpx.RateLimiter{}.ByIP("login", config)
		rec, _ := serveLimited(mw, spoofed("203.0.113.1"))
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec, _ = serveLimited(mw, spoofed("203.0.113.2"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("trusted", func(t *testing.T) {
		mw := httpx.RateLimiter{TrustProxyHeaders: true}.ByIP("login", config)
		rec, _ := serveLimited(mw, spoofed("203.0.113.1"))
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec, _ = serveLimited(mw, spoofed("203.0.113.2"))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRemoteIPKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("X-Real-IP", "203.0.113.8")
	require.Equal(t, "192.0.2.1", httpx.RemoteIPKeyExtractor(req))

	req.RemoteAddr = "192.0.2.1"
	require.Equal(t, "192.0.2.1", httpx.RemoteIPKeyExtractor(req))
}

type scopeRecorder struct {
	scopes []string
}

func (s *scopeRecorder) NewLimiter(scope string, _ httpx.RateLimitConfig) httpx.Limiter {
	s.scopes = append(s.scopes, scope)
	return &stubLimiter{allowed: true}
}

func TestRateLimiter_UsesBackend(t *testing.T) {
	backend := &scopeRecorder{}
	rl := httpx.RateLimiter{Backend: backend}

	_ = rl.ByIP("register", httpx.StrictLimit)
	_ = rl.ByUser("me", httpx.LenientLimit)
	require.Equal(t, []string{"register", "me"}, backend.scopes)
}

func TestRateLimitProfiles(t *testing.T) {
	for name, profile := range map[string]httpx.RateLimitConfig{
		"strict":   httpx.StrictLimit,
		"moderate": httpx.ModerateLimit,
		"lenient":  httpx.LenientLimit,
		"public":   httpx.PublicLimit,
	} {
		require.Positive(t, profile.RequestsPerWindow, name)
		require.Positive(t, profile.Window, name)
		require.Positive(t, profile.Burst, name)
	}

	require.Less(t, httpx.StrictLimit.RequestsPerWindow, httpx.ModerateLimit.RequestsPerWindow)
	require.Less(t, httpx.ModerateLimit.RequestsPerWindow, httpx.LenientLimit.RequestsPerWindow)
	require.Less(t, httpx.LenientLimit.RequestsPerWindow, httpx.PublicLimit.RequestsPerWindow)
}

func TestParseRateLimitFromEnv(t *testing.T) {
	defaults := httpx.RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	tests := []struct {
		name string
		env  map[string]string
		want httpx.RateLimitConfig
	}{
		{"unset", nil, defaults},
		{"requests", map[string]string{"RATELIMIT_TEST_REQUESTS": "50"},
			httpx.RateLimitConfig{RequestsPerWindow: 50, Window: time.Minute, Burst: 5}},
		{"window", map[string]string{"RATELIMIT_TEST_WINDOW_SEC": "300"},
			httpx.RateLimitConfig{RequestsPerWindow: 5, Window: 5 * time.Minute, Burst: 5}},
		{"all", map[string]string{
			"RATELIMIT_TEST_REQUESTS":   "1000",
			"RATELIMIT_TEST_WINDOW_SEC": "60",
			"RATELIMIT_TEST_BURST":      "100",
		}, httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 100}},
		{"malformed", map[string]string{
			"RATELIMIT_TEST_REQUESTS":   "lots",
			"RATELIMIT_TEST_WINDOW_SEC": "1m",
			"RATELIMIT_TEST_BURST":      "-3",
		}, defaults},
		{"zero", map[string]string{"RATELIMIT_TEST_REQUESTS": "0", "RATELIMIT_TEST_BURST": "0"}, defaults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			require.Equal(t, tt.want, httpx.ParseRateLimitFromEnv("TEST", defaults))
		})
	}
}

func TestLoadRateLimitsFromEnv(t *testing.T) {
	prev := httpx.StrictLimit
	t.Cleanup(func() { httpx.StrictLimit = prev })

	t.Setenv("RATELIMIT_STRICT_REQUESTS", "7")
	httpx.LoadRateLimitsFromEnv()
	require.Equal(t, 7, httpx.StrictLimit.RequestsPerWindow)
}

func BenchmarkRateLimiter_ByIP(b *testing.B) {
	var rl httpx.RateLimiter
	h := rl.ByIP("bench", httpx.RateLimitConfig{RequestsPerWindow: 1 << 30, Window: time.Second, Burst: 1 << 30})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	b.ReportAllocs()
	for b.Loop() {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
