package httpx

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/hotellisting/pkg/slogx"
)

// RateLimitConfig is one rate limit profile.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst is how many requests may arrive back to back. Backends with
	// fixed windows ignore it.
	Burst int
}

// Profiles shared by the account routes. LoadRateLimitsFromEnv overrides them
// from RATELIMIT_{STRICT,MODERATE,LENIENT,PUBLIC}_{REQUESTS,WINDOW_SEC,BURST}.
var (
	// StrictLimit guards credential endpoints: 5 requests per minute.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// ModerateLimit guards authenticated writes: 20 requests per minute.
	ModerateLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20}

	// LenientLimit guards cheap reads and probes: 100 requests per minute.
	LenientLimit = RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100}

	// PublicLimit guards static content: 1000 requests per minute.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
)

func init() {
	LoadRateLimitsFromEnv()
}

// LoadRateLimitsFromEnv re-reads the profile overrides. Call it again after
// loading an env file.
func LoadRateLimitsFromEnv() {
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", ModerateLimit)
	LenientLimit = ParseRateLimitFromEnv("LENIENT", LenientLimit)
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", PublicLimit)
}

// ParseRateLimitFromEnv reads RATELIMIT_{prefix}_REQUESTS, _WINDOW_SEC and
// _BURST on top of defaultConfig. Missing, malformed or non-positive values
// keep the default.
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		config.RequestsPerWindow = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		config.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_BURST"); ok {
		config.Burst = n
	}

	return config
}

func positiveEnv(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Limiter admits or rejects one request for a key.
type Limiter interface {
	// Allow consumes one request for key. When the request is rejected,
	// retryAfter says how long until the next one would be admitted.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// LimiterBackend builds the Limiter behind one rate limited route. scope
// keeps the buckets of different routes apart when the backend is shared.
type LimiterBackend interface {
	NewLimiter(scope string, config RateLimitConfig) Limiter
}

// RateLimiter builds rate limiting middleware on a backend. The zero value
// keeps buckets in process memory and keys addresses by the connection peer.
type RateLimiter struct {
	Backend LimiterBackend

	// TrustProxyHeaders keys addresses by X-Forwarded-For and X-Real-IP.
	// Set it only when a reverse proxy overwrites those headers.
	TrustProxyHeaders bool
}

func (rl RateLimiter) ipKey() KeyExtractor {
	if rl.TrustProxyHeaders {
		return ForwardedIPKeyExtractor
	}
	return RemoteIPKeyExtractor
}

func (rl RateLimiter) backend() LimiterBackend {
	if rl.Backend == nil {
		return MemoryBackend{}
	}
	return rl.Backend
}

// Middleware limits requests grouped by keyExtractor.
func (rl RateLimiter) Middleware(scope string, config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	return RateLimitMiddleware(rl.backend().NewLimiter(scope, config), config, keyExtractor)
}

// ByIP limits by client address.
func (rl RateLimiter) ByIP(scope string, config RateLimitConfig) Middleware {
	return rl.Middleware(scope, config, rl.ipKey())
}

// ByUser limits by authenticated principal and address, so a principal
// behind a shared address gets its own bucket.
func (rl RateLimiter) ByUser(scope string, config RateLimitConfig) Middleware {
	return rl.Middleware(scope, config, CompositeKeyExtractor(":",
		UserIDKeyExtractor,
		rl.ipKey(),
	))
}

// ByIPAndJSONField limits by client address and a JSON body field, such as
// the email of a login attempt.
func (rl RateLimiter) ByIPAndJSONField(scope string, config RateLimitConfig, fieldName string) Middleware {
	return rl.Middleware(scope, config, CompositeKeyExtractor(":",
		rl.ipKey(),
		JSONFieldKeyExtractor(fieldName),
	))
}

// RateLimitMiddleware rejects requests the limiter refuses with 429 and
// Retry-After. Requests without a key, or hitting a backend error, are let
// through and logged.
func RateLimitMiddleware(limiter Limiter, config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			allowed, retryAfter, err := limiter.Allow(ctx, key)
			if err != nil {
				log.Error("rate limit: backend failed, allowing request", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			seconds := max(int(retryAfter.Round(time.Second).Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", config.Window.String())

			log.Warn("rate limit exceeded",
				"key", key,
				"endpoint", r.URL.Path,
				"retry_after", seconds,
			)

			WriteError(w, http.StatusTooManyRequests, ErrorTypeTooManyRequests,
				"Too many requests. Please try again later.")
		})
	}
}
