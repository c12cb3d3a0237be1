package httpx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryBackend keeps a token bucket per key in process memory. Each call to
// NewLimiter gets its own buckets, so scope is not needed.
type MemoryBackend struct{}

func (MemoryBackend) NewLimiter(_ string, config RateLimitConfig) Limiter {
	return newMemoryLimiter(config, time.Now)
}

// idleSweepInterval is how often idle buckets are dropped.
const idleSweepInterval = 5 * time.Minute

type memoryLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	buckets sync.Map // map[string]*rate.Limiter

	mu        sync.Mutex
	lastSweep time.Time
}

func newMemoryLimiter(config RateLimitConfig, now func() time.Time) *memoryLimiter {
	return &memoryLimiter{
		limit:     rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		burst:     config.Burst,
		now:       now,
		lastSweep: now(),
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := m.now()
	bucket := m.bucket(key, now)

	if bucket.AllowN(now, 1) {
		return true, 0, nil
	}

	// Ask when the next token lands without consuming it.
	r := bucket.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return false, delay, nil
}

func (m *memoryLimiter) bucket(key string, now time.Time) *rate.Limiter {
	if b, ok := m.buckets.Load(key); ok {
		return b.(*rate.Limiter)
	}

	m.sweep(now)
	b, _ := m.buckets.LoadOrStore(key, rate.NewLimiter(m.limit, m.burst))
	return b.(*rate.Limiter)
}

// sweep drops buckets that have refilled completely, since they hold no
// state a fresh bucket would not.
func (m *memoryLimiter) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) < idleSweepInterval {
		return
	}
	m.lastSweep = now

	m.buckets.Range(func(key, value any) bool {
		if value.(*rate.Limiter).TokensAt(now) >= float64(m.burst) {
			m.buckets.Delete(key)
		}
		return true
	})
}
