package httpx

import "time"

// NewMemoryLimiterWithClock exposes the in-memory limiter with a fake clock.
func NewMemoryLimiterWithClock(config RateLimitConfig, now func() time.Time) Limiter {
	return newMemoryLimiter(config, now)
}

// MemoryLimiterKeys counts the buckets a limiter currently holds.
func MemoryLimiterKeys(l Limiter) int {
	n := 0
	l.(*memoryLimiter).buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
