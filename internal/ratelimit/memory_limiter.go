package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps a sliding log of request times per key in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an in-memory limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Check admits the request when fewer than limit requests were admitted within window.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := m.now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	requests := keepRecent(m.buckets[key], windowStart)
	allowed := len(requests) < limit
	if allowed {
		requests = append(requests, now)
	}
	m.buckets[key] = requests

	resetAt := now.Add(window)
	if len(requests) > 0 {
		resetAt = requests[0].Add(window)
	}
	return newResult(allowed, limit, len(requests), resetAt), nil
}

// Cleanup removes keys without a request newer than maxAge.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, requests := range m.buckets {
		if len(requests) == 0 || requests[len(requests)-1].Before(cutoff) {
			delete(m.buckets, key)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (m *MemoryLimiter) Run(ctx context.Context, interval, maxAge time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Cleanup(maxAge)
		}
	}
}

func keepRecent(requests []time.Time, windowStart time.Time) []time.Time {
	first := 0
	for first < len(requests) && requests[first].Before(windowStart) {
		first++
	}
	return append(requests[:0], requests[first:]...)
}
