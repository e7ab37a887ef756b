package handlers

import (
	"strings"
	"sync"
	"time"
)

type rateLimiter interface {
	Allow(key string) bool
}

// simpleRateLimiter is an in-process fixed-window counter keyed by user.
// Payment order creation is the only throttled surface; a single window
// per key is enough and avoids an external store on the hot path.
type simpleRateLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu     sync.Mutex
	counts map[string]int
	opened map[string]time.Time
}

func newSimpleRateLimiter(limit int, window time.Duration, clock func() time.Time) rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &simpleRateLimiter{
		limit:  limit,
		window: window,
		clock:  clock,
		counts: make(map[string]int),
		opened: make(map[string]time.Time),
	}
}

func (l *simpleRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}

	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	windowStart, ok := l.opened[key]
	if !ok || now.Sub(windowStart) >= l.window {
		l.dropStaleLocked(now)
		l.opened[key] = now
		l.counts[key] = 1
		return true
	}

	if l.counts[key] >= l.limit {
		return false
	}
	l.counts[key]++
	return true
}

// dropStaleLocked evicts windows that already elapsed so the maps stay
// bounded by the set of recently active users.
func (l *simpleRateLimiter) dropStaleLocked(now time.Time) {
	for key, start := range l.opened {
		if now.Sub(start) >= l.window {
			delete(l.opened, key)
			delete(l.counts, key)
		}
	}
}
