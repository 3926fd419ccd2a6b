// Package ratelimit throttles join attempts per client IP.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks request timestamps per IP within a sliding window.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
}

// NewLimiter creates a Limiter allowing max requests per window per IP.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
	}
}

// Allow returns true if the IP has not exceeded the limit. If allowed, the
// request is recorded.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	timestamps := l.hits[ip]
	valid := timestamps[:0]
	for _, t := range timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= l.max {
		l.hits[ip] = valid
		return false
	}

	l.hits[ip] = append(valid, now)
	return true
}
