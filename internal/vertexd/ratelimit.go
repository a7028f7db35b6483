package vertexd

import (
	"sync"
	"time"
)

// rateLimiter keeps one token bucket per client. A bucket holds at most
// perSecond tokens and refills at perSecond tokens per second.
type rateLimiter struct {
	perSecond int
	buckets   map[string]*tokenBucket
	mu        sync.Mutex
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
}

func newRateLimiter(perSecond int) *rateLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &rateLimiter{
		perSecond: perSecond,
		buckets:   make(map[string]*tokenBucket),
	}
}

// allow takes a token for client at time now. A nil limiter allows
// everything.
func (l *rateLimiter) allow(client string, now time.Time) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[client]
	if !ok {
		b = &tokenBucket{tokens: l.perSecond, lastRefill: now}
		l.buckets[client] = b
	}

	refill := int(now.Sub(b.lastRefill).Seconds() * float64(l.perSecond))
	if refill > 0 {
		b.tokens = min(b.tokens+refill, l.perSecond)
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// remaining reports the tokens left for client, or -1 when unlimited
func (l *rateLimiter) remaining(client string) int {
	if l == nil {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[client]; ok {
		return b.tokens
	}
	return l.perSecond
}
