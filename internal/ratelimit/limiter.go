package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key. Buckets idle for longer than
// the TTL are dropped and start full again on the next request.
type Limiter struct {
	buckets *gocache.Cache
	rate    rate.Limit
	burst   int
	ttl     time.Duration
	mu      sync.Mutex
}

// New builds a limiter allowing requestsPerSecond with the given burst per
// key. A cleanupInterval of zero disables the background janitor.
func New(requestsPerSecond float64, burst int, ttl, cleanupInterval time.Duration) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	return &Limiter{
		buckets: gocache.New(ttl, cleanupInterval),
		rate:    rate.Limit(requestsPerSecond),
		burst:   burst,
		ttl:     ttl,
	}
}

// Allow reports whether a request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(key); ok {
		b := v.(*rate.Limiter)
		// Refresh the idle deadline.
		l.buckets.Set(key, b, l.ttl)
		return b
	}
	b := rate.NewLimiter(l.rate, l.burst)
	l.buckets.Set(key, b, l.ttl)
	return b
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	return l.buckets.ItemCount()
}

// Key names the bucket for a caller: the resolved user id when there is
// one, otherwise the client IP. Callers pass the same id they record the
// request under, so a request cannot be charged to one user and logged as
// another.
func Key(user string, r *http.Request) string {
	if user != "" {
		return "user:" + user
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
