// Package rate throttles repeated attempts per key, such as logins per
// username, with one token bucket for each key.
package rate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	Burst  int           `conf:"default:5"`
	Every  time.Duration `conf:"default:12s"`
	Expiry time.Duration `conf:"default:10m"`
}

// Limiter keeps a token bucket per key. Buckets untouched for longer than
// Expiry are dropped by Run.
type Limiter struct {
	burst  int
	every  time.Duration
	limit  rate.Limit
	expiry time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func NewLimiter(cfg Config) *Limiter {
	return &Limiter{
		burst:   cfg.Burst,
		every:   cfg.Every,
		limit:   rate.Every(cfg.Every),
		expiry:  cfg.Expiry,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether one more attempt for key may happen now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastAccess = now
	return b.limiter.AllowN(now, 1)
}

// Every is the time it takes a bucket to regain one token.
func (l *Limiter) Every() time.Duration {
	return l.every
}

// Run evicts idle buckets every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.evict()
		}
	}
}

func (l *Limiter) evict() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, b := range l.buckets {
		if now.Sub(b.lastAccess) > l.expiry {
			delete(l.buckets, key)
		}
	}
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
