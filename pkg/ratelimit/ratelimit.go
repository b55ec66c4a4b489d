// Package ratelimit provides per-key token bucket limiting with idle key
// eviction.
package ratelimit

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// Config controls a Limiter.
type Config struct {
	// Max is the number of requests a key may burst within Window.
	Max int `default:"100" usage:"Max requests per window"`
	// Window is the time it takes to refill Max tokens.
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// Limiter tracks one token bucket per key. Buckets idle for two windows are
// evicted.
type Limiter struct {
	cfg     Config
	buckets *ttlcache.Cache[string, *rate.Limiter]
}

// New creates a Limiter. Call Run to enable eviction of idle keys.
func New(cfg Config) *Limiter {
	if cfg.Max <= 0 {
		cfg.Max = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{
		cfg: cfg,
		buckets: ttlcache.New[string, *rate.Limiter](
			ttlcache.WithTTL[string, *rate.Limiter](2 * cfg.Window),
		),
	}
}

// Run evicts idle buckets until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		l.buckets.Stop()
	}()
	l.buckets.Start()
}

// Result describes the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Allow consumes a token for key at now.
func (l *Limiter) Allow(key string, now time.Time) Result {
	b := l.bucket(key)
	res := Result{Limit: l.cfg.Max}

	r := b.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = delay
		return res
	}

	res.Allowed = true
	res.Remaining = max(0, int(b.TokensAt(now)))
	return res
}

// Keys returns the number of tracked keys.
func (l *Limiter) Keys() int {
	return l.buckets.Len()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	if item := l.buckets.Get(key); item != nil {
		return item.Value()
	}
	every := rate.Every(l.cfg.Window / time.Duration(l.cfg.Max))
	item, _ := l.buckets.GetOrSet(key, rate.NewLimiter(every, l.cfg.Max))
	return item.Value()
}
