package scrape

import (
	"context"
	"net/url"
	"sync"

	"github.com/fwojciec/harvest"
	"golang.org/x/time/rate"
)

var _ harvest.RateLimiter = (*HostLimiter)(nil)

// DefaultHostRPS is the default request rate allowed per host.
const DefaultHostRPS = 1.0

// HostLimiter provides per-host rate limiting using token buckets.
// Each host gets its own limiter, so requests to different hosts never wait
// on each other.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewHostLimiter creates a new HostLimiter with the specified requests per second limit.
// Each host gets a limiter with a burst of 1.
func NewHostLimiter(rps float64) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the host.
// Returns an error if the context is canceled before the wait completes.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}

// hostOf returns the host of rawURL, or rawURL itself if it does not parse.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Hostname()
}
