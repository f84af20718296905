package geocode

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter spaces out calls per provider host.
type HostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

// NewHostLimiter allows one call per interval per host. A non-positive
// interval disables limiting.
func NewHostLimiter(interval time.Duration) *HostLimiter {
	return &HostLimiter{
		m: make(map[string]*rate.Limiter),
		r: intervalLimit(interval),
		b: 1,
	}
}

func intervalLimit(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

// SetInterval retunes every host, including limiters already handed out,
// so a reloaded geocode.interval_ms applies to the next call.
func (hl *HostLimiter) SetInterval(interval time.Duration) {
	r := intervalLimit(interval)
	hl.mu.Lock()
	defer hl.mu.Unlock()
	if r == hl.r {
		return
	}
	hl.r = r
	for _, lim := range hl.m {
		lim.SetLimit(r)
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, hl.b)
	hl.m[host] = lim
	return lim
}

// For returns the limiter shared by every caller of the endpoint's host.
func (hl *HostLimiter) For(endpoint string) *rate.Limiter {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return hl.limiterFor("_")
	}
	return hl.limiterFor(u.Host)
}

func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	return hl.For(raw).Wait(ctx)
}
