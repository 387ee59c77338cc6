// Package ratelimit throttles requests per remote address using a
// token-bucket limiter, grounded on the teacher's own
// middleware/ratelimit package.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	shttp "github.com/wma1729/snf-http"
)

// Config holds the rate-limiting window: Requests allowed per Duration,
// with Burst extra requests tolerated in a spike, and ExpiresIn
// governing how long an idle visitor's limiter is kept around.
type Config struct {
	Requests  int
	Burst     int
	Duration  time.Duration
	ExpiresIn time.Duration
}

// DefaultConfig allows one request per minute with a burst of five.
func DefaultConfig() Config {
	return Config{
		Requests:  1,
		Burst:     5,
		Duration:  time.Minute,
		ExpiresIn: time.Hour,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter tracks one rate.Limiter per remote address.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	cfg      Config
}

// NewLimiter starts a Limiter for cfg, launching a background sweep that
// evicts visitors idle past cfg.ExpiresIn.
func NewLimiter(cfg Config) *Limiter {
	l := &Limiter{visitors: make(map[string]*visitor), cfg: cfg}
	go l.sweep()
	return l
}

func (l *Limiter) sweep() {
	for {
		time.Sleep(time.Minute)
		l.mu.Lock()
		for ip, v := range l.visitors {
			if time.Since(v.lastSeen) > l.cfg.ExpiresIn {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *Limiter) allow(ip string) bool {
	l.mu.Lock()
	v, ok := l.visitors[ip]
	if !ok {
		every := rate.Every(l.cfg.Duration / time.Duration(l.cfg.Requests))
		v = &visitor{limiter: rate.NewLimiter(every, l.cfg.Burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	limiter := v.limiter
	l.mu.Unlock()
	return limiter.Allow()
}

// New returns a middleware that rejects requests from a remote address
// exceeding config's rate with 429 Too Many Requests. If no config is
// given, DefaultConfig is used.
func New(config ...Config) shttp.MiddlewareFunc {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	l := NewLimiter(cfg)

	return func(c *shttp.Ctx) {
		if !l.allow(c.IP()) {
			c.Status(shttp.StatusTooManyRequests)
			_ = c.JSON(map[string]string{"message": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
