package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP
type IPRateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*ipClient
}

type ipClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows requests per duration for each IP; requests <= 0 disables limiting
func NewIPRateLimiter(requests int, duration time.Duration) *IPRateLimiter {
	l := &IPRateLimiter{
		limit:   rate.Inf,
		burst:   1,
		idle:    10 * time.Minute,
		now:     time.Now,
		clients: make(map[string]*ipClient),
	}
	if requests > 0 && duration > 0 {
		l.limit = rate.Every(duration / time.Duration(requests))
		l.burst = requests
	}
	return l
}

// Allow consumes a token for ip
func (l *IPRateLimiter) Allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	cl, ok := l.clients[ip]
	if !ok {
		cl = &ipClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = cl
	}
	cl.lastSeen = now
	l.mu.Unlock()

	return cl.limiter.AllowN(now, 1)
}

// Sweep forgets clients idle longer than the idle window and returns how many were dropped
func (l *IPRateLimiter) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for ip, cl := range l.clients {
		if now.Sub(cl.lastSeen) > l.idle {
			delete(l.clients, ip)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is done
func (l *IPRateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Handler rejects over-limit requests with 429
func (l *IPRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}
		return c.Next()
	}
}
