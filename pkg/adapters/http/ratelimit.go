package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minIdle bounds how often idle buckets are swept.
const minIdle = time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter holds one token bucket per client address. Buckets idle long
// enough to have refilled are dropped, so the map only holds recent clients.
type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBucket
	rps       rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	if burst <= 0 {
		burst = 1
	}
	idle := time.Duration(float64(burst) / rps * float64(time.Second))
	if idle < minIdle {
		idle = minIdle
	}
	return &clientLimiter{
		clients: make(map[string]*clientBucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

func (c *clientLimiter) allow(client string) bool {
	now := c.now()

	c.mu.Lock()
	if now.Sub(c.lastSweep) >= c.idle {
		c.sweep(now)
	}
	b, ok := c.clients[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(c.rps, c.burst)}
		c.clients[client] = b
	}
	b.lastSeen = now
	c.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// sweep must be called with c.mu held.
func (c *clientLimiter) sweep(now time.Time) {
	for client, b := range c.clients {
		if now.Sub(b.lastSeen) >= c.idle {
			delete(c.clients, client)
		}
	}
	c.lastSweep = now
}

// clientKey is the request's remote host. middleware.RealIP has already
// replaced RemoteAddr with the forwarded address when one is present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
