/*
ratelimit.go - Per-client rate limiting for the upload endpoint

PURPOSE:
  Uploads trigger parsing, a worker-pool batch run and a database write, so
  one client must not be able to monopolize the server. Each client IP gets
  its own token bucket; other endpoints are cheap reads and stay unlimited.

SEE ALSO:
  - server.go: Applies the middleware to POST /api/batches
  - config/config.go: RATE_RPS and RATE_BURST settings
*/
package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// ipLimiter implements per-client-IP rate limiting.
type ipLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rps      rate.Limit
	burst    int
}

func newIPLimiter(requestsPerSecond float64, burst int) *ipLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// get returns the limiter for a client, creating it on first sight.
func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[ip]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[ip]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.rps, l.burst)
	l.limiters[ip] = limiter

	return limiter
}

func (l *ipLimiter) allow(ip string) bool {
	return l.get(ip).Allow()
}

// middleware rejects requests over the client's budget with 429. RealIP runs
// earlier in the chain, so RemoteAddr already reflects proxy headers.
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "Upload rate exceeded, retry later", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
