// ratelimit.go - Sliding-window rate limiter middleware by client IP.
//
// Applied to the download gate so repeated password submissions against
// one file cannot brute-force the bcrypt check; complements any
// proxy-side limits.
package server

import (
	"net/http"
	"sync"
	"time"
)

// rateLimiter tracks request timestamps per IP address in memory, with
// periodic cleanup of idle entries.
type rateLimiter struct {
	mu       sync.RWMutex
	visitors map[string]*visitor
	rate     int           // requests allowed per window
	window   time.Duration // time window for rate limiting

	stopOnce sync.Once
	stopCh   chan struct{}
}

// visitor tracks request timestamps for a single IP address
type visitor struct {
	mu       sync.Mutex
	requests []time.Time
}

// newRateLimiter creates a rate limiter that allows 'rate' requests per
// 'window' per IP.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		stopCh:   make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// stop ends the background cleanup goroutine. Safe to call more than
// once; the limiter itself keeps working.
func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// middleware returns an HTTP middleware that enforces the limit
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(getClientIP(r)) {
			http.Error(w, "rate limit exceeded, try again later", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow checks if a request from the given IP should be allowed
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{requests: make([]time.Time, 0, rl.rate)}
		rl.visitors[ip] = v
	}
	rl.mu.Unlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	kept := v.requests[:0]
	for _, t := range v.requests {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	v.requests = kept

	if len(v.requests) >= rl.rate {
		return false
	}

	v.requests = append(v.requests, now)
	return true
}

// cleanup periodically drops visitors with no recent requests, until
// stop is called.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.window * 2)
			for ip, v := range rl.visitors {
				v.mu.Lock()
				if len(v.requests) == 0 || v.requests[len(v.requests)-1].Before(cutoff) {
					delete(rl.visitors, ip)
				}
				v.mu.Unlock()
			}
			rl.mu.Unlock()
		}
	}
}

// getClientIP extracts the client's IP address from the request.
// It checks X-Forwarded-For and X-Real-IP headers first (for reverse
// proxies), then falls back to RemoteAddr.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For is a comma-separated list; take the first entry.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i, c := range xff {
			if c == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// RemoteAddr has the form "ip:port".
	for i := len(r.RemoteAddr) - 1; i >= 0; i-- {
		if r.RemoteAddr[i] == ':' {
			return r.RemoteAddr[:i]
		}
	}

	return r.RemoteAddr
}
