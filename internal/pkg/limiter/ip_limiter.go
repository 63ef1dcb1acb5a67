/*
Package limiter provides per-IP rate limiting for the WebSocket connect and
media upload paths.

It uses token buckets (golang.org/x/time/rate), one per client address, with
a background sweep that drops buckets that have refilled completely.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"shambachat/internal/pkg/errs"
	"shambachat/internal/pkg/logx"
	"shambachat/internal/pkg/resp"
)

// IPRateLimiter holds one token bucket per client IP address.
type IPRateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	// r and b are the refill rate and burst size applied to every bucket.
	r rate.Limit
	b int
}

// NewIPRateLimiter creates a limiter with rate r and burst b and starts the
// background cleanup goroutine.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanUpVisitors()

	return i
}

// GetLimiter returns the bucket for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if !exists {
		i.mu.Lock()
		limiter, exists = i.limits[ip]
		if !exists {
			limiter = rate.NewLimiter(i.r, i.b)
			i.limits[ip] = limiter
		}
		i.mu.Unlock()
	}

	return limiter
}

// cleanUpVisitors periodically removes buckets that are full again, i.e.
// addresses that have been idle long enough to refill completely.
func (i *IPRateLimiter) cleanUpVisitors() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		removed := 0
		for ip, limiter := range i.limits {
			if limiter.TokensAt(time.Now()) >= float64(limiter.Burst()) {
				delete(i.limits, ip)
				removed++
			}
		}
		remaining := len(i.limits)
		i.mu.Unlock()

		logx.Info("Rate limiter cleanup finished",
			"removed", removed,
			"remaining", remaining,
		)
	}
}

// ClientIP extracts the host part of a request's remote address.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}

// Middleware enforces the limit on an HTTP route, responding with the
// rate_limited error when a request is over budget.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.GetLimiter(ClientIP(r)).Allow() {
			resp.RespondError(w, r, errs.New(errs.CodeRateLimited))
			return
		}

		next.ServeHTTP(w, r)
	})
}
