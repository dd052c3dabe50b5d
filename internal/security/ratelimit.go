package security

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pyquest/internal/errs"
	"pyquest/internal/logx"
	"pyquest/internal/resp"
)

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter
	r      rate.Limit
	burst  int
}

// NewRateLimiter allows count requests per window with bursts up to count.
// Call Cleanup in a goroutine to evict idle buckets.
func NewRateLimiter(count int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      rate.Every(window / time.Duration(count)),
		burst:  count,
	}
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.RLock()
	l, ok := rl.limits[ip]
	rl.mu.RUnlock()
	if ok {
		return l
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if l, ok = rl.limits[ip]; !ok {
		l = rate.NewLimiter(rl.r, rl.burst)
		rl.limits[ip] = l
	}
	return l
}

// Allow checks if a request from an IP should be allowed
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.limiter(ip).Allow()
}

// Cleanup removes buckets that have refilled completely, every interval, until done closes.
func (rl *RateLimiter) Cleanup(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for ip, l := range rl.limits {
		if l.TokensAt(now) >= float64(l.Burst()) {
			delete(rl.limits, ip)
			removed++
		}
	}
	if removed > 0 {
		logx.Debug("Rate limiter cleanup", "removed", removed, "active", len(rl.limits))
	}
	return removed
}

// Middleware answers 429 RATE_LIMITED once a client exhausts its bucket
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(GetClientIP(r)) {
			resp.Error(w, r, errs.NewError(errs.CodeRateLimited))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClientIP extracts the client IP from the request
func GetClientIP(r *http.Request) string {
	// first hop of X-Forwarded-For when behind a proxy
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
