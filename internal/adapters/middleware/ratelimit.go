// Rate limiting follows erauner12-toolbridge-api's token-bucket design,
// keyed by client IP instead of authenticated user id since it guards the
// public (pre-auth) routes.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/IANDYI/authguard/internal/core/result"
)

type tokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity int, refillRate float64) *tokenBucket {
	return &tokenBucket{tokens: float64(capacity), capacity: float64(capacity), refillRate: refillRate, lastRefill: time.Now()}
}

func (tb *tokenBucket) allow() (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true, 0
	}
	secondsUntilNext := (1.0 - tb.tokens) / tb.refillRate
	return false, time.Duration(secondsUntilNext * float64(time.Second))
}

// RateLimiter buckets clients by key (typically IP) at a fixed
// requests-per-minute rate with no burst allowance beyond one window, per
// spec.md's public-endpoint 5/min limit.
type RateLimiter struct {
	buckets     map[string]*tokenBucket
	maxPerMin   int
	mu          sync.RWMutex
}

func NewRateLimiter(maxPerMinute int) *RateLimiter {
	rl := &RateLimiter{buckets: make(map[string]*tokenBucket), maxPerMin: maxPerMinute}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) bucketFor(key string) *tokenBucket {
	rl.mu.RLock()
	b, ok := rl.buckets[key]
	rl.mu.RUnlock()
	if ok {
		return b
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok := rl.buckets[key]; ok {
		return b
	}
	b = newTokenBucket(rl.maxPerMin, float64(rl.maxPerMin)/60.0)
	rl.buckets[key] = b
	return b
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		for key, b := range rl.buckets {
			b.mu.Lock()
			stale := time.Since(b.lastRefill) > time.Hour
			b.mu.Unlock()
			if stale {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Middleware enforces the per-client limit, responding 429 with
// Retry-After on exhaustion.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		allowed, retryAfter := rl.bucketFor(key).allow()
		if !allowed {
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeAppError(w, r, result.TooManyRequests("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
