package httpserver

import (
	"net/http"
	"sync"
	"time"

	"qa-tradefeed/internal/httputil"
)

// SecurityHeaders hardens every response. The dashboard is the only browser
// client and it never embeds this origin in a frame.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		next.ServeHTTP(w, r)
	})
}

// Only /v1/auth/* sits behind the limiter: register and login take a bcrypt
// hash each, and login is the one route worth brute-forcing. The push and
// incoming routes are secret-gated and stay unthrottled so the extension can
// flush trade batches as fast as it likes.
const (
	loginRatePerSec = 2.0
	loginBurst      = 8
	visitorIdle     = 3 * time.Minute
)

// authLimiter is a per-remote-address token bucket.
type authLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	lastSeen time.Time
	tokens   float64
}

var limiter = &authLimiter{
	buckets: make(map[string]*bucket),
}

// allow refills the caller's bucket for the time elapsed since its last
// request and spends one token if available.
func (rl *authLimiter) allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[addr]
	if !ok {
		b = &bucket{tokens: loginBurst, lastSeen: time.Now()}
		rl.buckets[addr] = b
	}

	now := time.Now()
	b.tokens += now.Sub(b.lastSeen).Seconds() * loginRatePerSec
	b.lastSeen = now
	if b.tokens > loginBurst {
		b.tokens = loginBurst
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// prune drops buckets idle long enough to be full again anyway.
func (rl *authLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	for addr, b := range rl.buckets {
		if now.Sub(b.lastSeen) > visitorIdle {
			delete(rl.buckets, addr)
		}
	}
}

func init() {
	go func() {
		for {
			time.Sleep(1 * time.Minute)
			limiter.prune()
		}
	}()
}

// RateLimitMiddleware answers 429 once a remote address exhausts its bucket.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.allow(r.RemoteAddr) {
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
