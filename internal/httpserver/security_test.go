package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hitFrom(h http.Handler, addr string) int {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestSecurityHeadersSet(t *testing.T) {
	t.Parallel()

	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
}

func TestRateLimitExhaustsBurst(t *testing.T) {
	t.Parallel()

	h := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// The limiter keys on the remote address; use one no other test shares.
	const addr = "198.51.100.7:4000"
	for i := 0; i < loginBurst; i++ {
		require.Equal(t, http.StatusOK, hitFrom(h, addr), "request %d inside the burst", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(h, addr))
}

func TestRateLimitIsolatesRemoteAddresses(t *testing.T) {
	t.Parallel()

	h := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	const drained = "198.51.100.8:4000"
	for i := 0; i < loginBurst; i++ {
		hitFrom(h, drained)
	}
	require.Equal(t, http.StatusTooManyRequests, hitFrom(h, drained))

	// A different caller still has a full bucket.
	assert.Equal(t, http.StatusOK, hitFrom(h, "198.51.100.9:4000"))
}
