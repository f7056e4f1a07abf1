package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, addr string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = addr
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl := NewRateLimiter(10, 5, 0)
	defer rl.Stop()
	handler := rl.Limit()(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1234").Code, "request %d should be allowed", i)
	}
}

func TestRateLimiter_BlocksOverBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2, 0)
	defer rl.Stop()
	handler := rl.Limit()(okHandler())

	assert.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1234").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:5555").Code, "port does not change the client")

	rec := hit(handler, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 1, 0)
	defer rl.Stop()
	handler := rl.Limit()(okHandler())

	assert.Equal(t, http.StatusOK, hit(handler, "1.1.1.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "1.1.1.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit(handler, "2.2.2.2:5678").Code)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(10, 1, 10)
	rl.Stop()
	rl.Stop()
}
