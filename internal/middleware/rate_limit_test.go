// internal/middleware/rate_limit_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/tracelink/provenance-backend/internal/config"
)

func throttledRouter(limit gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limit)
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func ping(r *gin.Engine, remoteAddr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAPIRateLimitThrottlesBurst(t *testing.T) {
	r := throttledRouter(APIRateLimit(config.RateLimitConfig{RequestsPerSecond: 2}))

	assert.Equal(t, http.StatusOK, ping(r, "10.0.0.9:1234"))
	assert.Equal(t, http.StatusOK, ping(r, "10.0.0.9:1234"))

	// Budget exhausted for this client.
	assert.Equal(t, http.StatusTooManyRequests, ping(r, "10.0.0.9:1234"))
	assert.Equal(t, http.StatusTooManyRequests, ping(r, "10.0.0.9:1234"))
}

func TestAPIRateLimitIsPerClient(t *testing.T) {
	r := throttledRouter(APIRateLimit(config.RateLimitConfig{RequestsPerSecond: 1}))

	assert.Equal(t, http.StatusOK, ping(r, "10.0.0.9:1234"))
	assert.Equal(t, http.StatusTooManyRequests, ping(r, "10.0.0.9:1234"))

	// A different client has its own bucket.
	assert.Equal(t, http.StatusOK, ping(r, "10.0.0.10:1234"))
}

func TestLoginRateLimitDefaultsWhenUnset(t *testing.T) {
	r := throttledRouter(LoginRateLimit(config.RateLimitConfig{}))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, ping(r, "10.0.0.9:1234"))
	}
	assert.Equal(t, http.StatusTooManyRequests, ping(r, "10.0.0.9:1234"))
}
