// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tracelink/provenance-backend/internal/config"
	"github.com/tracelink/provenance-backend/internal/utils"
)

// clientBucket is one caller's token bucket. Buckets idle longer than the
// limiter's ttl are pruned.
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter throttles per client IP. Each throttled surface gets its own
// limiter so a caller burning the upload budget cannot starve reads.
type IPRateLimiter struct {
	buckets map[string]*clientBucket
	mtx     sync.Mutex
	rate    rate.Limit
	burst   int
	ttl     time.Duration
}

func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	rl := &IPRateLimiter{
		buckets: make(map[string]*clientBucket),
		rate:    r,
		burst:   burst,
		ttl:     3 * time.Minute,
	}

	go rl.prune()

	return rl
}

func (rl *IPRateLimiter) prune() {
	for {
		time.Sleep(time.Minute)
		rl.mtx.Lock()
		for ip, b := range rl.buckets {
			if time.Since(b.lastSeen) > rl.ttl {
				delete(rl.buckets, ip)
			}
		}
		rl.mtx.Unlock()
	}
}

func (rl *IPRateLimiter) bucketFor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	b, exists := rl.buckets[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.buckets[ip] = &clientBucket{limiter, time.Now()}
		return limiter
	}

	b.lastSeen = time.Now()
	return b.limiter
}

func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.bucketFor(c.ClientIP()).Allow() {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
				"Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// APIRateLimit throttles every request against the configured per-second
// budget, ledger reads included.
func APIRateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	perSecond := cfg.RequestsPerSecond
	if perSecond < 1 {
		perSecond = 10
	}
	return NewIPRateLimiter(rate.Limit(perSecond), perSecond).Middleware()
}

// LoginRateLimit throttles credential endpoints, which are the brute-force
// surface.
func LoginRateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	perMinute := cfg.LoginsPerMinute
	if perMinute < 1 {
		perMinute = 5
	}
	return NewIPRateLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute).Middleware()
}

// DocumentRateLimit throttles custody-document uploads, the only endpoint
// that accepts bulk bytes.
func DocumentRateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	perMinute := cfg.DocumentsPerMinute
	if perMinute < 1 {
		perMinute = 10
	}
	return NewIPRateLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute).Middleware()
}
