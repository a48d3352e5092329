package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitRule defines a token-bucket refill rate and burst size.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimiter tracks token buckets per principal.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter constructs a RateLimiter with an injectable clock.
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		now:     now,
	}
}

// RateLimit limits requests per principal (bearer token, falling back to
// client IP) against a single rule.
func RateLimit(limiter *RateLimiter, rule RateLimitRule) gin.HandlerFunc {
	if limiter == nil {
		limiter = NewRateLimiter(nil)
	}
	return func(c *gin.Context) {
		principal := UserTokenFromContext(c)
		if principal == "" {
			principal = c.ClientIP()
		}
		allowed, retryAfter := limiter.Allow(principal, rule)
		if allowed {
			c.Next()
			return
		}
		retryAfterMs := int(retryAfter / time.Millisecond)
		if retryAfterMs <= 0 {
			retryAfterMs = 1000
		}
		retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":        "rate_limited",
			"retryAfterMs": retryAfterMs,
		})
		c.Abort()
	}
}

// Allow reports whether the principal may proceed, refilling its bucket.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &rateBucket{
			tokens: float64(rule.Burst),
			last:   now,
		}
		l.buckets[key] = bucket
	}
	elapsed := now.Sub(bucket.last).Seconds()
	if elapsed > 0 {
		bucket.tokens = math.Min(float64(rule.Burst), bucket.tokens+elapsed*rule.Rate)
		bucket.last = now
	}
	if bucket.tokens >= 1 {
		bucket.tokens -= 1
		return true, 0
	}
	needed := 1 - bucket.tokens
	waitSec := needed / rule.Rate
	if waitSec < 0 {
		waitSec = 0
	}
	retryAfter := time.Duration(math.Ceil(waitSec*1000.0)) * time.Millisecond
	return false, retryAfter
}
