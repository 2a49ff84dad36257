package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
)

const (
	defaultMaxKeys = 10000
	bucketIdleTTL  = 10 * time.Minute
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// KeyFunc picks the bucket for a request. Defaults to ClientKey.
	KeyFunc func(c echo.Context) string
	// MaxKeys bounds the number of tracked buckets; the least recently
	// used one is dropped first. Defaults to 10000.
	MaxKeys int
}

// DefaultRateLimitConfig allows 50 requests per second with bursts of 100.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 50, BurstSize: 100}
}

// ClientKey keys by authenticated user when known, else by remote IP.
func ClientKey(c echo.Context) string {
	if uid, _ := c.Get("user_id").(string); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.RealIP()
}

type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(rate float64, burst int, now time.Time) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: now,
	}
}

// take refills the bucket and consumes a token. When none is available it
// returns the number of seconds until one will be.
func (b *tokenBucket) take(now time.Time) (bool, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if b.refillRate <= 0 {
		return false, 1
	}
	wait := int(math.Ceil((1 - b.tokens) / b.refillRate))
	if wait < 1 {
		wait = 1
	}
	return false, wait
}

// rateLimiterStore keeps one bucket per key. Buckets idle for longer than
// bucketIdleTTL are dropped; a returning client starts with a full bucket.
type rateLimiterStore struct {
	buckets *expirable.LRU[string, *tokenBucket]
	mu      sync.Mutex
	config  RateLimitConfig
	now     func() time.Time
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	size := cfg.MaxKeys
	if size <= 0 {
		size = defaultMaxKeys
	}
	return &rateLimiterStore{
		buckets: expirable.NewLRU[string, *tokenBucket](size, nil, bucketIdleTTL),
		config:  cfg,
		now:     time.Now,
	}
}

func (s *rateLimiterStore) allow(key string) (bool, int) {
	now := s.now()

	s.mu.Lock()
	bucket, ok := s.buckets.Get(key)
	if !ok {
		bucket = newTokenBucket(s.config.RequestsPerSecond, s.config.BurstSize, now)
	}
	// Re-adding refreshes the idle deadline.
	s.buckets.Add(key, bucket)
	s.mu.Unlock()

	return bucket.take(now)
}

// RateLimit returns a token-bucket rate limiting middleware.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	return rateLimit(newRateLimiterStore(cfg))
}

func rateLimit(store *rateLimiterStore) echo.MiddlewareFunc {
	keyFunc := store.config.KeyFunc
	if keyFunc == nil {
		keyFunc = ClientKey
	}
	limit := strconv.FormatFloat(store.config.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-RateLimit-Limit", limit)

			ok, retryAfter := store.allow(keyFunc(c))
			if !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
