// Package httpmiddleware throttles scan-API callers. The limiter has a
// redis backend so every API instance shares one budget, and an in-memory
// token bucket for single-process deployments.
package httpmiddleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a caller may proceed and, when denied, how long
// it should wait before retrying.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration)
}

// RateLimit returns a gin handler enforcing per-IP limits. Denials carry a
// Retry-After header matching the scan endpoint's retry_after contract.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ok, retryAfter := l.Allow(c.Request.Context(), ip)
		if !ok {
			seconds := int(retryAfter / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit",
				"retry_after": seconds,
			})
			return
		}
		c.Next()
	}
}

// RedisLimiter counts requests in a fixed one-minute window per key. It
// fails open: when redis is unreachable, throttling is the wrong thing to
// sacrifice scans for.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	prefix string
}

// NewRedisLimiter creates a shared limiter allowing perMinute requests.
func NewRedisLimiter(client *redis.Client, perMinute int) *RedisLimiter {
	return &RedisLimiter{client: client, limit: perMinute, prefix: "ratelimit:"}
}

// Allow increments the caller's window counter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	k := l.prefix + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return true, 0
	}
	if n == 1 {
		l.client.Expire(ctx, k, time.Minute)
	}
	if n > int64(l.limit) {
		ttl, err := l.client.TTL(ctx, k).Result()
		if err != nil || ttl <= 0 {
			ttl = time.Minute
		}
		return false, ttl
	}
	return true, 0
}

// TokenBucket is an in-memory per-key limiter for single-process use.
type TokenBucket struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewTokenBucket creates a limiter with capacity tokens refilled at rate
// per minute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
	}
}

// Allow takes one token from the caller's bucket. When empty, the wait is
// the time until the next token refills.
func (l *TokenBucket) Allow(ctx context.Context, key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := time.Now()
	if !ok {
		b = &bucket{tokens: l.capacity - 1, last: now}
		l.state[key] = b
		return true, 0
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false, time.Minute / time.Duration(l.rate)
	}
	b.tokens--
	return true, 0
}
