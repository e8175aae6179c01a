package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	Name              string        // Tier name, part of the key
	RequestsPerWindow int           // Number of requests allowed
	Window            time.Duration // Time window
	BlockDuration     time.Duration // How long to block after exceeding limit
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Name:              "default",
		RequestsPerWindow: 150,
		Window:            time.Minute,
		BlockDuration:     time.Minute * 5,
	}
}

type RateLimitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	Reset      time.Time
}

// RateLimiter decides whether one more request under key fits the tier.
type RateLimiter interface {
	Allow(ctx context.Context, key string, config RateLimiterConfig) (RateLimitDecision, error)
}

const rateLimitScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local expiry = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local currentCount = redis.call('ZCARD', key)

redis.call('ZADD', key, now, ARGV[1])
redis.call('EXPIRE', key, expiry)

local remaining = math.max(limit - currentCount - 1, 0)
local allowed = currentCount < limit

return {allowed and 1 or 0, remaining, currentCount + 1}
`

const checkBlockScript = `
local blockKey = KEYS[1]

local exists = redis.call('EXISTS', blockKey)
if exists == 0 then
    return {0, 0}
end

local ttl = redis.call('TTL', blockKey)
return {1, ttl}
`

// RedisRateLimiter keeps a sliding window per key in a sorted set, so limits
// hold across every instance sharing the store.
type RedisRateLimiter struct {
	client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, config RateLimiterConfig) (RateLimitDecision, error) {
	now := time.Now()
	blockKey := fmt.Sprintf("ratelimit:block:%s", key)

	blockResult, err := l.client.Eval(ctx, checkBlockScript, []string{blockKey}).Int64Slice()
	if err != nil {
		return RateLimitDecision{}, fmt.Errorf("block check failed: %w", err)
	}
	if blockResult[0] == 1 {
		ttl := time.Duration(blockResult[1]) * time.Second
		return RateLimitDecision{Allowed: false, RetryAfter: ttl, Reset: now.Add(ttl)}, nil
	}

	result, err := l.client.Eval(ctx, rateLimitScript,
		[]string{fmt.Sprintf("ratelimit:%s", key)},
		now.UnixNano(),
		config.Window.Nanoseconds(),
		config.RequestsPerWindow,
		int(config.Window.Seconds())+60, // expiry buffer
	).Int64Slice()
	if err != nil {
		return RateLimitDecision{}, fmt.Errorf("rate limit script failed: %w", err)
	}

	decision := RateLimitDecision{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		Reset:     now.Add(config.Window),
	}

	if !decision.Allowed {
		if err := l.client.Set(ctx, blockKey, "1", config.BlockDuration).Err(); err != nil {
			return decision, fmt.Errorf("failed to block client: %w", err)
		}
		decision.RetryAfter = config.BlockDuration
		decision.Reset = now.Add(config.BlockDuration)
	}

	return decision, nil
}

type limiterEntry struct {
	limiter      *rate.Limiter
	blockedUntil time.Time
	lastSeen     time.Time
}

// MemoryRateLimiter is the single-instance counterpart used with the
// in-memory store: a token bucket per key.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	idleTTL  time.Duration
}

func NewMemoryRateLimiter(idleTTL time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		limiters: make(map[string]*limiterEntry),
		idleTTL:  idleTTL,
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string, config RateLimiterConfig) (RateLimitDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.evictIdle(now)

	entry, ok := l.limiters[key]
	if !ok {
		every := config.Window / time.Duration(max(config.RequestsPerWindow, 1))
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(every), config.RequestsPerWindow)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	if now.Before(entry.blockedUntil) {
		wait := entry.blockedUntil.Sub(now)
		return RateLimitDecision{Allowed: false, RetryAfter: wait, Reset: entry.blockedUntil}, nil
	}

	if !entry.limiter.AllowN(now, 1) {
		entry.blockedUntil = now.Add(config.BlockDuration)
		return RateLimitDecision{Allowed: false, RetryAfter: config.BlockDuration, Reset: entry.blockedUntil}, nil
	}

	return RateLimitDecision{
		Allowed:   true,
		Remaining: int(entry.limiter.TokensAt(now)),
		Reset:     now.Add(config.Window),
	}, nil
}

func (l *MemoryRateLimiter) evictIdle(now time.Time) {
	if l.idleTTL <= 0 {
		return
	}
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleTTL && now.After(entry.blockedUntil) {
			delete(l.limiters, key)
		}
	}
}

// RateLimiterMiddleware limits requests per client IP within the tier.
func RateLimiterMiddleware(limiter RateLimiter, logger *logger.Logger, config RateLimiterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		key := config.Name + ":" + clientIP

		decision, err := limiter.Allow(c.Request.Context(), key, config)
		if err != nil {
			logger.Error("failed to check rate limit", zap.Error(err), zap.String("ip", clientIP))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds())
			logger.Warn("rate limit exceeded",
				zap.String("ip", clientIP),
				zap.String("tier", config.Name),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   http.StatusText(http.StatusTooManyRequests),
				Message: fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %v.", config.RequestsPerWindow, config.Window),
				Code:    CodeRateLimited,
			})
			return
		}

		c.Next()
	}
}
