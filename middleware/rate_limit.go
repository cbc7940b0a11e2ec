package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"relieflink/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Redis        *redis.Client
	Requests     int
	Window       time.Duration
	KeyPrefix    string
	SkipPaths    []string
	ErrorMessage string
}

// RateLimitStrategy defines how requests are bucketed
type RateLimitStrategy string

const (
	StrategyIP       RateLimitStrategy = "ip"
	StrategyUser     RateLimitStrategy = "user"
	StrategyUserOrIP RateLimitStrategy = "user_or_ip"
)

// RateLimiter is a Redis-backed sliding window limiter. A nil Redis client
// disables limiting entirely.
type RateLimiter struct {
	config   RateLimitConfig
	strategy RateLimitStrategy
}

func NewRateLimiter(config RateLimitConfig, strategy RateLimitStrategy) *RateLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit"
	}
	if config.ErrorMessage == "" {
		config.ErrorMessage = "Rate limit exceeded"
	}

	return &RateLimiter{
		config:   config,
		strategy: strategy,
	}
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.Redis == nil || rl.shouldSkipPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		key := rl.getKey(c)
		if key == "" {
			c.Next()
			return
		}

		allowed, resetTime, remaining, err := rl.checkRateLimit(c.Request.Context(), key)
		if err != nil {
			// Redis trouble never blocks traffic
			logrus.Errorf("Rate limit check failed: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			rl.handleRateLimitExceeded(c, resetTime)
			return
		}

		c.Next()
	}
}

// checkRateLimit runs a sliding window log over a Redis sorted set.
func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string) (allowed bool, resetTime time.Time, remaining int, err error) {
	now := time.Now()
	window := rl.config.Window

	pipe := rl.config.Redis.Pipeline()

	expiredBefore := now.Add(-window).UnixNano()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", expiredBefore))
	pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, key, window+time.Minute)

	results, err := pipe.Exec(ctx)
	if err != nil {
		return false, time.Time{}, 0, err
	}

	currentCount := results[1].(*redis.IntCmd).Val()

	remaining = rl.config.Requests - int(currentCount) - 1
	if remaining < 0 {
		remaining = 0
	}

	resetTime = now.Add(window)
	allowed = currentCount < int64(rl.config.Requests)

	if !allowed {
		// Rejected requests do not consume quota
		rl.config.Redis.ZRem(ctx, key, fmt.Sprintf("%d", now.UnixNano()))
	}

	return allowed, resetTime, remaining, nil
}

func (rl *RateLimiter) getKey(c *gin.Context) string {
	prefix := rl.config.KeyPrefix

	switch rl.strategy {
	case StrategyUser:
		userID := c.GetString("userID")
		if userID == "" {
			return ""
		}
		return fmt.Sprintf("%s:user:%s", prefix, userID)

	case StrategyUserOrIP:
		if userID := c.GetString("userID"); userID != "" {
			return fmt.Sprintf("%s:user:%s", prefix, userID)
		}
		return fmt.Sprintf("%s:ip:%s", prefix, c.ClientIP())

	default:
		return fmt.Sprintf("%s:ip:%s", prefix, c.ClientIP())
	}
}

func (rl *RateLimiter) handleRateLimitExceeded(c *gin.Context, resetTime time.Time) {
	retryAfter := int(time.Until(resetTime).Seconds())
	if retryAfter < 0 {
		retryAfter = 0
	}

	c.Header("Retry-After", strconv.Itoa(retryAfter))

	logrus.WithFields(logrus.Fields{
		"client_ip": c.ClientIP(),
		"user_id":   c.GetString("userID"),
		"path":      c.Request.URL.Path,
		"method":    c.Request.Method,
	}).Warn("Rate limit exceeded")

	utils.ErrorResponse(c, http.StatusTooManyRequests, rl.config.ErrorMessage, gin.H{
		"retry_after": retryAfter,
		"reset_time":  resetTime.Unix(),
	})
	c.Abort()
}

func (rl *RateLimiter) shouldSkipPath(path string) bool {
	for _, skipPath := range rl.config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// Predefined rate limiters

// DefaultRateLimit limits anonymous traffic per IP.
func DefaultRateLimit(redis *redis.Client, requests int, window time.Duration) gin.HandlerFunc {
	config := RateLimitConfig{
		Redis:        redis,
		Requests:     requests,
		Window:       window,
		KeyPrefix:    "rate_limit",
		ErrorMessage: "Too many requests. Please try again later.",
		SkipPaths: []string{
			"/health",
		},
	}

	return NewRateLimiter(config, StrategyIP).Middleware()
}

// AuthRateLimit guards login and registration endpoints.
func AuthRateLimit(redis *redis.Client) gin.HandlerFunc {
	config := RateLimitConfig{
		Redis:        redis,
		Requests:     5,
		Window:       time.Minute,
		KeyPrefix:    "auth_rate_limit",
		ErrorMessage: "Too many authentication attempts. Please try again later.",
	}

	return NewRateLimiter(config, StrategyIP).Middleware()
}

// AlertCreationRateLimit keeps a single organization from flooding the
// system with new alerts.
func AlertCreationRateLimit(redis *redis.Client) gin.HandlerFunc {
	config := RateLimitConfig{
		Redis:        redis,
		Requests:     10,
		Window:       time.Minute,
		KeyPrefix:    "alert_create_rate_limit",
		ErrorMessage: "Alert creation rate limit exceeded. Please slow down.",
	}

	return NewRateLimiter(config, StrategyUser).Middleware()
}

// ResponseRateLimit bounds join and check-in activity per volunteer.
func ResponseRateLimit(redis *redis.Client) gin.HandlerFunc {
	config := RateLimitConfig{
		Redis:        redis,
		Requests:     30,
		Window:       time.Minute,
		KeyPrefix:    "response_rate_limit",
		ErrorMessage: "Too many response actions. Please slow down.",
	}

	return NewRateLimiter(config, StrategyUser).Middleware()
}
