package ratelimit

import (
	"context"
	"time"

	"codetrainer/internal/common/cache"
	appErr "codetrainer/pkg/errors"
)

const defaultRedisTimeout = 200 * time.Millisecond

// RedisLimiter enforces a fixed-window limit shared by every replica.
type RedisLimiter struct {
	cache        cache.CounterOps
	prefix       string
	max          int
	window       time.Duration
	redisTimeout time.Duration
}

func NewRedisLimiter(counter cache.CounterOps, prefix string, max int, window, redisTimeout time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if redisTimeout <= 0 {
		redisTimeout = defaultRedisTimeout
	}
	return &RedisLimiter{cache: counter, prefix: prefix, max: max, window: window, redisTimeout: redisTimeout}
}

func (s *RedisLimiter) Allow(ctx context.Context, key string) error {
	if s.cache == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("rate limit cache is unavailable")
	}
	if s.max <= 0 {
		return nil
	}
	key = s.prefix + key

	ctxCache, cancel := context.WithTimeout(ctx, s.redisTimeout)
	defer cancel()

	acquired, err := s.cache.SetNX(ctxCache, key, 1, s.window)
	if err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "rate limit check failed")
	}
	var count int64 = 1
	if !acquired {
		count, err = s.cache.Incr(ctxCache, key)
		if err != nil {
			return appErr.Wrapf(err, appErr.CacheError, "rate limit check failed")
		}
		// Repair keys that lost their TTL so the window cannot stick forever.
		if ttl, ttlErr := s.cache.TTL(ctxCache, key); ttlErr == nil && ttl < 0 {
			_ = s.cache.Expire(ctxCache, key, s.window)
		}
	}
	if int(count) > s.max {
		return appErr.New(appErr.TooManyRequests).WithMessage("rate limit exceeded")
	}
	return nil
}
