package server

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(addr string) Limiter {
	return &redisLimiter{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (l *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	// First hit opens the window.
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count > int64(limit) {
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil {
			return false, 0, err
		}
		if ttl < 0 {
			ttl = window
		}
		return false, ttl, nil
	}
	return true, 0, nil
}
