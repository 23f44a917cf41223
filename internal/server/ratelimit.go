package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gymqrs/backend/internal/api"
	"github.com/gymqrs/backend/internal/config"
)

// Limiter counts requests per key over a fixed window. When the limit is
// exceeded it reports how long until the window resets.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// NewLimiter picks the backend from config: redis when an address is set so
// limits hold across replicas, otherwise a per-process counter.
func NewLimiter(config *config.RateLimitConfig, log *zap.Logger) Limiter {
	if config.RedisAddr != "" {
		log.Info("using redis rate limiter", zap.String("addr", config.RedisAddr))
		return NewRedisLimiter(config.RedisAddr)
	}
	return NewLocalLimiter()
}

type localWindow struct {
	count    int
	resetsAt time.Time
}

type localLimiter struct {
	windows map[string]*localWindow
	mu      sync.Mutex
	now     func() time.Time
}

func NewLocalLimiter() Limiter {
	return &localLimiter{
		windows: make(map[string]*localWindow),
		now:     time.Now,
	}
}

func (l *localLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]
	if !exists || now.After(w.resetsAt) {
		w = &localWindow{resetsAt: now.Add(window)}
		l.windows[key] = w
	}

	w.count++
	if w.count > limit {
		return false, w.resetsAt.Sub(now), nil
	}
	return true, 0, nil
}

// RateLimitMiddleware enforces per-client-IP, per-route fixed windows.
// Endpoints that take credentials get the stricter bucket. A limiter backend
// failure fails open: slightly over-admitting beats refusing every login
// while redis is down.
func RateLimitMiddleware(config *config.RateLimitConfig, limiter Limiter, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !config.Enabled {
				return next(c)
			}

			route := c.Path()
			limit := config.RequestsPerMinute
			if api.CredentialEndpoints[route] {
				limit = config.AuthRequestsPerMinute
			}

			key := fmt.Sprintf("ratelimit:%s:%s", c.RealIP(), route)
			allowed, retryAfter, err := limiter.Allow(c.Request().Context(), key, limit, config.Window)
			if err != nil {
				log.Error("rate limiter unavailable", zap.Error(err))
				return next(c)
			}
			if !allowed {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(retryAfter)))
				return c.JSON(http.StatusTooManyRequests, errorResponse{
					Error:   "too_many_requests",
					Message: "rate limit exceeded, retry later",
				})
			}

			return next(c)
		}
	}
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
