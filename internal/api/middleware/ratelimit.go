package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lobby-backend/utils"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Counter counts hits on key inside a sliding window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Hit runs INCR and EXPIRE in one pipeline.
func (c *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rate limit pipeline: %w", err)
	}
	return incr.Val(), nil
}

// RateLimit rejects a client IP with 429 once it makes more than
// maxRequests calls inside window. Counter failures fail open.
func RateLimit(counter Counter, maxRequests int, window time.Duration, log *logrus.Entry) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if counter == nil || maxRequests <= 0 || window <= 0 {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + utils.RealClientIP(r)

			count, err := counter.Hit(r.Context(), key, window)
			if err != nil {
				log.WithError(err).Warn("rate limiter unavailable, letting request through")
				next(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
			remaining := int64(maxRequests) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(maxRequests) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(errorBody{Message: "Too many requests"})
				return
			}

			next(w, r)
		}
	}
}
