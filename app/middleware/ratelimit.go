package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/factory"
	"github.com/vibast-solutions/ms-go-reservations/app/types"
	"github.com/vibast-solutions/ms-go-reservations/config"
	"golang.org/x/time/rate"
)

var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// RateLimiter is a token bucket per client ip and route. Buckets live in Redis
// when a client is configured; otherwise, or when Redis fails, an in-process
// limiter is used.
type RateLimiter struct {
	cfg    config.RateLimitConfig
	rdb    *redis.Client
	local  sync.Map
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) *RateLimiter {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 20
	}
	if cfg.RefillTokens <= 0 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = 3 * time.Second
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		cfg.Prefix = "reservations:rl"
	}

	return &RateLimiter{
		cfg:    cfg,
		rdb:    rdb,
		logger: factory.NewModuleLogger("rate-limiter"),
		now:    time.Now,
	}
}

func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !l.cfg.Enabled {
			return next
		}
		return func(c echo.Context) error {
			key := l.key(c)
			d := l.allow(c.Request().Context(), key)

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if d.allowed {
				return next(c)
			}

			secs := int(math.Ceil(d.retry.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
			factory.LoggerWithContext(l.logger, c).WithField("key", key).Info("Rate limit exceeded")
			return c.JSON(http.StatusTooManyRequests, &types.ErrorResponse{Error: "rate limit exceeded", Code: "rate_limited"})
		}
	}
}

func (l *RateLimiter) allow(ctx context.Context, key string) decision {
	if l.rdb != nil {
		d, err := l.allowRedis(ctx, key)
		if err == nil {
			return d
		}
		l.logger.WithError(err).WithField("key", key).Warn("Redis rate limit failed, using local limiter")
	}
	return l.allowLocal(key)
}

func (l *RateLimiter) allowRedis(ctx context.Context, key string) (decision, error) {
	vals, err := tokenBucketScript.Run(ctx, l.rdb, []string{key},
		l.now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		int64(l.cfg.TTL/time.Second),
	).Result()
	if err != nil {
		return decision{}, err
	}

	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return decision{}, fmt.Errorf("unexpected script result %#v", vals)
	}
	return decision{
		allowed:   asInt64(arr[0]) == 1,
		remaining: asInt64(arr[1]),
		retry:     time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

func (l *RateLimiter) allowLocal(key string) decision {
	limiter := l.localLimiter(key)
	now := l.now()
	if limiter.AllowN(now, 1) {
		return decision{allowed: true, remaining: int64(math.Max(0, math.Floor(limiter.TokensAt(now))))}
	}

	reservation := limiter.ReserveN(now, 1)
	retry := reservation.DelayFrom(now)
	reservation.CancelAt(now)
	return decision{retry: retry}
}

func (l *RateLimiter) localLimiter(key string) *rate.Limiter {
	if v, ok := l.local.Load(key); ok {
		return v.(*rate.Limiter)
	}
	every := l.cfg.RefillInterval / time.Duration(l.cfg.RefillTokens)
	limiter := rate.NewLimiter(rate.Every(every), l.cfg.Capacity)
	actual, _ := l.local.LoadOrStore(key, limiter)
	return actual.(*rate.Limiter)
}

func (l *RateLimiter) key(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{l.cfg.Prefix, "ip", ip, "route", c.Request().Method + " " + c.Path()}, ":")
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
