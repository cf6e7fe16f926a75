package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/iliyamo/food-order-webhook/internal/config"
	"github.com/iliyamo/food-order-webhook/internal/session"
)

// SlowDownText is the fulfillment text sent to a rate-limited conversation.
// The NLU platform treats any non-2xx answer as a webhook failure, so a
// limited request still gets 200.
const SlowDownText = "You're going a bit fast for me. Please wait a moment and try again."

// peekLimit bounds how much of the body is buffered to find the session.
const peekLimit = 1 << 20

// bucketScript refills KEYS[1] in whole intervals and takes one token.
// Returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now_ms
end

local steps = math.floor(math.max(0, now_ms - ts) / interval_ms)
if steps > 0 then
  tokens = math.min(capacity, tokens + steps * refill)
  ts = ts + steps * interval_ms
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.max(0, interval_ms - (now_ms - ts))
end

redis.call('HSET', key, 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', key, ttl)
return { allowed, tokens, retry_ms }
`)

// NewRateLimiter returns a token-bucket limiter for the webhook.  Buckets
// live in Redis when rdb is non-nil so every replica shares them; otherwise
// Echo's in-memory store is used.  Only POST requests are limited.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	log = log.With().Str("component", "ratelimit").Logger()
	if rdb == nil {
		log.Info().Msg("redis unavailable, using in-memory rate limiter")
		return memoryLimiter(cfg)
	}
	return redisLimiter(cfg, rdb, log)
}

func skip(c echo.Context) bool { return c.Request().Method != http.MethodPost }

func slowDown(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"fulfillmentText": SlowDownText})
}

func memoryLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	perSec := float64(cfg.RefillTokens) / cfg.RefillInterval.Seconds()
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSec),
		Burst:     cfg.Capacity,
		ExpiresIn: cfg.TTL,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: skip,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return rateKey(cfg, c), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error { return slowDown(c) },
		DenyHandler:  func(c echo.Context, _ string, _ error) error { return slowDown(c) },
	})
}

func redisLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) echo.MiddlewareFunc {
	ttlSec := int64(math.Ceil(cfg.TTL.Seconds()))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip(c) {
				return next(c)
			}
			key := rateKey(cfg, c)
			res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), ttlSec,
			).Int64Slice()
			if err != nil || len(res) != 3 {
				// fail open: a broken limiter must not take the bot down
				log.Warn().Err(err).Str("key", key).Msg("rate limit script failed")
				return next(c)
			}
			allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if !allowed {
				h.Set("Retry-After", strconv.FormatInt((retryMs+999)/1000, 10))
				log.Debug().Str("key", key).Int64("retry_ms", retryMs).Msg("request limited")
				return slowDown(c)
			}
			return next(c)
		}
	}
}

// rateKey builds the bucket key for the request according to
// cfg.KeyStrategy.  Requests without a recognizable session share the
// "anon" session bucket.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	parts := []string{cfg.Prefix}
	switch cfg.KeyStrategy {
	case "ip":
		parts = append(parts, "ip", ip)
	case "session_ip":
		parts = append(parts, "session", sessionToken(c), "ip", ip)
	default:
		parts = append(parts, "session", sessionToken(c))
	}
	return strings.Join(parts, ":")
}

// sessionToken reads the session token from the JSON body and puts the body
// back for the handler.
func sessionToken(c echo.Context) string {
	req := c.Request()
	if req.Body == nil {
		return "anon"
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, peekLimit))
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return "anon"
	}
	var peek struct {
		Session string `json:"session"`
	}
	if json.Unmarshal(body, &peek) != nil {
		return "anon"
	}
	if tok, ok := session.Token(peek.Session); ok {
		return tok
	}
	return "anon"
}
