package middleware

import (
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/course-portal/internal/config"
	"github.com/iliyamo/course-portal/internal/logging"
)

// bucketScript takes ARGV[5] tokens from the bucket at KEYS[1] and returns
// {tokens left, ms until the next refill}.  A zero wait means the request was
// admitted.  Tokens come back in whole steps of ARGV[3] every ARGV[4] ms.
var bucketScript = redis.NewScript(`
local cap = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local step = tonumber(ARGV[3])
local every = tonumber(ARGV[4])
local cost = tonumber(ARGV[5])

local b = redis.call('HMGET', KEYS[1], 'n', 'at')
local n = tonumber(b[1]) or cap
local at = tonumber(b[2]) or now

local ticks = math.floor((now - at) / every)
if ticks > 0 then
	n = math.min(cap, n + ticks * step)
	at = at + ticks * every
end

local wait = 0
if n >= cost then
	n = n - cost
else
	wait = math.max(1, every - (now - at))
end

redis.call('HSET', KEYS[1], 'n', n, 'at', at)
redis.call('PEXPIRE', KEYS[1], ARGV[6])
return {n, wait}
`)

// NewTokenBucket limits requests with a Redis token bucket per endpoint
// family and client.  Mutations take cfg.WriteCost tokens.  Redis failures
// let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logging.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucketKey(cfg, c)
			cost := 1
			if isMutation(c.Request().Method) {
				cost = max(cfg.WriteCost, 1)
			}

			ctx := c.Request().Context()
			res, err := bucketScript.Run(ctx, rdb, []string{key},
				cfg.Capacity,
				time.Now().UnixMilli(),
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				cost,
				cfg.TTL.Milliseconds(),
			).Int64Slice()
			if err != nil || len(res) != 2 {
				log.Warn(ctx, "ratelimit: bucket unavailable", "key", key, "error", err)
				return next(c)
			}
			left, wait := res[0], time.Duration(res[1])*time.Millisecond

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(left, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}

			if wait > 0 {
				// round up so clients never retry early
				h.Set("Retry-After", strconv.FormatInt(int64((wait+time.Second-1)/time.Second), 10))
				if cfg.Debug {
					log.Info(ctx, "ratelimit: blocked", "key", key, "wait", wait.String())
				}
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"success": false,
					"error":   "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}

// bucketKey is prefix:family:subject, where family is the last segment of
// the matched route (users, weekly, login, ...).
func bucketKey(cfg config.RateLimitConfig, c echo.Context) string {
	family := path.Base(c.Path())
	if family == "" || family == "." || family == "/" || strings.ContainsAny(family, "*:") {
		family = "other"
	}

	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := IdentityFrom(c).UserID

	var subject string
	switch {
	case cfg.Scope == config.ScopeIP:
		subject = "ip:" + ip
	case cfg.Scope == config.ScopeUser && uid != "":
		subject = "user:" + uid
	case uid != "":
		subject = "ip:" + ip + ":user:" + uid
	default:
		// anonymous callers are told apart by address alone
		subject = "ip:" + ip
	}
	return cfg.Prefix + ":" + family + ":" + subject
}
