// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/config"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
)

type RateLimitConfig struct {
	Limit   redis_rate.Limit
	KeyFunc func(*http.Request) string
}

// Limiters are the two budgets applied to public routes. Public covers
// login, register and submission create; Uploads covers file uploads.
type Limiters struct {
	Public  func(http.Handler) http.Handler
	Uploads func(http.Handler) http.Handler
}

// NewLimiters keys both budgets by route and client address, so one route's
// traffic never spends another route's allowance.
func NewLimiters(
	rdb *redis.Client,
	cfg config.RateLimitConfig,
	logger *slog.Logger,
) Limiters {
	keyFunc := KeyByRoute(cfg.TrustProxy)

	public := NewRateLimiter(rdb, RateLimitConfig{
		Limit:   LimitFromConfig(cfg),
		KeyFunc: keyFunc,
	}, logger)

	uploads := NewRateLimiter(rdb, RateLimitConfig{
		Limit: redis_rate.Limit{
			Rate:   cfg.UploadRequests,
			Burst:  cfg.UploadBurst,
			Period: cfg.Window,
		},
		KeyFunc: keyFunc,
	}, logger)

	return Limiters{Public: public.Handler, Uploads: uploads.Handler}
}

// RateLimiter enforces a per-key limit in Redis when a client is given and
// falls back to an in-process token bucket otherwise or when Redis errors.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
	logger   *slog.Logger
}

func NewRateLimiter(
	rdb *redis.Client,
	cfg RateLimitConfig,
	logger *slog.Logger,
) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP(false)
	}

	rl := &RateLimiter{
		fallback: newLocalLimiter(),
		config:   cfg,
		logger:   logger,
	}
	if rdb != nil {
		rl.limiter = redis_rate.NewLimiter(rdb)
	}
	return rl
}

// LimitFromConfig converts requests-per-window settings to a limit.
func LimitFromConfig(cfg config.RateLimitConfig) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   cfg.Requests,
		Burst:  cfg.Burst,
		Period: cfg.Window,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.config.KeyFunc(r)
		res := rl.allow(r.Context(), key)

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) *redis_rate.Result {
	if rl.limiter != nil {
		res, err := rl.limiter.Allow(ctx, key, rl.config.Limit)
		if err == nil {
			return res
		}
		rl.logger.WarnContext(ctx, "redis rate limiter unavailable, using local limiter",
			"error", err,
		)
	}
	return rl.fallback.allow(key, rl.config.Limit)
}

// KeyByIP keys requests by client address.
func KeyByIP(trustProxy bool) func(*http.Request) string {
	return func(r *http.Request) string {
		return "ratelimit:ip:" + ClientIP(r, trustProxy)
	}
}

// KeyByRoute keys requests by matched route pattern and client address.
func KeyByRoute(trustProxy bool) func(*http.Request) string {
	return func(r *http.Request) string {
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		return "ratelimit:" + r.Method + ":" + route + ":" + ClientIP(r, trustProxy)
	}
}

// ClientIP returns the peer address. Forwarding headers are only honored
// when trustProxy is set, since any client can send them.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ips := strings.Split(xff, ",")
			if ip := strings.TrimSpace(ips[len(ips)-1]); ip != "" {
				return ip
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSONError(w, core.NewAppError(
		nil,
		fmt.Sprintf("too many requests, retry after %d seconds", retryAfter),
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	))
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

type localLimiter struct {
	limiters sync.Map
}

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 10 * time.Minute
)

func newLocalLimiter() *localLimiter {
	l := &localLimiter{}
	go l.cleanup()
	return l
}

func (l *localLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-entryTTL).Unix()
		l.limiters.Range(func(key, value any) bool {
			entry, ok := value.(*limiterEntry)
			if ok && entry.lastAccess.Load() < cutoff {
				l.limiters.Delete(key)
			}
			return true
		})
	}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	ratePerSec := float64(limit.Rate) / limit.Period.Seconds()

	entryI, loaded := l.limiters.Load(key)
	if !loaded {
		entryI, _ = l.limiters.LoadOrStore(key, &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(ratePerSec), limit.Burst),
		})
	}

	entry := entryI.(*limiterEntry) //nolint:forcetypeassert // only *limiterEntry is stored
	entry.lastAccess.Store(time.Now().Unix())

	allowed := entry.limiter.Allow()

	remaining := max(int(entry.limiter.Tokens()), 0)

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: -1,
		ResetAfter: time.Duration(float64(time.Second) / ratePerSec),
	}
	if allowed {
		res.Allowed = 1
	} else {
		res.RetryAfter = time.Duration(float64(time.Second) / ratePerSec)
	}
	return res
}
