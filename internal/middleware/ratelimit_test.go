// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/config"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiterLocalFallback(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit: redis_rate.Limit{Rate: 2, Burst: 2, Period: time.Minute},
	}, discardLogger())
	h := rl.Handler(okHandler)

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/submissions", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)

	rec := send("10.0.0.1:1234")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

	var body core.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMITED", body.Code)
	assert.Contains(t, body.Error, "too many requests")

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(req, false))
	assert.Equal(t, "ratelimit:ip:192.0.2.1", KeyByIP(false)(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "192.0.2.1", ClientIP(req, false))
	assert.Equal(t, "198.51.100.7", ClientIP(req, true))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.1")
	assert.Equal(t, "192.0.2.1", ClientIP(req, false))
	assert.Equal(t, "198.51.100.1", ClientIP(req, true))
	assert.Equal(t, "ratelimit:ip:198.51.100.1", KeyByIP(true)(req))
}

func TestSpoofedForwardedForSharesBucketUnlessTrusted(t *testing.T) {
	limit := redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Minute}

	send := func(h http.Handler, xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.9:4000"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	untrusted := NewRateLimiter(nil, RateLimitConfig{
		Limit:   limit,
		KeyFunc: KeyByIP(false),
	}, discardLogger()).Handler(okHandler)
	assert.Equal(t, http.StatusOK, send(untrusted, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send(untrusted, "203.0.113.2"))

	trusted := NewRateLimiter(nil, RateLimitConfig{
		Limit:   limit,
		KeyFunc: KeyByIP(true),
	}, discardLogger()).Handler(okHandler)
	assert.Equal(t, http.StatusOK, send(trusted, "203.0.113.1"))
	assert.Equal(t, http.StatusOK, send(trusted, "203.0.113.2"))
}

func intakeRouter(limiters Limiters) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.With(limiters.Public).Post("/auth/login", okHandler)
		r.With(limiters.Public).Post("/submissions", okHandler)
		r.With(limiters.Uploads).Post("/files", okHandler)
	})
	return r
}

func TestLimitersFitFullIntake(t *testing.T) {
	limiters := NewLimiters(nil, config.RateLimitConfig{
		Requests:       30,
		Window:         time.Minute,
		Burst:          10,
		UploadRequests: 60,
		UploadBurst:    30,
	}, discardLogger())
	h := intakeRouter(limiters)

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.1.1.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("/api/submissions"))
	for i := range 12 {
		require.Equal(t, http.StatusOK, send("/api/files"), "upload %d", i+1)
	}
	assert.Equal(t, http.StatusOK, send("/api/auth/login"))
}

func TestLimitersKeepRoutesApart(t *testing.T) {
	limiters := NewLimiters(nil, config.RateLimitConfig{
		Requests:       1,
		Window:         time.Minute,
		Burst:          1,
		UploadRequests: 1,
		UploadBurst:    1,
	}, discardLogger())
	h := intakeRouter(limiters)

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.1.1.2:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("/api/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, send("/api/auth/login"))
	assert.Equal(t, http.StatusOK, send("/api/submissions"))
	assert.Equal(t, http.StatusOK, send("/api/files"))
	assert.Equal(t, http.StatusTooManyRequests, send("/api/files"))
}

func TestKeyByRouteUsesPattern(t *testing.T) {
	var key string
	r := chi.NewRouter()
	r.With(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			key = KeyByRoute(false)(req)
			next.ServeHTTP(w, req)
		})
	}).Delete("/api/files/{id}", okHandler)

	req := httptest.NewRequest(http.MethodDelete, "/api/files/abc", nil)
	req.RemoteAddr = "192.0.2.4:1"
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "ratelimit:DELETE:/api/files/{id}:192.0.2.4", key)
}

func TestLimitFromConfig(t *testing.T) {
	limit := LimitFromConfig(config.RateLimitConfig{
		Requests: 30,
		Window:   time.Minute,
		Burst:    10,
	})

	assert.Equal(t, 30, limit.Rate)
	assert.Equal(t, 10, limit.Burst)
	assert.Equal(t, time.Minute, limit.Period)
}
