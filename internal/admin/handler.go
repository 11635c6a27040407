// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/core"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/health"
	"github.com/BeCreativeRuben/StudioThielmanV2/internal/submission"
)

type SubmissionCounter interface {
	Counts(ctx context.Context) (*submission.Counts, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

type BackendChecker interface {
	Check(ctx context.Context) []health.HealthCheck
}

type Handler struct {
	submissions SubmissionCounter
	users       UserCounter
	backends    BackendChecker
	dbStats     func() sql.DBStats
	redisStats  func() *redis.PoolStats
	started     time.Time
}

// HandlerConfig wires the stats sources. DBStats and RedisStats are nil when
// the file store runs without Redis.
type HandlerConfig struct {
	Submissions SubmissionCounter
	Users       UserCounter
	Backends    BackendChecker
	DBStats     func() sql.DBStats
	RedisStats  func() *redis.PoolStats
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		submissions: cfg.Submissions,
		users:       cfg.Users,
		backends:    cfg.Backends,
		dbStats:     cfg.DBStats,
		redisStats:  cfg.RedisStats,
		started:     time.Now(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/stats", h.GetStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.submissions.Counts(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	users, err := h.users.Count(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := StatsResponse{
		Submissions: *counts,
		Users:       users,
		Runtime:     h.runtimeStats(),
		Database:    h.getDBStats(),
		Redis:       h.getRedisStats(),
	}
	if h.backends != nil {
		resp.Backends = h.backends.Check(ctx)
	}

	core.OK(w, resp)
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.runtimeStats())
}

func (h *Handler) runtimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

type StatsResponse struct {
	Submissions submission.Counts    `json:"submissions"`
	Users       int                  `json:"users"`
	Backends    []health.HealthCheck `json:"backends"`
	Runtime     RuntimeStats         `json:"runtime"`
	Database    *DBPoolStats         `json:"database,omitempty"`
	Redis       *RedisPoolStats      `json:"redis,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
	Uptime       string `json:"uptime"`
}
