package services

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/address-simplifier/internal/oracle"
	"go.uber.org/zap"
)

// ErrCacheDisabled is returned by cache admin operations when caching is off
var ErrCacheDisabled = errors.New("cache is disabled")

// SessionStats reports browser session pool counters
type SessionStats interface {
	Stats() oracle.PoolStats
}

// SystemStats admin overview
type SystemStats struct {
	Cache       *CacheStats            `json:"cache,omitempty"`
	Sessions    *oracle.PoolStats      `json:"sessions,omitempty"`
	Jobs        int                    `json:"jobs"`
	Uptime      time.Duration          `json:"-"`
	MemoryUsage map[string]interface{} `json:"memory_usage"`
}

// AdminService backs the admin routes
type AdminService struct {
	cache     ICacheService
	sessions  SessionStats
	jobs      *BatchService
	logger    *zap.Logger
	startTime time.Time
}

// NewAdminService creates the service. Every collaborator may be nil.
func NewAdminService(cache ICacheService, sessions SessionStats, jobs *BatchService, logger *zap.Logger) *AdminService {
	return &AdminService{
		cache:     cache,
		sessions:  sessions,
		jobs:      jobs,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetSystemStats collects cache, session pool, job and memory figures
func (s *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	stats := &SystemStats{Uptime: time.Since(s.startTime)}

	if s.cache != nil {
		cacheStats, err := s.cache.GetStats(ctx)
		if err != nil {
			s.logger.Warn("Failed to read cache stats", zap.Error(err))
		} else {
			stats.Cache = cacheStats
		}
	}
	if s.sessions != nil {
		poolStats := s.sessions.Stats()
		stats.Sessions = &poolStats
	}
	if s.jobs != nil {
		stats.Jobs = s.jobs.Count()
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.MemoryUsage = map[string]interface{}{
		"alloc_mb":   m.Alloc / 1024 / 1024,
		"sys_mb":     m.Sys / 1024 / 1024,
		"num_gc":     m.NumGC,
		"goroutines": runtime.NumGoroutine(),
	}
	return stats, nil
}

// ClearCache drops every cached lookup
func (s *AdminService) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return ErrCacheDisabled
	}
	if err := s.cache.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("Lookup cache cleared")
	return nil
}
