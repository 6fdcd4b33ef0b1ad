package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driving"
)

const warmLockName = "cache-warmer"

// WarmResult is the outcome of warming one collection
type WarmResult struct {
	Collection domain.Collection `json:"collection"`
	Records    int               `json:"records"`
	Failed     int               `json:"failed"`
	Error      string            `json:"error,omitempty"`
}

// WarmReport summarizes one warming cycle
type WarmReport struct {
	Skipped  bool          `json:"skipped"` // another instance held the lock
	Results  []WarmResult  `json:"results"`
	Duration time.Duration `json:"duration"`
}

// CacheWarmer materializes the small catalogs so first visitors hit a warm cache.
// It runs once on demand or on a cron schedule.
//
// For multi-instance deployments, configure a DistributedLock so only one
// instance warms per cycle.
type CacheWarmer struct {
	catalog  driving.CatalogService
	lock     driven.DistributedLock
	logger   *slog.Logger
	schedule string
	targets  []domain.Collection
	lockTTL  time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// CacheWarmerConfig holds configuration for the cache warmer.
type CacheWarmerConfig struct {
	Catalog  driving.CatalogService
	Lock     driven.DistributedLock // Optional: coordination across instances
	Logger   *slog.Logger
	Schedule string              // Standard 5-field cron spec; empty disables Start
	Targets  []domain.Collection // Default: DefaultWarmTargets()
	LockTTL  time.Duration       // Default: 10m
}

// DefaultWarmTargets returns every collection small enough to be materialized whole
func DefaultWarmTargets() []domain.Collection {
	return []domain.Collection{
		{Type: domain.ContentTypeAsmaulHusna},
		{Type: domain.ContentTypeDoa},
		{Type: domain.ContentTypeHadith, Name: domain.CollectionArbain},
	}
}

// NewCacheWarmer creates a new cache warmer. An invalid schedule is rejected.
func NewCacheWarmer(cfg CacheWarmerConfig) (*CacheWarmer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("warm schedule %q: %v: %w", cfg.Schedule, err, domain.ErrConfig)
		}
	}

	targets := cfg.Targets
	if len(targets) == 0 {
		targets = DefaultWarmTargets()
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 10 * time.Minute
	}

	return &CacheWarmer{
		catalog:  cfg.Catalog,
		lock:     cfg.Lock,
		logger:   logger,
		schedule: cfg.Schedule,
		targets:  targets,
		lockTTL:  lockTTL,
	}, nil
}

// Start schedules warming cycles. It is a no-op without a schedule.
func (w *CacheWarmer) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running || w.schedule == "" {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(w.schedule, func() {
		if _, err := w.WarmOnce(ctx); err != nil {
			w.logger.Error("cache warm cycle failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule cache warmer: %w", err)
	}
	c.Start()

	w.cron = c
	w.running = true
	w.logger.Info("cache warmer starting", "schedule", w.schedule, "targets", len(w.targets))
	return nil
}

// Stop waits for a running cycle to finish and stops the schedule.
func (w *CacheWarmer) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	c := w.cron
	w.running = false
	w.cron = nil
	w.mu.Unlock()

	<-c.Stop().Done()
	w.logger.Info("cache warmer stopped")
}

// WarmOnce materializes every target collection once.
// Failed collections are reported, not returned as errors; only lock backend
// failures abort the cycle.
func (w *CacheWarmer) WarmOnce(ctx context.Context) (*WarmReport, error) {
	start := time.Now()
	report := &WarmReport{Results: make([]WarmResult, 0, len(w.targets))}

	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx, warmLockName, w.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire warm lock: %w", err)
		}
		if !acquired {
			w.logger.Debug("cache warm lock held by another instance, skipping cycle")
			report.Skipped = true
			return report, nil
		}
		defer func() {
			if err := w.lock.Release(ctx, warmLockName); err != nil {
				w.logger.Warn("failed to release cache warm lock", "error", err)
			}
		}()
	}

	for _, target := range w.targets {
		result := WarmResult{Collection: target}
		catalog, err := w.catalog.GetAll(ctx, target)
		if err != nil {
			result.Error = err.Error()
			w.logger.Warn("cache warm failed",
				"content_type", target.Type,
				"collection", target.Name,
				"error", err,
			)
		} else {
			result.Records = len(catalog.Records)
			result.Failed = len(catalog.Failed)
		}
		report.Results = append(report.Results, result)
	}

	report.Duration = time.Since(start)
	w.logger.Info("cache warm cycle complete",
		"collections", len(report.Results),
		"duration", report.Duration,
	)
	return report, nil
}
