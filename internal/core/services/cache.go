package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driving"
	"github.com/nurulhuda/masjid-content/internal/metrics"
)

// Ensure ContentCache implements CacheAdminService
var _ driving.CacheAdminService = (*ContentCache)(nil)

// DefaultCacheTTL is used for content types without an explicit TTL
const DefaultCacheTTL = 24 * time.Hour

// RecordLoader fetches a single record on a cache miss. Its ctx is never
// cancelled by the caller, so it applies its own deadline.
type RecordLoader func(ctx context.Context) (*domain.Record, error)

// ListLoader fetches a record list on a cache miss
type ListLoader func(ctx context.Context) ([]*domain.Record, error)

// ContentCache is a read-through cache in front of the content source.
// Entries are JSON envelopes in a CacheStore; every caller decodes its own copy,
// so no cached value is ever shared between requests.
type ContentCache struct {
	store      driven.CacheStore
	defaultTTL time.Duration
	ttls       map[domain.ContentType]time.Duration
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     *slog.Logger

	group singleflight.Group
}

// ContentCacheConfig holds configuration for the content cache.
type ContentCacheConfig struct {
	Store      driven.CacheStore
	DefaultTTL time.Duration                        // Default: 24h
	TTLs       map[domain.ContentType]time.Duration // Per content type overrides
	Clock      func() time.Time                     // Default: time.Now
	Metrics    *metrics.Metrics                     // Optional
	Logger     *slog.Logger
}

// NewContentCache creates a new content cache.
func NewContentCache(cfg ContentCacheConfig) *ContentCache {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defaultTTL := cfg.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = DefaultCacheTTL
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	ttls := make(map[domain.ContentType]time.Duration, len(cfg.TTLs))
	for t, ttl := range cfg.TTLs {
		if ttl > 0 {
			ttls[t] = ttl
		}
	}

	return &ContentCache{
		store:      cfg.Store,
		defaultTTL: defaultTTL,
		ttls:       ttls,
		now:        clock,
		metrics:    cfg.Metrics,
		logger:     logger,
	}
}

// TTL returns the time-to-live of a content type
func (c *ContentCache) TTL(t domain.ContentType) time.Duration {
	if ttl, ok := c.ttls[t]; ok {
		return ttl
	}
	return c.defaultTTL
}

// GetRecord returns the cached record for key, or runs load on a miss and stores its result.
// Loader errors are returned unchanged and nothing is written.
func (c *ContentCache) GetRecord(ctx context.Context, key domain.CacheKey, load RecordLoader) (*domain.Record, error) {
	if entry := c.lookup(ctx, key); entry != nil && entry.Record != nil {
		return entry.Record, nil
	}

	v, err := c.fill(ctx, key, func(ctx context.Context) (any, error) {
		record, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.write(ctx, key, &domain.CacheEntry{Record: record})
		return record, nil
	})
	if err != nil {
		return nil, err
	}
	// singleflight hands the same value to every waiter
	return v.(*domain.Record).Clone(), nil
}

// GetRecords is GetRecord for listings and pages.
func (c *ContentCache) GetRecords(ctx context.Context, key domain.CacheKey, load ListLoader) ([]*domain.Record, error) {
	if entry := c.lookup(ctx, key); entry != nil && entry.IsList {
		return entry.Records, nil
	}

	v, err := c.fill(ctx, key, func(ctx context.Context) (any, error) {
		records, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.write(ctx, key, &domain.CacheEntry{Records: records, IsList: true})
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return domain.CloneRecords(v.([]*domain.Record)), nil
}

// fill runs fn once for all concurrent misses on key. fn runs detached from the
// cancellation of whichever caller started it, so loaders must bound themselves.
// Each caller stops waiting when its own ctx is done.
func (c *ContentCache) fill(ctx context.Context, key domain.CacheKey, fn func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key.String(), func() (any, error) {
		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			c.metrics.RecordCacheFillError(string(key.Type), domain.ErrorKind(err))
		}
		return v, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w: %w", key, ctx.Err(), domain.ErrTimeout)
	}
}

// LookupRecords returns a fresh cached listing without loading anything on a miss.
func (c *ContentCache) LookupRecords(ctx context.Context, key domain.CacheKey) ([]*domain.Record, bool) {
	entry := c.lookup(ctx, key)
	if entry == nil || !entry.IsList {
		return nil, false
	}
	return entry.Records, true
}

// PutRecord stores a record fetched outside GetRecord, e.g. as part of a bulk window.
func (c *ContentCache) PutRecord(ctx context.Context, record *domain.Record) {
	c.write(ctx, domain.RecordKey(record.Ref()), &domain.CacheEntry{Record: record})
}

// PutRecords stores a listing without going through a loader.
func (c *ContentCache) PutRecords(ctx context.Context, key domain.CacheKey, records []*domain.Record) {
	c.write(ctx, key, &domain.CacheEntry{Records: records, IsList: true})
}

// InvalidateKey evicts a single cache entry
func (c *ContentCache) InvalidateKey(ctx context.Context, key domain.CacheKey) error {
	if err := c.store.Delete(ctx, key.String()); err != nil {
		c.metrics.RecordCacheStoreError("delete")
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	c.metrics.RecordEvictions(string(key.Type), 1)
	return nil
}

// Invalidate evicts a record together with the listings and pages of its collection,
// since those hold copies of it.
func (c *ContentCache) Invalidate(ctx context.Context, ref domain.ContentRef) error {
	if err := c.InvalidateKey(ctx, domain.RecordKey(ref)); err != nil {
		return err
	}
	if err := c.InvalidateKey(ctx, domain.ListKey(ref.Collection)); err != nil {
		return err
	}
	pagePrefix := domain.CacheKey{Collection: ref.Collection, Suffix: "page:"}.String()
	n, err := c.store.DeletePrefix(ctx, pagePrefix)
	if err != nil {
		c.metrics.RecordCacheStoreError("delete_prefix")
		return fmt.Errorf("invalidate pages %s: %w", pagePrefix, err)
	}
	c.metrics.RecordEvictions(string(ref.Type), n)

	c.logger.Info("cache entry invalidated",
		"content_type", ref.Type,
		"collection", ref.Name,
		"sub_collection", ref.SubCollection,
		"id", ref.ID,
	)
	return nil
}

// InvalidateType evicts every entry of a content type
func (c *ContentCache) InvalidateType(ctx context.Context, t domain.ContentType) (int, error) {
	if !t.IsValid() {
		return 0, fmt.Errorf("content type %q: %w", t, domain.ErrConfig)
	}
	n, err := c.store.DeletePrefix(ctx, domain.TypePrefix(t))
	if err != nil {
		c.metrics.RecordCacheStoreError("delete_prefix")
		return 0, fmt.Errorf("invalidate %s: %w", t, err)
	}
	c.metrics.RecordEvictions(string(t), n)
	c.logger.Info("cache type invalidated", "content_type", t, "removed", n)
	return n, nil
}

// Ping checks the cache backend
func (c *ContentCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// lookup returns a fresh entry for key, or nil on a miss.
// Backend failures and undecodable entries count as misses.
func (c *ContentCache) lookup(ctx context.Context, key domain.CacheKey) *domain.CacheEntry {
	contentType := string(key.Type)

	data, err := c.store.Get(ctx, key.String())
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.metrics.RecordCacheStoreError("get")
			c.logger.Warn("cache read failed", "key", key.String(), "error", err)
		}
		c.metrics.RecordCacheLookup(contentType, metrics.ResultMiss)
		return nil
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("cache entry undecodable", "key", key.String(), "error", err)
		c.metrics.RecordCacheLookup(contentType, metrics.ResultMiss)
		return nil
	}

	if entry.Expired(c.now()) {
		c.metrics.RecordCacheLookup(contentType, metrics.ResultStale)
		return nil
	}

	c.metrics.RecordCacheLookup(contentType, metrics.ResultHit)
	return &entry
}

// write stores a fresh entry. A failed write only costs a future miss.
func (c *ContentCache) write(ctx context.Context, key domain.CacheKey, entry *domain.CacheEntry) {
	ttl := c.TTL(key.Type)
	entry.Key = key.String()
	entry.FetchedAt = c.now()
	entry.TTLNanos = int64(ttl)

	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("cache entry encode failed", "key", entry.Key, "error", err)
		return
	}
	if err := c.store.Set(ctx, entry.Key, data, ttl); err != nil {
		c.metrics.RecordCacheStoreError("set")
		c.logger.Warn("cache write failed", "key", entry.Key, "error", err)
	}
}
