package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driving"
	"github.com/nurulhuda/masjid-content/internal/metrics"
)

// Ensure displayCatalog implements CatalogService
var _ driving.CatalogService = (*displayCatalog)(nil)

// Catalog defaults
const (
	DefaultCatalogConcurrency = 8
	DefaultCatalogItemTimeout = 5 * time.Second
	DefaultMaxPageSize        = 100
)

// displayCatalog materializes collections through the content cache
type displayCatalog struct {
	source      driven.ContentSource
	cache       *ContentCache
	concurrency int
	itemTimeout time.Duration
	maxPageSize int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// DisplayCatalogConfig holds configuration for the display catalog.
type DisplayCatalogConfig struct {
	Source      driven.ContentSource
	Cache       *ContentCache
	Concurrency int           // Parallel fetches per request (default: 8)
	ItemTimeout time.Duration // Deadline for one upstream fetch (default: 5s)
	MaxPageSize int           // Largest page served (default: 100)
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// NewDisplayCatalog creates a new CatalogService
func NewDisplayCatalog(cfg DisplayCatalogConfig) driving.CatalogService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultCatalogConcurrency
	}

	itemTimeout := cfg.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = DefaultCatalogItemTimeout
	}

	maxPageSize := cfg.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}

	return &displayCatalog{
		source:      cfg.Source,
		cache:       cfg.Cache,
		concurrency: concurrency,
		itemTimeout: itemTimeout,
		maxPageSize: maxPageSize,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

// Get returns a single record through the cache
func (d *displayCatalog) Get(ctx context.Context, ref domain.ContentRef) (*domain.Record, error) {
	c, err := domain.ResolveCollection(ref.Type, ref.Name, ref.SubCollection)
	if err != nil {
		return nil, err
	}
	ref.Collection = c

	if !c.Contains(ref.ID) {
		return nil, fmt.Errorf("%s %d: %w", ref.Type, ref.ID, domain.ErrNotFound)
	}

	return d.cache.GetRecord(ctx, domain.RecordKey(ref), func(ctx context.Context) (*domain.Record, error) {
		ctx, cancel := context.WithTimeout(ctx, d.itemTimeout)
		defer cancel()
		return d.source.Fetch(ctx, ref)
	})
}

// GetAll returns every record of a small fixed collection.
// A complete listing is cached as a whole; a partial one never is.
func (d *displayCatalog) GetAll(ctx context.Context, c domain.Collection) (*domain.CatalogResult, error) {
	c, err := domain.ResolveCollection(c.Type, c.Name, c.SubCollection)
	if err != nil {
		return nil, err
	}
	if c.Mode() != domain.CatalogModeEager {
		return nil, fmt.Errorf("%s %s has %d items, use paging: %w", c.Type, c.Name, c.Size(), domain.ErrConfig)
	}

	key := domain.ListKey(c)
	if records, ok := d.cache.LookupRecords(ctx, key); ok {
		return &domain.CatalogResult{Collection: c, Records: records}, nil
	}

	records, failed, err := d.fetchEach(ctx, c, 1, c.Size())
	if err != nil {
		return nil, err
	}
	if len(failed) == 0 {
		d.cache.PutRecords(ctx, key, records)
	}

	return &domain.CatalogResult{
		Collection: c,
		Records:    records,
		Failed:     failed,
	}, nil
}

// GetPage returns the window [offset, offset+limit) of a collection.
// Collections with a bulk endpoint are served by one upstream call, the rest by per-id fetches.
// limit is clamped to the larger of the configured maximum and the type's default page size.
func (d *displayCatalog) GetPage(ctx context.Context, c domain.Collection, offset, limit int) (*domain.Page, error) {
	c, err := domain.ResolveCollection(c.Type, c.Name, c.SubCollection)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset %d: %w", offset, domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = c.Type.DefaultPageSize()
	}
	limit = min(limit, max(d.maxPageSize, c.Type.DefaultPageSize()))

	page := &domain.Page{
		Collection: c,
		Records:    []*domain.Record{},
		Offset:     offset,
		Limit:      limit,
		Total:      c.Size(),
	}

	from := offset + 1
	to := min(offset+limit, c.Size())
	if from > to {
		return page, nil
	}

	if d.source.SupportsRange(c) {
		records, err := d.fetchRange(ctx, c, from, to)
		if err != nil {
			return nil, err
		}
		page.Records = records
		return page, nil
	}

	if c.Mode() == domain.CatalogModeEager {
		if all, ok := d.cache.LookupRecords(ctx, domain.ListKey(c)); ok {
			page.Records = window(all, from, to)
			return page, nil
		}
	}

	key := domain.PageKey(c, from, to)
	if records, ok := d.cache.LookupRecords(ctx, key); ok {
		page.Records = records
		return page, nil
	}

	records, failed, err := d.fetchEach(ctx, c, from, to)
	if err != nil {
		return nil, err
	}
	if len(failed) == 0 {
		d.cache.PutRecords(ctx, key, records)
	}
	page.Records = records
	page.Failed = failed
	return page, nil
}

// fetchRange loads a window with one bulk call and also fills the per-record entries
func (d *displayCatalog) fetchRange(ctx context.Context, c domain.Collection, from, to int) ([]*domain.Record, error) {
	return d.cache.GetRecords(ctx, domain.PageKey(c, from, to), func(ctx context.Context) ([]*domain.Record, error) {
		ctx, cancel := context.WithTimeout(ctx, d.itemTimeout)
		defer cancel()

		records, err := d.source.FetchRange(ctx, c, from, to)
		if err != nil {
			return nil, err
		}
		sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
		for _, r := range records {
			d.cache.PutRecord(ctx, r)
		}
		return records, nil
	})
}

// fetchEach fans out one fetch per id in [from, to] and returns the successes in id order.
// Skippable failures are logged and reported by id; anything else aborts the batch.
func (d *displayCatalog) fetchEach(ctx context.Context, c domain.Collection, from, to int) ([]*domain.Record, []int, error) {
	n := to - from + 1
	results := make([]*domain.Record, n)
	errs := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i := range n {
		g.Go(func() error {
			record, err := d.Get(gctx, c.Ref(from+i))
			if err != nil {
				if domain.IsSkippable(err) {
					errs[i] = err
					return nil
				}
				return err
			}
			results[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	records := make([]*domain.Record, 0, n)
	var failed []int
	for i := range n {
		if errs[i] != nil {
			id := from + i
			failed = append(failed, id)
			d.logger.Warn("catalog item skipped",
				"content_type", c.Type,
				"collection", c.Name,
				"sub_collection", c.SubCollection,
				"id", id,
				"error", errs[i],
			)
			continue
		}
		records = append(records, results[i])
	}
	d.metrics.RecordCatalogSkipped(string(c.Type), len(failed))

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s %s: all %d items failed: %w", c.Type, c.Name, n, domain.ErrUpstream)
	}
	if len(failed) > 0 {
		d.logger.Info("partial catalog",
			"content_type", c.Type,
			"collection", c.Name,
			"fetched", len(records),
			"failed", len(failed),
		)
	}
	return records, failed, nil
}

// window returns the records of a sorted listing whose id lies in [from, to]
func window(records []*domain.Record, from, to int) []*domain.Record {
	out := make([]*domain.Record, 0, to-from+1)
	for _, r := range records {
		if r.ID >= from && r.ID <= to {
			out = append(out, r)
		}
	}
	return out
}
