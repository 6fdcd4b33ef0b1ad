package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driving"
	"github.com/nurulhuda/masjid-content/internal/metrics"
	"github.com/nurulhuda/masjid-content/internal/textmatch"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// Search defaults
const (
	DefaultSearchLimit  = 20
	MaxSearchLimit      = 100
	DefaultMaxScan      = 2000
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
)

// repeatBonus is added per extra occurrence of a token in one field, for at most maxRepeats extras
const (
	repeatBonus = 0.25
	maxRepeats  = 2
)

// Weights are the per-field score multipliers. Title > Secondary > Primary.
type Weights struct {
	Title     float64
	Secondary float64
	Primary   float64
}

// DefaultWeights returns the standard field weights
func DefaultWeights() Weights {
	return Weights{Title: 3, Secondary: 2, Primary: 1}
}

// maxPerToken is the highest score one token can contribute across all fields
func (w Weights) maxPerToken() float64 {
	return (w.Title + w.Secondary + w.Primary) * (1 + repeatBonus*maxRepeats)
}

// searchService implements the SearchService interface
type searchService struct {
	catalog      driving.CatalogService
	weights      Weights
	defaultLimit int
	maxLimit     int
	maxScan      int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// SearchServiceConfig holds configuration for the search service.
type SearchServiceConfig struct {
	Catalog      driving.CatalogService
	Weights      Weights // Default: DefaultWeights()
	DefaultLimit int     // Default: 20
	MaxLimit     int     // Default: 100
	MaxScan      int     // Records scanned in a paged collection (default: 2000)
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(cfg SearchServiceConfig) driving.SearchService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	weights := cfg.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}

	s := &searchService{
		catalog:      cfg.Catalog,
		weights:      weights,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		maxScan:      cfg.MaxScan,
		metrics:      cfg.Metrics,
		logger:       logger,
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = DefaultSearchLimit
	}
	if s.maxLimit <= 0 {
		s.maxLimit = MaxSearchLimit
	}
	if s.maxScan <= 0 {
		s.maxScan = DefaultMaxScan
	}
	return s
}

// Search ranks the candidates of one content type against the query.
// Empty text browses: filters apply and every survivor scores 0.
func (s *searchService) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error) {
	start := time.Now()

	if !query.ContentType.IsValid() {
		return nil, fmt.Errorf("content type %q: %w", query.ContentType, domain.ErrConfig)
	}

	// Apply defaults
	if query.Limit <= 0 {
		query.Limit = s.defaultLimit
	}
	if query.Limit > s.maxLimit {
		query.Limit = s.maxLimit
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	candidates, partial, err := s.candidates(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates = applyFilters(candidates, query.Filters)
	tokens := textmatch.Tokenize(query.Text)

	results := make([]*domain.SearchResult, 0, len(candidates))
	for _, record := range candidates {
		if len(tokens) == 0 {
			results = append(results, newResult(record))
			continue
		}
		if result := s.score(record, tokens); result != nil {
			results = append(results, result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.ID < results[j].Record.ID
	})

	total := len(results)
	results = paginate(results, query.Offset, query.Limit)

	took := time.Since(start)
	s.metrics.RecordSearch(string(query.ContentType), total, took)

	return &domain.SearchResponse{
		Query:   query.Text,
		Results: results,
		Total:   total,
		Partial: partial,
		Took:    took,
	}, nil
}

// candidates resolves the records a query is evaluated against.
// Collection and sub-collection filters select the catalog here; number_range
// narrows the window of paged collections.
func (s *searchService) candidates(ctx context.Context, query domain.SearchQuery) ([]*domain.Record, bool, error) {
	c, err := domain.ResolveCollection(query.ContentType, query.Filters.Collection, query.Filters.SubCollection)
	if err != nil {
		return nil, false, err
	}

	if c.Mode() == domain.CatalogModeEager {
		result, err := s.catalog.GetAll(ctx, c)
		if err != nil {
			return s.degrade(c, err)
		}
		return result.Records, result.Partial(), nil
	}

	from, to := 1, c.Size()
	if r := query.Filters.NumberRange; r != nil {
		from = max(from, r.From)
		to = min(to, r.To)
	}
	if from > to {
		return nil, false, nil
	}

	truncated := false
	if to-from+1 > s.maxScan {
		to = from + s.maxScan - 1
		truncated = true
	}

	// the catalog caps each page, so walk the window page by page
	var records []*domain.Record
	partial := truncated
	for offset := from - 1; offset < to; {
		page, err := s.catalog.GetPage(ctx, c, offset, to-offset)
		if err != nil {
			_, degraded, derr := s.degrade(c, err)
			if derr != nil {
				return nil, false, derr
			}
			return records, degraded, nil
		}
		records = append(records, page.Records...)
		partial = partial || len(page.Failed) > 0
		offset += page.Limit
	}
	return records, partial, nil
}

// degrade turns a failed candidate fetch into an empty, partial candidate set.
// Configuration errors still propagate.
func (s *searchService) degrade(c domain.Collection, err error) ([]*domain.Record, bool, error) {
	if !domain.IsSkippable(err) || errors.Is(err, context.Canceled) {
		return nil, false, err
	}
	s.logger.Warn("search candidates unavailable",
		"content_type", c.Type,
		"collection", c.Name,
		"error", err,
	)
	return nil, true, nil
}

// applyFilters keeps the records matching the structural filters.
// A category filter on records without categories matches none.
func applyFilters(records []*domain.Record, f domain.Filters) []*domain.Record {
	if f.Category == "" && f.NumberRange == nil {
		return records
	}
	out := make([]*domain.Record, 0, len(records))
	for _, r := range records {
		if f.Category != "" && !strings.EqualFold(r.Category, f.Category) {
			continue
		}
		if f.NumberRange != nil && !f.NumberRange.Contains(r.Number()) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type scoredField struct {
	field  domain.Field
	text   textmatch.Text
	weight float64
	spans  []domain.Span
}

// score returns the ranked result for record, or nil when no token matches.
// Each matched token is worth more than every field score combined, so
// records matching more tokens always rank first.
func (s *searchService) score(record *domain.Record, tokens []string) *domain.SearchResult {
	fields := []*scoredField{
		{field: domain.FieldTitle, text: textmatch.NewText(record.Title), weight: s.weights.Title},
		{field: domain.FieldSecondary, text: textmatch.NewText(record.SecondaryText), weight: s.weights.Secondary},
		{field: domain.FieldPrimary, text: textmatch.NewText(record.PrimaryText), weight: s.weights.Primary},
	}

	matched := 0
	fieldScore := 0.0
	for _, token := range tokens {
		hit := false
		for _, f := range fields {
			found := f.text.Find(token)
			if len(found) == 0 {
				continue
			}
			hit = true
			repeats := min(len(found)-1, maxRepeats)
			fieldScore += f.weight * (1 + repeatBonus*float64(repeats))
			f.spans = append(f.spans, found...)
		}
		if hit {
			matched++
		}
	}
	if matched == 0 {
		return nil
	}

	coverage := float64(len(tokens))*s.weights.maxPerToken() + 1

	result := newResult(record)
	result.Score = float64(matched)*coverage + fieldScore
	result.MatchedTokens = matched
	for _, f := range fields {
		if len(f.spans) == 0 {
			continue
		}
		result.Highlights = append(result.Highlights, domain.Highlight{
			Field: f.field,
			Spans: textmatch.MergeSpans(f.spans),
		})
	}
	return result
}

func newResult(record *domain.Record) *domain.SearchResult {
	return &domain.SearchResult{
		Record:      record,
		ContentType: record.ContentType,
		Collection:  record.Collection,
	}
}

func paginate(results []*domain.SearchResult, offset, limit int) []*domain.SearchResult {
	if offset >= len(results) {
		return []*domain.SearchResult{}
	}
	end := min(offset+limit, len(results))
	return results[offset:end]
}

// Suggest returns titles whose folded form, or one of whose words, starts with the folded prefix.
// Only catalogs that are materialized whole can be suggested from.
func (s *searchService) Suggest(ctx context.Context, contentType domain.ContentType, prefix string, limit int) ([]domain.SearchSuggestion, error) {
	if !contentType.IsValid() {
		return nil, fmt.Errorf("content type %q: %w", contentType, domain.ErrConfig)
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	var name string
	if contentType == domain.ContentTypeHadith {
		name = domain.CollectionArbain
	}
	c, err := domain.ResolveCollection(contentType, name, "")
	if err != nil {
		return nil, err
	}
	if c.Mode() != domain.CatalogModeEager {
		return nil, fmt.Errorf("suggestions for %s: %w", contentType, domain.ErrConfig)
	}

	folded := textmatch.Fold(strings.TrimSpace(prefix))
	suggestions := []domain.SearchSuggestion{}
	if folded == "" {
		return suggestions, nil
	}

	result, err := s.catalog.GetAll(ctx, c)
	if err != nil {
		if _, _, err := s.degrade(c, err); err != nil {
			return nil, err
		}
		return suggestions, nil
	}

	for _, r := range result.Records {
		if r.Title == "" || !titleMatches(r.Title, folded) {
			continue
		}
		suggestions = append(suggestions, domain.SearchSuggestion{Text: r.Title, ID: r.ID})
		if len(suggestions) == limit {
			break
		}
	}
	return suggestions, nil
}

func titleMatches(title, foldedPrefix string) bool {
	if textmatch.NewText(title).HasPrefix(foldedPrefix) {
		return true
	}
	for _, word := range textmatch.Tokenize(title) {
		if strings.HasPrefix(word, foldedPrefix) {
			return true
		}
	}
	return false
}
