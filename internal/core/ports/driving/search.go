package driving

import (
	"context"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// SearchService handles free-text search over religious content
type SearchService interface {
	// Search ranks the candidates of one content type against the query
	Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error)

	// Suggest provides title completions for the search box
	Suggest(ctx context.Context, contentType domain.ContentType, prefix string, limit int) ([]domain.SearchSuggestion, error)
}
