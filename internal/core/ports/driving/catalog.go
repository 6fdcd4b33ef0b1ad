package driving

import (
	"context"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// CatalogService materializes content for display.
type CatalogService interface {
	// Get returns a single record through the cache
	Get(ctx context.Context, ref domain.ContentRef) (*domain.Record, error)

	// GetAll returns every record of a small fixed collection, ordered by id.
	// Individual failures are skipped and reported in CatalogResult.Failed.
	GetAll(ctx context.Context, c domain.Collection) (*domain.CatalogResult, error)

	// GetPage returns the window [offset, offset+limit) of a collection, ordered by id
	GetPage(ctx context.Context, c domain.Collection, offset, limit int) (*domain.Page, error)
}
