package driving

import (
	"context"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// CacheAdminService exposes explicit cache eviction
type CacheAdminService interface {
	// Invalidate evicts a single record
	Invalidate(ctx context.Context, ref domain.ContentRef) error

	// InvalidateType evicts every entry of a content type
	InvalidateType(ctx context.Context, contentType domain.ContentType) (int, error)
}
