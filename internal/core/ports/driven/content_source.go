package driven

import (
	"context"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// ContentSource is a typed client over the remote religious-content API.
// Implementations are stateless and never retry.
type ContentSource interface {
	// Fetch retrieves a single record with exactly one upstream call.
	// Identifiers outside the collection bounds fail with domain.ErrNotFound
	// before any network traffic.
	Fetch(ctx context.Context, ref domain.ContentRef) (*domain.Record, error)

	// FetchRange retrieves the inclusive id window [from, to] with one bulk call.
	// Returns domain.ErrConfig when the collection has no bulk endpoint.
	FetchRange(ctx context.Context, c domain.Collection, from, to int) ([]*domain.Record, error)

	// SupportsRange reports whether FetchRange is available for the collection
	SupportsRange(c domain.Collection) bool
}
