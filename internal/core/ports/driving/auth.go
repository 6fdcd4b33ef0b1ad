package driving

import (
	"context"
	"time"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// AuthService validates and issues admin bearer tokens
type AuthService interface {
	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// IssueToken signs a token for subject with the given role and lifetime
	IssueToken(ctx context.Context, subject string, role domain.Role, ttl time.Duration) (string, error)
}
