package driven

import "github.com/nurulhuda/masjid-content/internal/core/domain"

// TokenAdapter handles admin token cryptographic operations.
type TokenAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
