package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface
type authService struct {
	tokenAdapter driven.TokenAdapter
	now          func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(tokenAdapter driven.TokenAdapter) driving.AuthService {
	return &authService{
		tokenAdapter: tokenAdapter,
		now:          time.Now,
	}
}

// ValidateToken validates a JWT token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	// Parse and validate JWT
	claims, err := s.tokenAdapter.ParseToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	// Check expiration
	if s.now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	if claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}
	switch claims.Role {
	case domain.RoleAdmin, domain.RoleEditor:
	default:
		return nil, domain.ErrTokenInvalid
	}

	return &domain.AuthContext{
		Subject: claims.Subject,
		Role:    claims.Role,
	}, nil
}

// IssueToken signs a token for subject with the given role and lifetime
func (s *authService) IssueToken(ctx context.Context, subject string, role domain.Role, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("subject is required: %w", domain.ErrInvalidInput)
	}
	if role != domain.RoleAdmin && role != domain.RoleEditor {
		return "", fmt.Errorf("role %q: %w", role, domain.ErrInvalidInput)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	return s.tokenAdapter.GenerateToken(&domain.TokenClaims{
		Subject:   subject,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
}
