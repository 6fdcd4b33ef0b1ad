package mocks

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven"
)

// Ensure MockTokenAdapter implements TokenAdapter
var _ driven.TokenAdapter = (*MockTokenAdapter)(nil)

// MockTokenAdapter is a mock implementation of TokenAdapter for testing.
// It uses base64-encoded JSON for tokens.
// NOT secure - only for testing.
type MockTokenAdapter struct{}

// NewMockTokenAdapter creates a new MockTokenAdapter
func NewMockTokenAdapter() *MockTokenAdapter {
	return &MockTokenAdapter{}
}

// GenerateToken creates a base64-encoded JSON token from claims
func (m *MockTokenAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ParseToken decodes a base64-encoded JSON token and returns claims
func (m *MockTokenAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	var claims domain.TokenClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, domain.ErrTokenInvalid
	}

	return &claims, nil
}
