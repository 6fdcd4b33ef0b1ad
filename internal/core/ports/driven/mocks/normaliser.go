package mocks

import (
	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven"
)

// MockNormaliser is a mock implementation of Normaliser for testing
type MockNormaliser struct {
	SupportedTypesFn func() []string
	PriorityFn       func() int
	NormaliseFn      func(text string) string
}

func NewMockNormaliser() *MockNormaliser {
	return &MockNormaliser{}
}

func (m *MockNormaliser) Normalise(text string) string {
	if m.NormaliseFn != nil {
		return m.NormaliseFn(text)
	}
	return text
}

func (m *MockNormaliser) SupportedTypes() []string {
	if m.SupportedTypesFn != nil {
		return m.SupportedTypesFn()
	}
	return []string{"*"}
}

func (m *MockNormaliser) Priority() int {
	if m.PriorityFn != nil {
		return m.PriorityFn()
	}
	return 100
}

// MockNormaliserRegistry is a mock implementation of NormaliserRegistry for testing.
// Every content type resolves to the single configured normaliser.
type MockNormaliserRegistry struct {
	GetFn      func(contentType domain.ContentType) driven.Normaliser
	normaliser driven.Normaliser
	requested  []domain.ContentType
}

func NewMockNormaliserRegistry() *MockNormaliserRegistry {
	return &MockNormaliserRegistry{
		normaliser: NewMockNormaliser(),
	}
}

func (m *MockNormaliserRegistry) Get(contentType domain.ContentType) driven.Normaliser {
	m.requested = append(m.requested, contentType)
	if m.GetFn != nil {
		return m.GetFn(contentType)
	}
	return m.normaliser
}

func (m *MockNormaliserRegistry) GetAll(contentType domain.ContentType) []driven.Normaliser {
	if m.normaliser != nil {
		return []driven.Normaliser{m.normaliser}
	}
	return nil
}

func (m *MockNormaliserRegistry) Register(normaliser driven.Normaliser) {
	m.normaliser = normaliser
}

// List returns the content types of the configured normaliser
func (m *MockNormaliserRegistry) List() []string {
	if m.normaliser != nil {
		return m.normaliser.SupportedTypes()
	}
	return []string{}
}

// Requested returns the content types Get was called with, in order
func (m *MockNormaliserRegistry) Requested() []domain.ContentType {
	return m.requested
}
