package driven

import "github.com/nurulhuda/masjid-content/internal/core/domain"

// Normaliser cleans upstream text before it becomes part of a Record.
type Normaliser interface {
	// Normalise transforms raw upstream text into display/search text.
	Normalise(text string) string

	// SupportedTypes returns the content types this normaliser handles.
	// "*" matches every content type.
	SupportedTypes() []string

	// Priority returns the normaliser priority (higher = more specific).
	// Priority ranges:
	//   50-100: Content-specific (e.g., hadith markup)
	//   1-49:   Fallback (whitespace cleanup)
	Priority() int
}

// NormaliserRegistry manages text normalisers.
// When multiple normalisers match a content type, the highest priority one is used.
type NormaliserRegistry interface {
	// Get retrieves the best-matching normaliser for a content type.
	// Returns nil if no normaliser is registered for the type.
	Get(contentType domain.ContentType) Normaliser

	// GetAll retrieves all normalisers that match a content type, sorted by priority (highest first).
	GetAll(contentType domain.ContentType) []Normaliser

	// Register registers a normaliser.
	Register(normaliser Normaliser)

	// List returns all registered content type names.
	List() []string
}
