package normalisers

import (
	"html"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry implements NormaliserRegistry with priority-based selection.
// When multiple normalisers match a content type, the highest priority one is used.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a new normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make([]driven.Normaliser, 0),
	}
}

// Register registers a normaliser.
// Normalisers are stored and later selected by priority.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
}

// Get retrieves the best-matching normaliser for a content type.
// Returns nil if no normaliser is registered for the type.
func (r *Registry) Get(contentType domain.ContentType) driven.Normaliser {
	matches := r.GetAll(contentType)
	if len(matches) == 0 {
		return nil
	}
	return matches[0] // Already sorted by priority (highest first)
}

// GetAll retrieves all normalisers that match a content type, sorted by priority (highest first).
func (r *Registry) GetAll(contentType domain.ContentType) []driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []driven.Normaliser
	for _, n := range r.normalisers {
		if matchesContentType(n.SupportedTypes(), contentType) {
			matches = append(matches, n)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})

	return matches
}

// List returns all registered content type names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeSet := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, t := range n.SupportedTypes() {
			typeSet[t] = struct{}{}
		}
	}

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Normalise runs the best normaliser for contentType over text.
// Text is returned unchanged when nothing is registered.
func (r *Registry) Normalise(contentType domain.ContentType, text string) string {
	n := r.Get(contentType)
	if n == nil {
		return text
	}
	return n.Normalise(text)
}

func matchesContentType(supportedTypes []string, contentType domain.ContentType) bool {
	for _, supported := range supportedTypes {
		supported = strings.ToLower(strings.TrimSpace(supported))
		if supported == "*" || supported == string(contentType) {
			return true
		}
	}
	return false
}

// DefaultRegistry creates a registry with the built-in normalisers pre-registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&WhitespaceNormaliser{})
	r.Register(&MarkupNormaliser{})
	r.Register(&QuranNormaliser{})

	return r
}

// WhitespaceNormaliser trims and collapses whitespace. It is the fallback for every type.
type WhitespaceNormaliser struct{}

func (n *WhitespaceNormaliser) Normalise(text string) string {
	return collapseWhitespace(text)
}

func (n *WhitespaceNormaliser) SupportedTypes() []string {
	return []string{"*"}
}

func (n *WhitespaceNormaliser) Priority() int {
	return 1
}

// MarkupNormaliser removes HTML markup that upstream embeds in hadith and doa texts.
type MarkupNormaliser struct{}

func (n *MarkupNormaliser) Normalise(text string) string {
	text = removeHTMLBlocks(text, "script")
	text = removeHTMLBlocks(text, "style")
	text = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n").Replace(text)
	text = stripHTMLTags(text)
	text = html.UnescapeString(text)
	return collapseWhitespace(text)
}

func (n *MarkupNormaliser) SupportedTypes() []string {
	return []string{string(domain.ContentTypeHadith), string(domain.ContentTypeDoa)}
}

func (n *MarkupNormaliser) Priority() int {
	return 50
}

// QuranNormaliser strips end-of-ayah ornaments such as ﴿١﴾ and ۝ from verse text.
type QuranNormaliser struct{}

func (n *QuranNormaliser) Normalise(text string) string {
	var b strings.Builder
	inOrnament := false
	for _, r := range text {
		switch {
		case r == '﴿':
			inOrnament = true
		case r == '﴾':
			inOrnament = false
		case r == '۝':
		case inOrnament && (unicode.IsDigit(r) || unicode.IsSpace(r)):
		default:
			b.WriteRune(r)
		}
	}
	return collapseWhitespace(html.UnescapeString(b.String()))
}

func (n *QuranNormaliser) SupportedTypes() []string {
	return []string{string(domain.ContentTypeQuran)}
}

func (n *QuranNormaliser) Priority() int {
	return 60
}

// collapseWhitespace normalizes line endings, collapses runs of spaces and
// keeps at most one blank line between paragraphs.
func collapseWhitespace(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	content = strings.Join(lines, "\n")

	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(content)
}

func removeHTMLBlocks(content, tagName string) string {
	result := content
	startTag := "<" + strings.ToLower(tagName)
	endTag := "</" + strings.ToLower(tagName) + ">"

	for {
		startIdx := strings.Index(strings.ToLower(result), startTag)
		if startIdx == -1 {
			break
		}

		endIdx := strings.Index(strings.ToLower(result[startIdx:]), endTag)
		if endIdx == -1 {
			break
		}

		result = result[:startIdx] + result[startIdx+endIdx+len(endTag):]
	}

	return result
}

func stripHTMLTags(content string) string {
	var result strings.Builder
	inTag := false

	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			result.WriteRune(' ') // Replace tag with space
		case !inTag:
			result.WriteRune(r)
		}
	}

	return result.String()
}
