package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Filter names recognized in SearchQuery.Filters
const (
	FilterCategory      = "category"
	FilterCollection    = "collection"
	FilterSubCollection = "sub_collection"
	FilterNumberRange   = "number_range"
)

// Field names a match can land in
type Field string

const (
	FieldTitle     Field = "title"
	FieldSecondary Field = "secondary_text"
	FieldPrimary   Field = "primary_text"
)

// SearchFields lists the scored fields in highlight order
func SearchFields() []Field {
	return []Field{FieldTitle, FieldSecondary, FieldPrimary}
}

// NumberRange is a closed interval over record numbers
type NumberRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether n lies within the interval
func (r NumberRange) Contains(n int) bool {
	return n >= r.From && n <= r.To
}

// ParseNumberRange parses "a-b" or a single number "a"
func ParseNumberRange(s string) (NumberRange, error) {
	s = strings.TrimSpace(s)
	from, to, found := strings.Cut(s, "-")
	a, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return NumberRange{}, fmt.Errorf("number range %q: %w", s, ErrInvalidInput)
	}
	b := a
	if found {
		b, err = strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return NumberRange{}, fmt.Errorf("number range %q: %w", s, ErrInvalidInput)
		}
	}
	if a < 1 || b < a {
		return NumberRange{}, fmt.Errorf("number range %q: %w", s, ErrInvalidInput)
	}
	return NumberRange{From: a, To: b}, nil
}

// Filters holds the structural predicates of a search
type Filters struct {
	Category      string       `json:"category,omitempty"`
	Collection    string       `json:"collection,omitempty"`
	SubCollection string       `json:"sub_collection,omitempty"`
	NumberRange   *NumberRange `json:"number_range,omitempty"`
}

// IsEmpty reports whether no filter is set
func (f Filters) IsEmpty() bool {
	return f.Category == "" && f.Collection == "" && f.SubCollection == "" && f.NumberRange == nil
}

// ParseFilters builds Filters from a name/value mapping.
// Unknown filter names are ignored.
func ParseFilters(raw map[string]string) (Filters, error) {
	var f Filters
	for name, value := range raw {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch name {
		case FilterCategory:
			f.Category = strings.ToLower(value)
		case FilterCollection:
			f.Collection = strings.ToLower(value)
		case FilterSubCollection:
			f.SubCollection = strings.ToLower(value)
		case FilterNumberRange:
			r, err := ParseNumberRange(value)
			if err != nil {
				return Filters{}, err
			}
			f.NumberRange = &r
		}
	}
	return f, nil
}

// SearchQuery is a free-text search over one content type
type SearchQuery struct {
	Text        string      `json:"text"`
	ContentType ContentType `json:"content_type"`
	Filters     Filters     `json:"filters"`
	Limit       int         `json:"limit"`
	Offset      int         `json:"offset"`
}

// IsBrowse reports whether the query carries no text, i.e. lists candidates unscored
func (q SearchQuery) IsBrowse() bool {
	return strings.TrimSpace(q.Text) == ""
}

// Span is a half-open [Start, End) range of rune offsets
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Highlight lists the matched spans inside one field, in order of appearance
type Highlight struct {
	Field Field  `json:"field"`
	Spans []Span `json:"spans"`
}

// SearchResult is one ranked match. Created per search, never persisted.
type SearchResult struct {
	Record        *Record     `json:"record"`
	ContentType   ContentType `json:"content_type"`
	Collection    string      `json:"collection,omitempty"`
	Score         float64     `json:"score"`
	MatchedTokens int         `json:"matched_tokens"`
	Highlights    []Highlight `json:"highlights,omitempty"`
}

// SearchResponse is the outcome of a search.
// Total counts every surviving candidate before Limit/Offset truncation.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []*SearchResult `json:"results"`
	Total   int             `json:"total"`
	Partial bool            `json:"partial,omitempty"`
	Took    time.Duration   `json:"took" swaggertype:"integer" example:"1500000"`
}

// SearchSuggestion is a title completion for the search box
type SearchSuggestion struct {
	Text string `json:"text"`
	ID   int    `json:"id"`
}
