package textmatch

import (
	"sort"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// Text is a folded view of a field that remembers where every folded rune came from.
type Text struct {
	folded []rune
	origin []int // origin[i] is the rune offset in the original text of folded[i]
}

// NewText folds s rune by rune
func NewText(s string) Text {
	t := Text{
		folded: make([]rune, 0, len(s)),
		origin: make([]int, 0, len(s)),
	}
	i := 0
	for _, r := range s {
		for _, f := range foldRune(r) {
			t.folded = append(t.folded, f)
			t.origin = append(t.origin, i)
		}
		i++
	}
	return t
}

// Empty reports whether the folded text has no runes
func (t Text) Empty() bool {
	return len(t.folded) == 0
}

// Find returns the spans of every non-overlapping occurrence of token, in the
// original text's rune offsets. token must already be folded.
func (t Text) Find(token string) []domain.Span {
	needle := []rune(token)
	n := len(needle)
	if n == 0 || n > len(t.folded) {
		return nil
	}
	var spans []domain.Span
	for i := 0; i+n <= len(t.folded); {
		if runesEqual(t.folded[i:i+n], needle) {
			spans = append(spans, domain.Span{
				Start: t.origin[i],
				End:   t.origin[i+n-1] + 1,
			})
			i += n
			continue
		}
		i++
	}
	return spans
}

// HasPrefix reports whether the folded text starts with the folded prefix
func (t Text) HasPrefix(prefix string) bool {
	p := []rune(prefix)
	return len(p) <= len(t.folded) && runesEqual(t.folded[:len(p)], p)
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MergeSpans sorts spans by start and merges overlapping ones.
// Touching spans ([0,3) and [3,5)) stay separate.
func MergeSpans(spans []domain.Span) []domain.Span {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]domain.Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := []domain.Span{sorted[0]}
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.Start < last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
