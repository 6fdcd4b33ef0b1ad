// Package textmatch provides case- and diacritic-insensitive matching with
// offsets that point back into the original, unfolded text.
package textmatch

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Arabic letters folded onto a common base form.
// Hamza-carrying alef variants decompose under NFD; alef wasla does not.
var arabicFolds = map[rune]rune{
	'ٱ': 'ا', // alef wasla -> alef
	'ى': 'ي', // alef maqsura -> yeh
}

const tatweel = 'ـ'

var transformerPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	},
}

// removeMarks strips combining marks (Latin accents, Arabic harakat)
func removeMarks(s string) string {
	t := transformerPool.Get().(transform.Transformer)
	defer transformerPool.Put(t)
	t.Reset()
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// foldRune returns the folded form of a single rune; it may be empty (marks, tatweel)
// or longer than one rune (ligatures that decompose).
func foldRune(r rune) []rune {
	if r < 0x80 {
		return []rune{unicode.ToLower(r)}
	}
	if r == tatweel || unicode.Is(unicode.Mn, r) {
		return nil
	}
	if f, ok := arabicFolds[r]; ok {
		return []rune{f}
	}
	out := []rune(removeMarks(string(r)))
	for i, c := range out {
		if f, ok := arabicFolds[c]; ok {
			out[i] = f
			continue
		}
		out[i] = unicode.ToLower(c)
	}
	return out
}

// Fold returns the case- and diacritic-insensitive form of s
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		for _, f := range foldRune(r) {
			b.WriteRune(f)
		}
	}
	return b.String()
}

// Tokenize folds a query and splits it on anything that is not a letter or digit.
// Duplicate tokens are dropped; order of first appearance is kept.
func Tokenize(query string) []string {
	fields := strings.FieldsFunc(Fold(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}
