package domain

import (
	"fmt"
	"sort"
	"strconv"
)

// ContentType identifies one of the religious content catalogs
type ContentType string

const (
	ContentTypeAsmaulHusna ContentType = "asmaul_husna" // 99 Names of Allah
	ContentTypeDoa         ContentType = "doa"          // Daily supplications
	ContentTypeHadith      ContentType = "hadith"       // Hadith collections
	ContentTypeQuran       ContentType = "quran"        // Quran verses
)

// AllContentTypes lists every supported content type in display order
func AllContentTypes() []ContentType {
	return []ContentType{
		ContentTypeAsmaulHusna,
		ContentTypeDoa,
		ContentTypeHadith,
		ContentTypeQuran,
	}
}

// ParseContentType converts a wire name into a ContentType.
// Unknown names are rejected with ErrConfig.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentTypeAsmaulHusna, ContentTypeDoa, ContentTypeHadith, ContentTypeQuran:
		return ContentType(s), nil
	}
	return "", fmt.Errorf("content type %q: %w", s, ErrConfig)
}

// String returns the wire name
func (t ContentType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known content types
func (t ContentType) IsValid() bool {
	_, err := ParseContentType(string(t))
	return err == nil
}

// DefaultPageSize returns the page size used when a caller does not supply one
func (t ContentType) DefaultPageSize() int {
	switch t {
	case ContentTypeAsmaulHusna:
		return AsmaulHusnaCount
	case ContentTypeDoa:
		return DoaCount
	default:
		return 20
	}
}

// Hadith collections
const (
	CollectionArbain        = "arbain"
	CollectionBulughulMaram = "bulughul_maram"
	CollectionPerawi        = "perawi"
)

// Catalog sizes
const (
	AsmaulHusnaCount   = 99
	DoaCount           = 108
	ArbainCount        = 42
	BulughulMaramCount = 1597
	SurahCount         = 114
)

// perawiSizes holds the number of hadith available per narrator
var perawiSizes = map[string]int{
	"abu-daud":   4590,
	"ahmad":      4305,
	"bukhari":    6638,
	"darimi":     2949,
	"ibnu-majah": 4285,
	"malik":      1587,
	"muslim":     4930,
	"nasai":      5364,
	"tirmidzi":   3625,
}

// PerawiSlugs returns the known narrator slugs, sorted
func PerawiSlugs() []string {
	slugs := make([]string, 0, len(perawiSizes))
	for slug := range perawiSizes {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// ayahCounts[i] is the number of verses in surah i+1
var ayahCounts = [SurahCount]int{
	7, 286, 200, 176, 120, 165, 206, 75, 129, 109, 123, 111, 43, 52, 99, 128, 111, 110, 98, 135,
	112, 78, 118, 64, 77, 227, 93, 88, 69, 60, 34, 30, 73, 54, 45, 83, 182, 88, 75, 85,
	54, 53, 89, 59, 37, 35, 38, 29, 18, 45, 60, 49, 62, 55, 78, 96, 29, 22, 24, 13,
	14, 11, 11, 18, 12, 12, 30, 52, 52, 44, 28, 28, 20, 56, 40, 31, 50, 40, 46, 42,
	29, 19, 36, 25, 22, 17, 19, 26, 30, 20, 15, 21, 11, 8, 8, 19, 5, 8, 8, 11,
	11, 8, 3, 9, 5, 4, 7, 3, 6, 3, 5, 4, 5, 6,
}

// AyahCount returns the number of verses in a surah, or 0 for an unknown surah
func AyahCount(surah int) int {
	if surah < 1 || surah > SurahCount {
		return 0
	}
	return ayahCounts[surah-1]
}

// Doa categories
const (
	DoaCategoryHarian       = "harian"
	DoaCategoryIbadah       = "ibadah"
	DoaCategoryPerlindungan = "perlindungan"
	DoaCategoryKhusus       = "khusus"
)

// doaCategoryRanges maps each category to its inclusive id range
var doaCategoryRanges = []struct {
	category string
	from, to int
}{
	{DoaCategoryHarian, 1, 30},
	{DoaCategoryIbadah, 31, 60},
	{DoaCategoryPerlindungan, 61, 85},
	{DoaCategoryKhusus, 86, DoaCount},
}

// DoaCategoryFor returns the category of a doa by id, or "" when out of range
func DoaCategoryFor(id int) string {
	for _, r := range doaCategoryRanges {
		if id >= r.from && id <= r.to {
			return r.category
		}
	}
	return ""
}

// DoaCategoryRange returns the inclusive id range of a doa category
func DoaCategoryRange(category string) (NumberRange, bool) {
	for _, r := range doaCategoryRanges {
		if r.category == category {
			return NumberRange{From: r.from, To: r.to}, true
		}
	}
	return NumberRange{}, false
}

// CatalogMode describes how the full set of a collection is materialized
type CatalogMode int

const (
	// CatalogModeEager collections are small and fixed; the whole set is fetched at once
	CatalogModeEager CatalogMode = iota
	// CatalogModePaged collections are large or variable; only windows are fetched
	CatalogModePaged
)

// Collection addresses one catalog within a content type
type Collection struct {
	Type          ContentType `json:"type"`
	Name          string      `json:"collection,omitempty"`
	SubCollection string      `json:"sub_collection,omitempty"`
}

// ResolveCollection validates a (type, collection, sub-collection) triple.
// Types without collections ignore the collection arguments.
func ResolveCollection(t ContentType, name, sub string) (Collection, error) {
	switch t {
	case ContentTypeAsmaulHusna, ContentTypeDoa:
		return Collection{Type: t}, nil
	case ContentTypeHadith:
		switch name {
		case CollectionArbain, CollectionBulughulMaram:
			return Collection{Type: t, Name: name}, nil
		case CollectionPerawi:
			if _, ok := perawiSizes[sub]; !ok {
				return Collection{}, fmt.Errorf("perawi %q: %w", sub, ErrConfig)
			}
			return Collection{Type: t, Name: name, SubCollection: sub}, nil
		case "":
			return Collection{}, fmt.Errorf("hadith requires a collection: %w", ErrConfig)
		}
		return Collection{}, fmt.Errorf("hadith collection %q: %w", name, ErrConfig)
	case ContentTypeQuran:
		surah, err := strconv.Atoi(name)
		if err != nil || AyahCount(surah) == 0 {
			return Collection{}, fmt.Errorf("surah %q: %w", name, ErrConfig)
		}
		return Collection{Type: t, Name: strconv.Itoa(surah)}, nil
	}
	return Collection{}, fmt.Errorf("content type %q: %w", t, ErrConfig)
}

// Size returns the number of items in the collection
func (c Collection) Size() int {
	switch c.Type {
	case ContentTypeAsmaulHusna:
		return AsmaulHusnaCount
	case ContentTypeDoa:
		return DoaCount
	case ContentTypeHadith:
		switch c.Name {
		case CollectionArbain:
			return ArbainCount
		case CollectionBulughulMaram:
			return BulughulMaramCount
		case CollectionPerawi:
			return perawiSizes[c.SubCollection]
		}
	case ContentTypeQuran:
		surah, _ := strconv.Atoi(c.Name)
		return AyahCount(surah)
	}
	return 0
}

// Contains reports whether id is within the collection's known bounds
func (c Collection) Contains(id int) bool {
	return id >= 1 && id <= c.Size()
}

// Mode returns how the collection's full set is materialized
func (c Collection) Mode() CatalogMode {
	switch c.Type {
	case ContentTypeAsmaulHusna, ContentTypeDoa:
		return CatalogModeEager
	case ContentTypeHadith:
		if c.Name == CollectionArbain {
			return CatalogModeEager
		}
	}
	return CatalogModePaged
}

// Ref returns a reference to one item of the collection
func (c Collection) Ref(id int) ContentRef {
	return ContentRef{Collection: c, ID: id}
}

// ContentRef identifies a single record: its collection plus numeric id
type ContentRef struct {
	Collection
	ID int `json:"id"`
}
