package domain

import (
	"errors"
	"testing"
)

func TestParseContentType(t *testing.T) {
	for _, ct := range AllContentTypes() {
		got, err := ParseContentType(ct.String())
		if err != nil || got != ct {
			t.Errorf("ParseContentType(%q) = %q, %v", ct, got, err)
		}
		if !ct.IsValid() {
			t.Errorf("%s should be valid", ct)
		}
	}

	for _, bad := range []string{"", "Doa", "kitab", "hadits"} {
		if _, err := ParseContentType(bad); !errors.Is(err, ErrConfig) {
			t.Errorf("ParseContentType(%q): expected ErrConfig, got %v", bad, err)
		}
	}
}

func TestDefaultPageSize(t *testing.T) {
	tests := map[ContentType]int{
		ContentTypeAsmaulHusna: 99,
		ContentTypeDoa:         108,
		ContentTypeHadith:      20,
		ContentTypeQuran:       20,
	}
	for ct, want := range tests {
		if got := ct.DefaultPageSize(); got != want {
			t.Errorf("%s: DefaultPageSize() = %d, want %d", ct, got, want)
		}
	}
}

func TestAyahCount(t *testing.T) {
	total := 0
	for s := 1; s <= SurahCount; s++ {
		total += AyahCount(s)
	}
	if total != 6236 {
		t.Errorf("expected 6236 verses in total, got %d", total)
	}
	if AyahCount(1) != 7 || AyahCount(2) != 286 || AyahCount(114) != 6 {
		t.Error("unexpected verse counts for known surahs")
	}
	if AyahCount(0) != 0 || AyahCount(115) != 0 {
		t.Error("unknown surahs should have no verses")
	}
}

func TestDoaCategories(t *testing.T) {
	covered := 0
	for _, category := range []string{DoaCategoryHarian, DoaCategoryIbadah, DoaCategoryPerlindungan, DoaCategoryKhusus} {
		r, ok := DoaCategoryRange(category)
		if !ok {
			t.Fatalf("missing range for %s", category)
		}
		for id := r.From; id <= r.To; id++ {
			if DoaCategoryFor(id) != category {
				t.Errorf("doa %d: expected %s, got %s", id, category, DoaCategoryFor(id))
			}
		}
		covered += r.To - r.From + 1
	}
	if covered != DoaCount {
		t.Errorf("categories should partition every doa, covered %d", covered)
	}

	if DoaCategoryFor(0) != "" || DoaCategoryFor(DoaCount+1) != "" {
		t.Error("out of range ids have no category")
	}
	if _, ok := DoaCategoryRange("lainnya"); ok {
		t.Error("unknown category should have no range")
	}
}

func TestResolveCollection(t *testing.T) {
	tests := []struct {
		name    string
		ct      ContentType
		coll    string
		sub     string
		want    Collection
		size    int
		mode    CatalogMode
		wantErr bool
	}{
		{"asmaul husna", ContentTypeAsmaulHusna, "", "", Collection{Type: ContentTypeAsmaulHusna}, 99, CatalogModeEager, false},
		{"doa ignores collection", ContentTypeDoa, "harian", "", Collection{Type: ContentTypeDoa}, 108, CatalogModeEager, false},
		{"arbain", ContentTypeHadith, CollectionArbain, "", Collection{Type: ContentTypeHadith, Name: CollectionArbain}, 42, CatalogModeEager, false},
		{"bulughul maram", ContentTypeHadith, CollectionBulughulMaram, "", Collection{Type: ContentTypeHadith, Name: CollectionBulughulMaram}, 1597, CatalogModePaged, false},
		{"perawi", ContentTypeHadith, CollectionPerawi, "bukhari", Collection{Type: ContentTypeHadith, Name: CollectionPerawi, SubCollection: "bukhari"}, 6638, CatalogModePaged, false},
		{"surah normalized", ContentTypeQuran, "002", "", Collection{Type: ContentTypeQuran, Name: "2"}, 286, CatalogModePaged, false},
		{"hadith without collection", ContentTypeHadith, "", "", Collection{}, 0, 0, true},
		{"unknown hadith collection", ContentTypeHadith, "tarikh", "", Collection{}, 0, 0, true},
		{"unknown narrator", ContentTypeHadith, CollectionPerawi, "unknown", Collection{}, 0, 0, true},
		{"surah out of range", ContentTypeQuran, "115", "", Collection{}, 0, 0, true},
		{"surah not a number", ContentTypeQuran, "al-fatihah", "", Collection{}, 0, 0, true},
		{"unknown type", ContentType("kitab"), "", "", Collection{}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCollection(tt.ct, tt.coll, tt.sub)
			if tt.wantErr {
				if !errors.Is(err, ErrConfig) {
					t.Errorf("expected ErrConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if got.Size() != tt.size {
				t.Errorf("Size() = %d, want %d", got.Size(), tt.size)
			}
			if got.Mode() != tt.mode {
				t.Errorf("Mode() = %d, want %d", got.Mode(), tt.mode)
			}
		})
	}
}

func TestCollectionContains(t *testing.T) {
	doa := Collection{Type: ContentTypeDoa}
	for id, want := range map[int]bool{0: false, 1: true, 108: true, 109: false, -1: false} {
		if doa.Contains(id) != want {
			t.Errorf("Contains(%d) = %v, want %v", id, !want, want)
		}
	}
}

func TestPerawiSlugs(t *testing.T) {
	slugs := PerawiSlugs()
	if len(slugs) != 9 {
		t.Fatalf("expected 9 narrators, got %d", len(slugs))
	}
	for i := 1; i < len(slugs); i++ {
		if slugs[i-1] >= slugs[i] {
			t.Errorf("slugs not sorted: %v", slugs)
		}
	}
	for _, s := range slugs {
		if !ValidKeyPart(s) {
			t.Errorf("narrator slug %q cannot be used in a cache key", s)
		}
	}
}
