package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven/mocks"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driving"
)

// fakeClock is a settable clock for TTL tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 4, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testEnv wires a catalog and a search service over mocks
type testEnv struct {
	source  *mocks.MockContentSource
	store   *mocks.MockCacheStore
	clock   *fakeClock
	cache   *ContentCache
	catalog driving.CatalogService
	search  driving.SearchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		source: mocks.NewMockContentSource(),
		store:  mocks.NewMockCacheStore(),
		clock:  newFakeClock(),
	}
	env.cache = NewContentCache(ContentCacheConfig{
		Store:      env.store,
		DefaultTTL: 24 * time.Hour,
		Clock:      env.clock.Now,
	})
	env.catalog = NewDisplayCatalog(DisplayCatalogConfig{
		Source:      env.source,
		Cache:       env.cache,
		Concurrency: 4,
		ItemTimeout: time.Second,
	})
	env.search = NewSearchService(SearchServiceConfig{Catalog: env.catalog})
	return env
}

var (
	asmaulHusna = domain.Collection{Type: domain.ContentTypeAsmaulHusna}
	doaAll      = domain.Collection{Type: domain.ContentTypeDoa}
	arbain      = domain.Collection{Type: domain.ContentTypeHadith, Name: domain.CollectionArbain}
	bulughul    = domain.Collection{Type: domain.ContentTypeHadith, Name: domain.CollectionBulughulMaram}
	alBaqarah   = domain.Collection{Type: domain.ContentTypeQuran, Name: "2"}
)

// seedAsmaulHusna seeds all 99 names with neutral texts, then applies overrides by id
func seedAsmaulHusna(src *mocks.MockContentSource, overrides ...*domain.Record) {
	byID := make(map[int]*domain.Record, len(overrides))
	for _, r := range overrides {
		r.ContentType = domain.ContentTypeAsmaulHusna
		byID[r.ID] = r
	}
	for id := 1; id <= domain.AsmaulHusnaCount; id++ {
		if r, ok := byID[id]; ok {
			src.Add(r)
			continue
		}
		src.Add(&domain.Record{
			ID:            id,
			ContentType:   domain.ContentTypeAsmaulHusna,
			Title:         fmt.Sprintf("Nama ke-%d", id),
			PrimaryText:   "اسم",
			SecondaryText: fmt.Sprintf("Arti nama ke-%d", id),
		})
	}
}

// seedDoa seeds all 108 supplications with their documented categories.
// Only id 5 mentions eating and only id 40 mentions fasting.
func seedDoa(src *mocks.MockContentSource) {
	for id := 1; id <= domain.DoaCount; id++ {
		r := &domain.Record{
			ID:            id,
			ContentType:   domain.ContentTypeDoa,
			Category:      domain.DoaCategoryFor(id),
			Title:         fmt.Sprintf("Doa Nomor %d", id),
			PrimaryText:   "اللهم",
			SecondaryText: fmt.Sprintf("Ya Allah, terimalah doa nomor %d", id),
		}
		switch id {
		case 5:
			r.Title = "Doa Sebelum Makan"
			r.PrimaryText = "اللَّهُمَّ بَارِكْ لَنَا فِيمَا رَزَقْتَنَا وَقِنَا عَذَابَ النَّارِ"
			r.SecondaryText = "Ya Allah, berkahilah rezeki yang Engkau berikan kepada kami"
		case 40:
			r.Title = "Doa Berbuka"
			r.SecondaryText = "Doa ketika berpuasa di bulan Ramadan"
		}
		src.Add(r)
	}
}

// seedRange seeds neutral records for ids [from, to] of a collection
func seedRange(src *mocks.MockContentSource, c domain.Collection, from, to int) {
	for id := from; id <= to; id++ {
		src.Add(&domain.Record{
			ID:            id,
			ContentType:   c.Type,
			Collection:    c.Name,
			SubCollection: c.SubCollection,
			Title:         fmt.Sprintf("Nomor %d", id),
			PrimaryText:   "نص",
			SecondaryText: fmt.Sprintf("Teks nomor %d", id),
		})
	}
}

func ids(records []*domain.Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func resultIDs(results []*domain.SearchResult) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.Record.ID
	}
	return out
}

func idRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for id := from; id <= to; id++ {
		out = append(out, id)
	}
	return out
}
