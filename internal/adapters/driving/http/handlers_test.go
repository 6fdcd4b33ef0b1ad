package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven/mocks"
	"github.com/nurulhuda/masjid-content/internal/core/services"
	"github.com/nurulhuda/masjid-content/internal/metrics"
)

// Mock services for testing

type mockAuthService struct {
	validateTokenFn func(ctx context.Context, token string) (*domain.AuthContext, error)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) IssueToken(ctx context.Context, subject string, role domain.Role, ttl time.Duration) (string, error) {
	return "", errors.New("not implemented")
}

// tokenAuth accepts "admin-token" and "editor-token"
func tokenAuth() *mockAuthService {
	return &mockAuthService{
		validateTokenFn: func(ctx context.Context, token string) (*domain.AuthContext, error) {
			switch token {
			case "admin-token":
				return &domain.AuthContext{Subject: "ops", Role: domain.RoleAdmin}, nil
			case "editor-token":
				return &domain.AuthContext{Subject: "editor", Role: domain.RoleEditor}, nil
			case "expired-token":
				return nil, domain.ErrTokenExpired
			}
			return nil, domain.ErrTokenInvalid
		},
	}
}

type testServer struct {
	server  *Server
	source  *mocks.MockContentSource
	store   *mocks.MockCacheStore
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	source := mocks.NewMockContentSource()
	store := mocks.NewMockCacheStore()
	m := metrics.New()

	for i := 1; i <= domain.DoaCount; i++ {
		title := fmt.Sprintf("Doa Nomor %d", i)
		if i == 5 {
			title = "Doa Sebelum Makan"
		}
		source.Add(&domain.Record{
			ID:            i,
			ContentType:   domain.ContentTypeDoa,
			Category:      domain.DoaCategoryFor(i),
			Title:         title,
			PrimaryText:   "اللَّهُمَّ",
			SecondaryText: "Ya Allah",
		})
	}

	cache := services.NewContentCache(services.ContentCacheConfig{Store: store})
	catalog := services.NewDisplayCatalog(services.DisplayCatalogConfig{
		Source:      source,
		Cache:       cache,
		ItemTimeout: time.Second,
	})
	search := services.NewSearchService(services.SearchServiceConfig{Catalog: catalog})
	share := services.NewShareService("https://masjid.example")

	cfg := DefaultConfig()
	cfg.Version = "test"
	cfg.CORSOrigins = []string{"https://masjid.example"}
	cfg.Metrics = m

	return &testServer{
		server:  NewServer(cfg, catalog, search, share, cache, tokenAuth(), store),
		source:  source,
		store:   store,
		metrics: m,
	}
}

func (ts *testServer) do(t *testing.T, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, "GET", "/health", nil, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if got := decode[StatusResponse](t, rr); got.Status != "ok" {
		t.Errorf("expected status ok, got %s", got.Status)
	}
}

func TestVersionHandler(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, "GET", "/version", nil, nil)
	if got := decode[VersionResponse](t, rr); got.Version != "test" {
		t.Errorf("expected version test, got %s", got.Version)
	}
}

func TestReadyHandler(t *testing.T) {
	ts := newTestServer(t)

	if rr := ts.do(t, "GET", "/ready", nil, nil); rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	ts.store.PingErr = errors.New("connection refused")
	if rr := ts.do(t, "GET", "/ready", nil, nil); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
}

func TestGetCatalogHandler(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, "GET", "/api/v1/content/doa", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	result := decode[domain.CatalogResult](t, rr)
	if len(result.Records) != domain.DoaCount {
		t.Fatalf("expected %d records, got %d", domain.DoaCount, len(result.Records))
	}
	for i, r := range result.Records {
		if r.ID != i+1 {
			t.Fatalf("records not ordered by id: position %d has id %d", i, r.ID)
		}
	}
}

func TestGetCatalogHandler_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown type", "/api/v1/content/kitab", http.StatusBadRequest},
		{"hadith without collection", "/api/v1/content/hadith", http.StatusBadRequest},
		{"paged collection", "/api/v1/content/hadith?collection=bulughul_maram", http.StatusBadRequest},
		{"unknown narrator", "/api/v1/content/hadith?collection=perawi&sub_collection=unknown", http.StatusBadRequest},
		{"arbain upstream down", "/api/v1/content/hadith?collection=arbain", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.do(t, "GET", tt.target, nil, nil)
			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if got := decode[ErrorResponse](t, rr); got.Error == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestGetPageHandler(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, "GET", "/api/v1/content/doa/page?offset=10&limit=5", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	page := decode[domain.Page](t, rr)
	if len(page.Records) != 5 || page.Records[0].ID != 11 || page.Records[4].ID != 15 {
		t.Errorf("unexpected page %+v", page)
	}
	if page.Total != domain.DoaCount {
		t.Errorf("expected total %d, got %d", domain.DoaCount, page.Total)
	}

	for _, target := range []string{
		"/api/v1/content/doa/page?offset=x",
		"/api/v1/content/doa/page?limit=ten",
		"/api/v1/content/doa/page?offset=-1",
	} {
		if rr := ts.do(t, "GET", target, nil, nil); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, rr.Code)
		}
	}
}

func TestGetItemHandler(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, "GET", "/api/v1/content/doa/items/5", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if record := decode[domain.Record](t, rr); record.Title != "Doa Sebelum Makan" {
		t.Errorf("unexpected record %+v", record)
	}

	if rr := ts.do(t, "GET", "/api/v1/content/doa/items/109", nil, nil); rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for out-of-range id, got %d", rr.Code)
	}
	if rr := ts.do(t, "GET", "/api/v1/content/doa/items/abc", nil, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric id, got %d", rr.Code)
	}
}

func TestGetItemHandler_UpstreamErrors(t *testing.T) {
	ts := newTestServer(t)
	doa := domain.Collection{Type: domain.ContentTypeDoa}

	ts.source.Fail(doa.Ref(7), fmt.Errorf("status 500: %w", domain.ErrUpstream))
	ts.source.Fail(doa.Ref(8), fmt.Errorf("deadline: %w", domain.ErrTimeout))

	if rr := ts.do(t, "GET", "/api/v1/content/doa/items/7", nil, nil); rr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rr.Code)
	}
	if rr := ts.do(t, "GET", "/api/v1/content/doa/items/8", nil, nil); rr.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", rr.Code)
	}
}

func TestShareItemHandler(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, "GET", "/api/v1/content/doa/items/5/share", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	msg := decode[domain.ShareMessage](t, rr)
	if msg.URL != "https://masjid.example/doa/5-doa-sebelum-makan" {
		t.Errorf("unexpected url %s", msg.URL)
	}
	if msg.PerChannel[domain.ChannelWhatsApp] == "" {
		t.Error("expected whatsapp text")
	}
}

func TestSearchHandler(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, "GET", "/api/v1/search?type=doa&q=makan", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decode[domain.SearchResponse](t, rr)
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("expected a single match, got total %d", resp.Total)
	}
	if resp.Results[0].Record.ID != 5 {
		t.Errorf("expected doa 5, got %d", resp.Results[0].Record.ID)
	}
}

func TestSearchHandler_BrowseWithFilters(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, "GET", "/api/v1/search?type=doa&category=ibadah&number_range=31-35&limit=3", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decode[domain.SearchResponse](t, rr)
	if resp.Total != 5 {
		t.Errorf("expected 5 browse results before truncation, got %d", resp.Total)
	}
	if len(resp.Results) != 3 || resp.Results[0].Record.ID != 31 {
		t.Errorf("unexpected results %+v", resp.Results)
	}
}

func TestSearchHandler_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	for _, target := range []string{
		"/api/v1/search?q=makan",
		"/api/v1/search?type=kitab&q=makan",
		"/api/v1/search?type=doa&limit=-1",
		"/api/v1/search?type=doa&offset=abc",
		"/api/v1/search?type=doa&number_range=10-2",
		"/api/v1/search?type=quran&q=allah",
		"/api/v1/search?type=doa&q=" + strings.Repeat("a", 201),
	} {
		if rr := ts.do(t, "GET", target, nil, nil); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, rr.Code)
		}
	}
}

func TestSuggestHandler(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, "GET", "/api/v1/search/suggest?type=doa&prefix=sebelum", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	suggestions := decode[[]domain.SearchSuggestion](t, rr)
	if len(suggestions) != 1 || suggestions[0].ID != 5 {
		t.Errorf("unexpected suggestions %+v", suggestions)
	}

	if rr := ts.do(t, "GET", "/api/v1/search/suggest?type=quran&prefix=al", nil, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for quran suggestions, got %d", rr.Code)
	}
}

func TestInvalidateCacheHandler_Auth(t *testing.T) {
	ts := newTestServer(t)
	body := `{"type":"doa"}`

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"malformed header", "Token admin-token", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"expired token", "Bearer expired-token", http.StatusUnauthorized},
		{"editor", "Bearer editor-token", http.StatusForbidden},
		{"admin", "Bearer admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{"Content-Type": "application/json"}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rr := ts.do(t, "POST", "/api/v1/admin/cache/invalidate", strings.NewReader(body), headers)
			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestInvalidateCacheHandler(t *testing.T) {
	ts := newTestServer(t)
	admin := map[string]string{"Authorization": "Bearer admin-token"}

	// Warm the doa catalog
	if rr := ts.do(t, "GET", "/api/v1/content/doa", nil, nil); rr.Code != http.StatusOK {
		t.Fatalf("warm: %d", rr.Code)
	}
	warmed := ts.store.Len()
	if warmed == 0 {
		t.Fatal("expected cache entries after listing")
	}

	rr := ts.do(t, "POST", "/api/v1/admin/cache/invalidate", strings.NewReader(`{"type":"doa","id":5}`), admin)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := decode[InvalidateResponse](t, rr); got.Scope != "record" {
		t.Errorf("expected record scope, got %+v", got)
	}
	if ts.store.Has(domain.RecordKey(domain.Collection{Type: domain.ContentTypeDoa}.Ref(5)).String()) {
		t.Error("expected record entry evicted")
	}

	rr = ts.do(t, "POST", "/api/v1/admin/cache/invalidate", strings.NewReader(`{"type":"doa"}`), admin)
	got := decode[InvalidateResponse](t, rr)
	if got.Scope != "type" || got.Removed == 0 {
		t.Errorf("expected type eviction, got %+v", got)
	}
	if ts.store.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", ts.store.Len())
	}
}

func TestInvalidateCacheHandler_BadRequests(t *testing.T) {
	ts := newTestServer(t)
	admin := map[string]string{"Authorization": "Bearer admin-token"}

	for _, body := range []string{
		`not json`,
		`{}`,
		`{"type":"kitab"}`,
		`{"type":"doa","id":-3}`,
		`{"type":"hadith","collection":"unknown","id":1}`,
	} {
		rr := ts.do(t, "POST", "/api/v1/admin/cache/invalidate", bytes.NewBufferString(body), admin)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", body, rr.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, "GET", "/api/v1/content/doa/items/5", nil, nil)

	rr := ts.do(t, "GET", "/metrics", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "masjid_content_http_requests_total") {
		t.Error("expected http request counter in metrics output")
	}
	if !strings.Contains(body, `route="GET /api/v1/content/{type}/items/{id}"`) {
		t.Error("expected route pattern label in metrics output")
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", domain.ErrConfig), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("x: %w", domain.ErrUpstream), http.StatusBadGateway},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		writeServiceError(rr, tt.err)
		if rr.Code != tt.status {
			t.Errorf("%v: expected status %d, got %d", tt.err, tt.status, rr.Code)
		}
	}
}
