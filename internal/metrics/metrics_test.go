package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordCacheLookup(t *testing.T) {
	m := New()

	m.RecordCacheLookup("doa", ResultHit)
	m.RecordCacheLookup("doa", ResultHit)
	m.RecordCacheLookup("doa", ResultMiss)

	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("doa", ResultHit)); got != 2 {
		t.Errorf("expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("doa", ResultMiss)); got != 1 {
		t.Errorf("expected 1 miss, got %v", got)
	}
}

func TestMetrics_RecordCatalogSkipped_IgnoresZero(t *testing.T) {
	m := New()

	m.RecordCatalogSkipped("asmaul_husna", 0)
	m.RecordCatalogSkipped("asmaul_husna", 3)

	if got := testutil.ToFloat64(m.CatalogSkipped.WithLabelValues("asmaul_husna")); got != 3 {
		t.Errorf("expected 3 skipped, got %v", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	// Should not panic
	m.RecordCacheLookup("doa", ResultHit)
	m.RecordCacheFillError("doa", "upstream")
	m.RecordCacheStoreError("get")
	m.RecordEvictions("doa", 4)
	m.RecordUpstream("doa", "ok", time.Millisecond)
	m.RecordCatalogSkipped("doa", 1)
	m.RecordSearch("doa", 10, time.Millisecond)
	m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordUpstream("quran", "ok", 120*time.Millisecond)
	m.RecordHTTPRequest("GET", "GET /api/v1/search", 502, time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`masjid_content_upstream_requests_total{content_type="quran",outcome="ok"} 1`,
		`masjid_content_http_requests_total{method="GET",route="GET /api/v1/search",status="5xx"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	tests := map[int]string{200: "2xx", 204: "2xx", 304: "3xx", 404: "4xx", 504: "5xx"}
	for status, want := range tests {
		if got := statusLabel(status); got != want {
			t.Errorf("statusLabel(%d) = %q, expected %q", status, got, want)
		}
	}
}
