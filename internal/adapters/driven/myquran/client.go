package myquran

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven"
	"github.com/nurulhuda/masjid-content/internal/metrics"
)

// Verify interface compliance
var _ driven.ContentSource = (*Client)(nil)

const (
	// DefaultBaseURL is the public myQuran API
	DefaultBaseURL = "https://api.myquran.com/v2"

	// DefaultTimeout bounds a single upstream call, connection and body read included
	DefaultTimeout = 4 * time.Second

	// DefaultUserAgent identifies this service to the upstream API
	DefaultUserAgent = "masjid-content/1.0"

	// maxBodySize caps how much of a response is read
	maxBodySize = 4 << 20
)

// Config holds the settings for the myQuran client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL
	BaseURL string

	// Timeout defaults to DefaultTimeout
	Timeout time.Duration

	// UserAgent defaults to DefaultUserAgent
	UserAgent string

	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client

	// Normalisers cleans title and texts per content type. Optional.
	Normalisers driven.NormaliserRegistry

	// Metrics records upstream outcomes. Optional.
	Metrics *metrics.Metrics

	Logger *slog.Logger
}

// Client is a ContentSource backed by the myQuran HTTP API.
// It is stateless apart from its configuration and never retries.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	normalisers driven.NormaliserRegistry
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewClient creates a new myQuran API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		httpClient:  cfg.HTTPClient,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		normalisers: cfg.Normalisers,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

// Fetch retrieves a single record with exactly one upstream call.
func (c *Client) Fetch(ctx context.Context, ref domain.ContentRef) (*domain.Record, error) {
	if !ref.Contains(ref.ID) {
		return nil, fmt.Errorf("%s %d out of range: %w", ref.Type, ref.ID, domain.ErrNotFound)
	}

	path, err := recordPath(ref)
	if err != nil {
		return nil, err
	}

	items, err := c.get(ctx, ref.Type, path)
	if err != nil {
		return nil, err
	}

	item := pickItem(items, ref.ID)
	if item == nil {
		return nil, fmt.Errorf("%s %d: empty data: %w", ref.Type, ref.ID, domain.ErrUpstream)
	}

	record, err := c.toRecord(ref.Collection, ref.ID, item)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FetchRange retrieves the inclusive ayah window [from, to] of a surah with one call.
func (c *Client) FetchRange(ctx context.Context, col domain.Collection, from, to int) ([]*domain.Record, error) {
	if !c.SupportsRange(col) {
		return nil, fmt.Errorf("%s has no bulk endpoint: %w", col.Type, domain.ErrConfig)
	}
	if from > to {
		return nil, fmt.Errorf("range %d-%d: %w", from, to, domain.ErrInvalidInput)
	}
	if !col.Contains(from) || !col.Contains(to) {
		return nil, fmt.Errorf("surah %s range %d-%d out of range: %w", col.Name, from, to, domain.ErrNotFound)
	}

	path := fmt.Sprintf("/quran/ayat/%s/%d/%d", col.Name, from, to-from+1)
	items, err := c.get(ctx, col.Type, path)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.Record, 0, len(items))
	for i, item := range items {
		id := itemNumber(item, from+i)
		if id < from || id > to {
			continue
		}
		record, err := c.toRecord(col, id, item)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("surah %s range %d-%d: empty data: %w", col.Name, from, to, domain.ErrUpstream)
	}
	return records, nil
}

// SupportsRange reports whether FetchRange is available; only Quran surahs have a bulk endpoint.
func (c *Client) SupportsRange(col domain.Collection) bool {
	return col.Type == domain.ContentTypeQuran
}

// get performs one GET and decodes the {status, data} envelope into items.
func (c *Client) get(ctx context.Context, contentType domain.ContentType, path string) ([]map[string]any, error) {
	start := time.Now()
	items, err := c.doRequest(ctx, path)
	c.metrics.RecordUpstream(string(contentType), domain.ErrorKind(err), time.Since(start))
	if err != nil {
		c.logger.Debug("upstream request failed",
			"content_type", contentType,
			"path", path,
			"error", err,
		)
	}
	return items, err
}

func (c *Client) doRequest(ctx context.Context, path string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, "do request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, classifyTransportError(ctx, "read body", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("GET %s: %w", path, domain.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("GET %s: status %d: %w", path, resp.StatusCode, domain.ErrUpstream)
	}

	return decodeEnvelope(path, body)
}

// classifyTransportError maps deadline-type failures to ErrTimeout and everything else to ErrUpstream.
func classifyTransportError(ctx context.Context, op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		ctx.Err() != nil,
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%s: %v: %w", op, err, domain.ErrTimeout)
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrUpstream)
}

// recordPath returns the upstream path of a single record
func recordPath(ref domain.ContentRef) (string, error) {
	switch ref.Type {
	case domain.ContentTypeAsmaulHusna:
		return fmt.Sprintf("/husna/id/%d", ref.ID), nil
	case domain.ContentTypeDoa:
		return fmt.Sprintf("/doa/id/%d", ref.ID), nil
	case domain.ContentTypeHadith:
		switch ref.Name {
		case domain.CollectionArbain:
			return fmt.Sprintf("/hadits/arbain/%d", ref.ID), nil
		case domain.CollectionBulughulMaram:
			return fmt.Sprintf("/hadits/bm/%d", ref.ID), nil
		case domain.CollectionPerawi:
			return fmt.Sprintf("/hadits/perawi/%s/%d", ref.SubCollection, ref.ID), nil
		}
	case domain.ContentTypeQuran:
		return fmt.Sprintf("/quran/ayat/%s/%d", ref.Name, ref.ID), nil
	}
	return "", fmt.Errorf("no endpoint for %s/%s: %w", ref.Type, ref.Name, domain.ErrConfig)
}
