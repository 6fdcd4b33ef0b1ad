package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

// MockContentSource is a mock implementation of ContentSource for testing.
// Bounds are checked before a call is counted, like the real adapter does
// before it touches the network.
type MockContentSource struct {
	mu           sync.Mutex
	records      map[string]*domain.Record // key: RecordKey string
	failures     map[string]error
	calls        map[string]int
	fetchCalls   int
	rangeCalls   int
	rangeEnabled bool

	// Delay is applied to every counted call; a cancelled context ends it with ErrTimeout
	Delay time.Duration
}

// NewMockContentSource creates a new MockContentSource
func NewMockContentSource() *MockContentSource {
	return &MockContentSource{
		records:  make(map[string]*domain.Record),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// Add seeds records
func (m *MockContentSource) Add(records ...*domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[domain.RecordKey(r.Ref()).String()] = r.Clone()
	}
}

// Fail makes every fetch of ref return err
func (m *MockContentSource) Fail(ref domain.ContentRef, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[domain.RecordKey(ref).String()] = err
}

// Heal removes an injected failure
func (m *MockContentSource) Heal(ref domain.ContentRef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, domain.RecordKey(ref).String())
}

// EnableRange turns on bulk fetching for Quran collections
func (m *MockContentSource) EnableRange() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rangeEnabled = true
}

func (m *MockContentSource) Fetch(ctx context.Context, ref domain.ContentRef) (*domain.Record, error) {
	if !ref.Contains(ref.ID) {
		return nil, fmt.Errorf("%s %d: %w", ref.Type, ref.ID, domain.ErrNotFound)
	}

	key := domain.RecordKey(ref).String()
	m.mu.Lock()
	m.fetchCalls++
	m.calls[key]++
	delay := m.Delay
	m.mu.Unlock()

	if err := m.wait(ctx, delay); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[key]; ok {
		return nil, err
	}
	r, ok := m.records[key]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", ref.Type, ref.ID, domain.ErrNotFound)
	}
	return r.Clone(), nil
}

func (m *MockContentSource) FetchRange(ctx context.Context, c domain.Collection, from, to int) ([]*domain.Record, error) {
	if !m.SupportsRange(c) {
		return nil, fmt.Errorf("range fetch for %s: %w", c.Type, domain.ErrConfig)
	}
	if from < 1 || to < from || !c.Contains(to) {
		return nil, fmt.Errorf("%s %d-%d: %w", c.Type, from, to, domain.ErrNotFound)
	}

	m.mu.Lock()
	m.rangeCalls++
	delay := m.Delay
	m.mu.Unlock()

	if err := m.wait(ctx, delay); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Record
	for id := from; id <= to; id++ {
		key := domain.RecordKey(c.Ref(id)).String()
		if err, ok := m.failures[key]; ok {
			return nil, err
		}
		if r, ok := m.records[key]; ok {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockContentSource) SupportsRange(c domain.Collection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rangeEnabled && c.Type == domain.ContentTypeQuran
}

func (m *MockContentSource) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%v: %w", ctx.Err(), domain.ErrTimeout)
	}
}

// FetchCount returns the number of single-record calls that passed the bounds check
func (m *MockContentSource) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

// RangeCount returns the number of bulk calls
func (m *MockContentSource) RangeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rangeCalls
}

// CallsFor returns how often ref was fetched
func (m *MockContentSource) CallsFor(ref domain.ContentRef) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[domain.RecordKey(ref).String()]
}

// ResetCounts zeroes all call counters
func (m *MockContentSource) ResetCounts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCalls = 0
	m.rangeCalls = 0
	m.calls = make(map[string]int)
}
