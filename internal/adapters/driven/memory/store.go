// Package memory provides an in-process CacheStore.
package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
	"github.com/nurulhuda/masjid-content/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CacheStore = (*Store)(nil)

// DefaultShards is the shard count used when none is configured
const DefaultShards = 32

type entry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

type shard struct {
	mu    sync.RWMutex
	items map[string]entry
}

// Store is a sharded in-memory CacheStore. Each shard has its own lock, so
// writes to one key never wait on readers of keys in other shards.
type Store struct {
	shards []*shard
	now    func() time.Time
}

// NewStore creates a store with n shards (DefaultShards when n <= 0)
func NewStore(n int) *Store {
	if n <= 0 {
		n = DefaultShards
	}
	s := &Store{
		shards: make([]*shard, n),
		now:    time.Now,
	}
	for i := range s.shards {
		s.shards[i] = &shard{items: make(map[string]entry)}
	}
	return s
}

func (s *Store) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Get returns a copy of the stored bytes
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	sh := s.shardFor(key)

	sh.mu.RLock()
	e, ok := sh.items[key]
	sh.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("key %s: %w", key, domain.ErrNotFound)
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		sh.mu.Lock()
		if cur, ok := sh.items[key]; ok && cur.expires.Equal(e.expires) {
			delete(sh.items, key)
		}
		sh.mu.Unlock()
		return nil, fmt.Errorf("key %s: %w", key, domain.ErrNotFound)
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a copy of value. A non-positive ttl keeps the entry until it is deleted.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.items[key] = e
	sh.mu.Unlock()
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	delete(sh.items, key)
	sh.mu.Unlock()
	return nil
}

// DeletePrefix walks every shard
func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k := range sh.items {
			if strings.HasPrefix(k, prefix) {
				delete(sh.items, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Sweep drops expired entries and returns how many were removed
func (s *Store) Sweep() int {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, e := range sh.items {
			if !e.expires.IsZero() && now.After(e.expires) {
				delete(sh.items, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of stored entries, expired ones included
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
