package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nurulhuda/masjid-content/internal/core/domain"
)

func TestCacheStore_SetGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	if err := store.Set(ctx, "masjid:v1:doa:-:-:5", []byte(`{"id":5}`), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "masjid:v1:doa:-:-:5")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"id":5}` {
		t.Errorf("unexpected value %s", got)
	}
	if ttl := mr.TTL("masjid:v1:doa:-:-:5"); ttl != time.Hour {
		t.Errorf("expected backend ttl of 1h, got %v", ttl)
	}
}

func TestCacheStore_Get_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewCacheStore(client)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheStore_BackendExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("v"), time.Minute)
	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "k"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestCacheStore_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("v"), 0)
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("k") {
		t.Error("expected key removed")
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestCacheStore_DeletePrefix(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewCacheStore(client)
	ctx := context.Background()

	// More keys than one SCAN batch
	for i := 1; i <= 450; i++ {
		_ = mr.Set(fmt.Sprintf("masjid:v1:hadith:bulughul_maram:-:%d", i), "x")
	}
	_ = mr.Set("masjid:v1:hadith:arbain:-:1", "x")
	_ = mr.Set("masjid:v1:doa:-:-:1", "x")

	removed, err := store.DeletePrefix(ctx, "masjid:v1:hadith:bulughul_maram:")
	if err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if removed != 450 {
		t.Errorf("expected 450 removed, got %d", removed)
	}
	if !mr.Exists("masjid:v1:hadith:arbain:-:1") || !mr.Exists("masjid:v1:doa:-:-:1") {
		t.Error("keys outside the prefix were removed")
	}

	removed, err = store.DeletePrefix(ctx, "masjid:v1:quran:")
	if err != nil || removed != 0 {
		t.Errorf("expected nothing removed, got %d, %v", removed, err)
	}
}

func TestEscapeGlob(t *testing.T) {
	tests := map[string]string{
		"masjid:v1:doa:":  "masjid:v1:doa:",
		"a*b":             `a\*b`,
		"q?[x]":           `q\?\[x\]`,
	}
	for in, want := range tests {
		if got := escapeGlob(in); got != want {
			t.Errorf("escapeGlob(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewClient(t *testing.T) {
	_, mr := setupTestRedis(t)
	ctx := context.Background()

	client, err := NewClient(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	if err := NewCacheStore(client).Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}

	if _, err := NewClient(ctx, "not-a-url"); err == nil {
		t.Error("expected error for invalid url")
	}
}
