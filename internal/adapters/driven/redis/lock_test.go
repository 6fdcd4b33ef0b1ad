package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestLock_OwnerIDsAreUnique(t *testing.T) {
	client, _ := setupTestRedis(t)

	if NewLock(client).OwnerID() == NewLock(client).OwnerID() {
		t.Error("expected unique owner IDs")
	}
}

func TestLock_WarmerHandOff(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	a, b := NewLock(client), NewLock(client)

	if ok, err := a.Acquire(ctx, "cache-warmer", 10*time.Minute); err != nil || !ok {
		t.Fatalf("first instance should acquire: ok=%v err=%v", ok, err)
	}
	if got, _ := mr.Get(lockPrefix + "cache-warmer"); got != a.OwnerID() {
		t.Errorf("expected owner %s in lock value, got %s", a.OwnerID(), got)
	}

	if ok, _ := b.Acquire(ctx, "cache-warmer", 10*time.Minute); ok {
		t.Error("second instance must not acquire a held lock")
	}
	if ok, _ := a.Acquire(ctx, "cache-warmer", 10*time.Minute); ok {
		t.Error("lock is not reentrant")
	}

	// b cannot release a's lock
	if err := b.Release(ctx, "cache-warmer"); err != nil {
		t.Fatalf("release by other owner: %v", err)
	}
	if !mr.Exists(lockPrefix + "cache-warmer") {
		t.Fatal("lock released by a non-owner")
	}

	if err := a.Release(ctx, "cache-warmer"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := b.Acquire(ctx, "cache-warmer", 10*time.Minute); !ok {
		t.Error("expected b to acquire after release")
	}
}

func TestLock_ExpiresWithTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	a, b := NewLock(client), NewLock(client)

	_, _ = a.Acquire(ctx, "cache-warmer", time.Minute)
	mr.FastForward(2 * time.Minute)

	if ok, _ := b.Acquire(ctx, "cache-warmer", time.Minute); !ok {
		t.Error("expected expired lock to be acquirable")
	}
}

func TestLock_Extend(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	a, b := NewLock(client), NewLock(client)

	if err := a.Extend(ctx, "cache-warmer", time.Minute); !errors.Is(err, ErrLockNotHeld) {
		t.Errorf("expected ErrLockNotHeld for unheld lock, got %v", err)
	}

	_, _ = a.Acquire(ctx, "cache-warmer", time.Second)
	if err := a.Extend(ctx, "cache-warmer", time.Hour); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if ttl := mr.TTL(lockPrefix + "cache-warmer"); ttl < 59*time.Minute {
		t.Errorf("expected ttl extended to about an hour, got %v", ttl)
	}

	if err := b.Extend(ctx, "cache-warmer", time.Hour); !errors.Is(err, ErrLockNotHeld) {
		t.Errorf("expected ErrLockNotHeld for other owner, got %v", err)
	}
}

func TestLock_ReleaseUnheld(t *testing.T) {
	client, _ := setupTestRedis(t)

	if err := NewLock(client).Release(context.Background(), "never-taken"); err != nil {
		t.Errorf("unexpected error releasing unheld lock: %v", err)
	}
}

func TestLock_Ping(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewLock(client)

	if err := lock.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}

	mr.Close()
	if err := lock.Ping(context.Background()); err == nil {
		t.Error("expected ping error after server shutdown")
	}
}
