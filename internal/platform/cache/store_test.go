package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedStore[V any](ttl time.Duration) (*Store[V], *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	store := NewStore[V](ttl)
	store.now = clock.Now
	return store, clock
}

func TestStore_SlidingExpiry(t *testing.T) {
	t.Parallel()

	store, clock := newClockedStore[int](10 * time.Minute)
	store.Set(context.Background(), "session", 7)

	clock.Advance(8 * time.Minute)
	if v, ok := store.Get(context.Background(), "session"); !ok || v != 7 {
		t.Fatalf("expected live entry, got %v ok=%v", v, ok)
	}

	// The hit above pushed expiry to 18m.
	clock.Advance(8 * time.Minute)
	if _, ok := store.Get(context.Background(), "session"); !ok {
		t.Fatalf("expected sliding ttl to keep the entry alive")
	}

	clock.Advance(11 * time.Minute)
	if _, ok := store.Get(context.Background(), "session"); ok {
		t.Fatalf("expected entry to expire after idle ttl")
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped")
	}
}

func TestStore_SweepCallsOnEvict(t *testing.T) {
	t.Parallel()

	store, clock := newClockedStore[string](time.Minute)
	var evicted []string
	store.OnEvict(func(key, _ string) {
		evicted = append(evicted, key)
	})

	store.Set(context.Background(), "old", "a")
	clock.Advance(30 * time.Second)
	store.Set(context.Background(), "fresh", "b")
	clock.Advance(45 * time.Second)

	if removed := store.Sweep(context.Background()); removed != 1 {
		t.Fatalf("expected one expired entry, got %d", removed)
	}
	if len(evicted) != 1 || evicted[0] != "old" {
		t.Fatalf("unexpected evictions: %v", evicted)
	}
	if _, ok := store.Get(context.Background(), "fresh"); !ok {
		t.Fatalf("expected fresh entry to survive")
	}
}

func TestStore_DeleteCallsOnEvict(t *testing.T) {
	t.Parallel()

	store := NewStore[int](0)
	var evictions atomic.Int32
	store.OnEvict(func(string, int) { evictions.Add(1) })

	store.Set(context.Background(), "a", 1)
	store.Set(context.Background(), "b", 2)

	store.Delete(context.Background(), "a")
	store.Delete(context.Background(), "missing")

	if store.Len() != 1 {
		t.Fatalf("expected one entry left, got %d", store.Len())
	}
	if got := evictions.Load(); got != 1 {
		t.Fatalf("expected 1 eviction, got %d", got)
	}
	if _, ok := store.Get(context.Background(), "b"); !ok {
		t.Fatalf("expected b to survive")
	}
}
