package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is an in-memory map with a sliding idle TTL: every hit pushes the
// entry's expiry out by ttl. A ttl of zero keeps entries forever.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
	onEvict func(key string, value V)
}

func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// OnEvict registers fn to run for every expired or deleted entry.
// fn runs without the store lock held.
func (s *Store[V]) OnEvict(fn func(key string, value V)) {
	s.mu.Lock()
	s.onEvict = fn
	s.mu.Unlock()
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return zero, false
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.entries, key)
		evict := s.onEvict
		s.mu.Unlock()
		if evict != nil {
			evict(key, e.value)
		}
		return zero, false
	}
	e.expiresAt = s.expiry(now)
	s.entries[key] = e
	s.mu.Unlock()

	return e.value, true
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.entries[key] = entry[V]{
		value:     value,
		expiresAt: s.expiry(s.now()),
	}
	s.mu.Unlock()
}

func (s *Store[V]) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	e, ok := s.entries[key]
	delete(s.entries, key)
	evict := s.onEvict
	s.mu.Unlock()

	if ok && evict != nil {
		evict(key, e.value)
	}
}

func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops every expired entry and returns how many were removed.
func (s *Store[V]) Sweep(_ context.Context) int {
	if s.ttl <= 0 {
		return 0
	}

	now := s.now()
	s.mu.Lock()
	removed := make(map[string]V)
	for key, e := range s.entries {
		if s.expired(e, now) {
			removed[key] = e.value
			delete(s.entries, key)
		}
	}
	evict := s.onEvict
	s.mu.Unlock()

	if evict != nil {
		for key, value := range removed {
			evict(key, value)
		}
	}
	return len(removed)
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Store[V]) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Store[V]) expiry(now time.Time) time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(s.ttl)
}

func (s *Store[V]) expired(e entry[V], now time.Time) bool {
	return s.ttl > 0 && !e.expiresAt.After(now)
}
