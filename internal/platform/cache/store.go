package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fpltools/fpl-mcp/internal/platform/resilience"
)

type entry struct {
	value     any
	fetchedAt time.Time
}

// Store is a process-wide memoization layer with a single wall-clock TTL.
// A stale entry is treated as absent on read rather than evicted; every
// successful Set overwrites whatever is there (last writer wins). Entries
// are only reclaimed with process exit, which is bounded in practice by the
// small fixed set of distinct keys.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	flight  resilience.Flight[any]
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(e.fetchedAt) >= s.ttl {
		return nil, false
	}

	return e.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.entries[key] = entry{
		value:     value,
		fetchedAt: s.now(),
	}
	s.mu.Unlock()
}

// GetOrLoad returns the cached value for key, or runs loader once for all
// concurrent callers of the same key and stores the result. Loader errors
// are never cached.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}
