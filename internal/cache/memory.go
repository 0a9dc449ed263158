package cache

import (
	"context"
	"fmt"
	"time"

	gocachelib "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	gocachestore "github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/octobees/mapleads/internal/entity"
)

// MemoryStore keeps entries in process. It is used when no database is configured.
type MemoryStore struct {
	items   *gocache.Cache
	manager gocachelib.CacheInterface[any]
	now     func() time.Time
}

// NewMemoryStore builds an in-process store; cleanup is how often expired
// items are evicted.
func NewMemoryStore(cleanup time.Duration) *MemoryStore {
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	items := gocache.New(gocache.NoExpiration, cleanup)
	return &MemoryStore{
		items:   items,
		manager: gocachelib.New[any](gocachestore.NewGoCache(items)),
		now:     time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (*entity.SearchCacheEntry, bool, error) {
	value, err := s.manager.Get(ctx, key)
	if err != nil {
		// go-cache only fails on a missing key.
		return nil, false, nil
	}
	entry, ok := value.(entity.SearchCacheEntry)
	if !ok {
		return nil, false, fmt.Errorf("unexpected cache value %T for key %q", value, key)
	}
	if !entry.Live(s.now()) {
		return nil, false, nil
	}
	return &entry, true, nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, entry entity.SearchCacheEntry) error {
	now := s.now()
	ttl := entry.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return fmt.Errorf("entry %q is already expired", entry.CacheKey)
	}

	if existing, found := s.items.Get(entry.CacheKey); found {
		if prev, ok := existing.(entity.SearchCacheEntry); ok {
			entry.CreatedAt = prev.CreatedAt
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	return s.manager.Set(ctx, entry.CacheKey, entry, store.WithExpiration(ttl))
}

// DeleteExpired implements Store.
func (s *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	before := s.items.ItemCount()
	s.items.DeleteExpired()
	return int64(before - s.items.ItemCount()), nil
}
