package storage

import (
	"context"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore is a process-local Substrate. It does not survive restarts and
// is used when no persistent backend is configured or reachable, and in tests.
// Items never expire at this layer; expiry is owned by the cache.
type MemoryStore struct {
	items *ttlcache.Cache[string, string]
}

// NewMemoryStore creates an empty in-memory substrate
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: ttlcache.New[string, string]()}
}

func (s *MemoryStore) GetItem(ctx context.Context, key string) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", err
	}
	item := s.items.Get(key)
	if item == nil {
		return "", ErrNotFound
	}
	return item.Value(), nil
}

func (s *MemoryStore) SetItem(ctx context.Context, key string, value string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.items.Set(key, value, ttlcache.NoTTL)
	return nil
}

func (s *MemoryStore) RemoveItem(ctx context.Context, key string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.items.Delete(key)
	return nil
}

func (s *MemoryStore) GetAllKeys(ctx context.Context) ([]string, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	return s.items.Keys(), nil
}

func (s *MemoryStore) MultiRemove(ctx context.Context, keys []string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	for _, key := range keys {
		s.items.Delete(key)
	}
	return nil
}

// Len reports how many items are held, stale cache entries included
func (s *MemoryStore) Len() int {
	return s.items.Len()
}

// Close is a no-op kept for symmetry with the networked stores
func (s *MemoryStore) Close() error {
	return nil
}
