package storage

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore is a bounded Store backed by hashicorp/golang-lru. Eviction is
// recency-based (least-recently-used), the preferred bound for the local
// cache tier's maxEntries setting.
type LRUStore struct {
	cache *lru.Cache[string, []byte]
}

// NewLRUStore creates a Store bounded to maxEntries. Returns an error if
// maxEntries is not positive, since an unbounded "LRU" is a MemoryStore by another
// name — callers that want no bound should use NewMemoryStore directly.
func NewLRUStore(maxEntries int) (*LRUStore, error) {
	c, err := lru.New[string, []byte](maxEntries)
	if err != nil {
		return nil, err
	}
	return &LRUStore{cache: c}, nil
}

func (s *LRUStore) Get(key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *LRUStore) Put(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	s.cache.Add(key, stored)
	return nil
}

func (s *LRUStore) Delete(key string) error {
	s.cache.Remove(key)
	return nil
}

func (s *LRUStore) Len() int {
	return s.cache.Len()
}
