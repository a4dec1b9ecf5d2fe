package testutil

import (
	"context"
	"encoding/json"
	"sync"
)

// MemCache is a JSON-roundtripping fake for domain.Cache. Values pass through
// json.Marshal/Unmarshal like the redis adapter, so cached values cannot alias
// live store data.
type MemCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	Deleted []string
}

func NewMemCache() *MemCache {
	return &MemCache{store: map[string][]byte{}}
}

func (c *MemCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *MemCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *MemCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.Deleted = append(c.Deleted, key)
	return nil
}
