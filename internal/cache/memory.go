package cache

import (
	"context"
	"sync"
	"time"
)

const (
	defaultMaxSize = 1000
	defaultTTL     = 10 * time.Minute
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
	access   time.Time
}

// MemoryCache is an in-process Store with LRU eviction.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*memoryItem
	maxSize int
	now     func() time.Time
}

// NewMemory creates a memory cache holding at most maxSize entries.
func NewMemory(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	return &MemoryCache{
		items:   make(map[string]*memoryItem),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest any) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, ok := mc.items[key]
	if !ok {
		return ErrMiss
	}
	now := mc.now()
	if now.After(item.expireAt) {
		delete(mc.items, key)
		return ErrMiss
	}
	item.access = now
	return decode(item.data, dest)
}

func (mc *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.items[key]; !exists && len(mc.items) >= mc.maxSize {
		mc.evict()
	}
	now := mc.now()
	mc.items[key] = &memoryItem{data: data, expireAt: now.Add(ttl), access: now}
	return nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		delete(mc.items, k)
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.items)
}

func (mc *MemoryCache) Close() error { return nil }

// evict drops expired entries, or the least recently used one if none
// have expired. Caller holds mu.
func (mc *MemoryCache) evict() {
	now := mc.now()
	var oldestKey string
	var oldest time.Time
	removed := false
	for k, item := range mc.items {
		if now.After(item.expireAt) {
			delete(mc.items, k)
			removed = true
			continue
		}
		if oldestKey == "" || item.access.Before(oldest) {
			oldestKey, oldest = k, item.access
		}
	}
	if !removed && oldestKey != "" {
		delete(mc.items, oldestKey)
	}
}
