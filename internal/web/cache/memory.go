package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// MemoryCache implements a size-bounded in-memory cache with TTL support
type MemoryCache struct {
	data   *lru.Cache
	config Config
	cancel context.CancelFunc
}

type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// NewMemoryCache creates an in-memory cache and starts its cleanup loop
func NewMemoryCache(config Config) *MemoryCache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxEntries
	}
	data, _ := lru.New(config.MaxEntries)

	ctx, cancel := context.WithCancel(context.Background())
	mc := &MemoryCache{
		data:   data,
		config: config,
		cancel: cancel,
	}

	go mc.cleanupExpired(ctx, time.Minute)

	return mc
}

// Get retrieves a value from the cache
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullKey := m.config.Prefix + key
	value, ok := m.data.Get(fullKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}

	item := value.(cacheItem)
	if item.expired(time.Now()) {
		m.data.Remove(fullKey)
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
	}

	return item.value, nil
}

// Set stores a value in the cache. A negative ttl never expires.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiration = time.Now().Add(ttl)
	}

	m.data.Add(m.config.Prefix+key, item)
	return nil
}

// Delete removes a value from the cache
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.data.Remove(m.config.Prefix + key)
	return nil
}

// Close stops the background cleanup goroutine
func (m *MemoryCache) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	return nil
}

func (m *MemoryCache) cleanupExpired(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, key := range m.data.Keys() {
				if value, ok := m.data.Peek(key); ok && value.(cacheItem).expired(now) {
					m.data.Remove(key)
				}
			}
		}
	}
}
