package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memItem struct {
	entry   Entry
	expires time.Time
}

// MemoryPageCache 进程内缓存，单实例部署或未启用 Redis 时使用
type MemoryPageCache struct {
	counters
	mu    sync.RWMutex
	items map[string]memItem
	now   func() time.Time
}

func NewMemoryPageCache() *MemoryPageCache {
	return &MemoryPageCache{items: make(map[string]memItem), now: time.Now}
}

func (c *MemoryPageCache) Get(_ context.Context, key string) (*Entry, bool, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(it.expires) {
		if ok {
			c.mu.Lock()
			if cur, still := c.items[key]; still && !c.now().Before(cur.expires) {
				delete(c.items, key)
			}
			c.mu.Unlock()
		}
		c.record(false)
		return nil, false, nil
	}
	c.record(true)
	e := it.entry
	return &e, true, nil
}

func (c *MemoryPageCache) Set(_ context.Context, key string, e *Entry, ttl time.Duration) error {
	body := make([]byte, len(e.Body))
	copy(body, e.Body)
	c.mu.Lock()
	c.items[key] = memItem{
		entry:   Entry{Status: e.Status, ContentType: e.ContentType, Body: body},
		expires: c.now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

func (c *MemoryPageCache) Invalidate(_ context.Context, prefix string) error {
	c.mu.Lock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
	return nil
}
