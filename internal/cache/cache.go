// Package cache 整页缓存：首页按 path+query 缓存渲染结果，TTL 到期或写事件触发失效。
package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// Entry 一次缓存的响应
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// PageCache 页面缓存后端
type PageCache interface {
	// Get 未命中时返回 ok=false
	Get(ctx context.Context, key string) (e *Entry, ok bool, err error)
	Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error
	// Invalidate 删除所有以 prefix 开头的 key
	Invalidate(ctx context.Context, prefix string) error
}

// Stats 命中统计
type Stats struct {
	Hits   int64
	Misses int64
}

type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *counters) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

func (c *counters) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *counters) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
}
