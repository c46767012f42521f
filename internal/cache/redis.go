package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPageCache 基于 Redis 的页面缓存，所有 key 加上 namespace 前缀
type RedisPageCache struct {
	counters
	client    redis.UniversalClient
	namespace string
}

func NewRedisPageCache(client redis.UniversalClient, namespace string) *RedisPageCache {
	return &RedisPageCache{client: client, namespace: namespace}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	data, err := c.client.Get(ctx, c.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// 格式损坏按未命中处理，下次写入覆盖
		c.record(false)
		return nil, false, nil
	}
	c.record(true)
	return &e, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.namespace+key, payload, ttl).Err()
}

// globEscaper 转义 SCAN MATCH 的通配字符，前缀按字面匹配
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func (c *RedisPageCache) Invalidate(ctx context.Context, prefix string) error {
	full := c.namespace + prefix
	iter := c.client.Scan(ctx, 0, globEscaper.Replace(full)+"*", 100).Iterator()
	keys := make([]string, 0, 16)
	for iter.Next(ctx) {
		if k := iter.Val(); strings.HasPrefix(k, full) {
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, k)
	}
	_, err := pipe.Exec(ctx)
	return err
}
