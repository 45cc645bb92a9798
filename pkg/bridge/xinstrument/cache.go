package xinstrument

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xkey"
)

// DefaultShards 默认分片数
const DefaultShards = 32

// CreateFunc 在缓存未命中时注册实例
type CreateFunc[T any] func(key xkey.Key) (T, error)

// CacheOption 缓存配置选项
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	shards int
}

// WithShards 设置分片数，必须是 2 的幂
func WithShards(n int) CacheOption {
	return func(o *cacheOptions) { o.shards = n }
}

// Cache 实例缓存，可并发使用
type Cache[T any] struct {
	shards []cacheShard[T]
	mask   uint64
	create CreateFunc[T]
	group  singleflight.Group

	size          atomic.Int64
	registrations atomic.Int64
}

type cacheShard[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

// NewCache 创建缓存
func NewCache[T any](create CreateFunc[T], opts ...CacheOption) (*Cache[T], error) {
	if create == nil {
		return nil, ErrNilCreate
	}
	o := cacheOptions{shards: DefaultShards}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.shards <= 0 || o.shards&(o.shards-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidShards, o.shards)
	}

	shards := make([]cacheShard[T], o.shards)
	for i := range shards {
		shards[i].entries = make(map[string]T)
	}
	return &Cache[T]{
		shards: shards,
		mask:   uint64(o.shards - 1),
		create: create,
	}, nil
}

func (c *Cache[T]) shard(id string) *cacheShard[T] {
	return &c.shards[xxhash.Sum64String(id)&c.mask]
}

// GetOrCreate 返回键对应的实例，必要时注册
//
// 同一键的并发未命中只触发一次 create 调用。create 返回的错误原样返回，
// 失败结果不缓存。
func (c *Cache[T]) GetOrCreate(key xkey.Key) (T, error) {
	id := key.ID()
	s := c.shard(id)

	s.mu.RLock()
	v, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := c.group.Do(id, func() (any, error) {
		// 双重检查：上一轮 singleflight 可能刚写入
		s.mu.RLock()
		v, ok := s.entries[id]
		s.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, err := c.create(key)
		if err != nil {
			return v, err
		}
		c.registrations.Add(1)

		s.mu.Lock()
		if _, exists := s.entries[id]; !exists {
			c.size.Add(1)
		}
		s.entries[id] = v
		s.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ = res.(T)
	return v, nil
}

// Get 只查找不注册
func (c *Cache[T]) Get(key xkey.Key) (T, bool) {
	id := key.ID()
	s := c.shard(id)
	s.mu.RLock()
	v, ok := s.entries[id]
	s.mu.RUnlock()
	return v, ok
}

// Len 返回缓存条目数
func (c *Cache[T]) Len() int {
	return int(c.size.Load())
}

// Registrations 返回成功的注册次数
func (c *Cache[T]) Registrations() int64 {
	return c.registrations.Load()
}

// Reset 清空全部条目，注册计数一并归零
//
// 已注册到后端的实例不会被注销。
func (c *Cache[T]) Reset() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		clear(s.entries)
		s.mu.Unlock()
	}
	c.size.Store(0)
	c.registrations.Store(0)
}
