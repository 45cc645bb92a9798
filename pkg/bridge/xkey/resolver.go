package xkey

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xtags"
)

const (
	// DefaultMaxKeys 每个指标族默认的基数上限
	DefaultMaxKeys = 1000

	// OverflowValue 溢出键中替换标签值的占位符
	OverflowValue = "_other_"
)

const seenShards = 16

// seenShard 已接纳键的分片，map 以身份字符串为 key
//
// 查找使用 m[string(b)] 形式，命中路径不产生字符串分配。
type seenShard struct {
	mu   sync.RWMutex
	keys map[string]Key
}

func (s *seenShard) load(id []byte) (Key, bool) {
	s.mu.RLock()
	k, ok := s.keys[string(id)]
	s.mu.RUnlock()
	return k, ok
}

// store 写入 key；已存在时返回已有的键与 true
func (s *seenShard) store(key Key) (Key, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.keys[key.id]; ok {
		return existing, true
	}
	s.keys[key.id] = key
	return key, false
}

func (s *seenShard) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

func (s *seenShard) reset() {
	s.mu.Lock()
	clear(s.keys)
	s.mu.Unlock()
}

// Resolver 单个指标族的键解析器与基数守卫
//
// Resolve 可被任意数量的 goroutine 并发调用。已见过的键只需一次分片读锁查找，
// 不分配内存；新键使用 CAS 预留名额，任何并发交错下已接纳的不同键数量都不会超过上限。
type Resolver struct {
	family  Family
	maxKeys int64

	shards   [seenShards]seenShard
	overflow seenShard // 溢出键，不占名额

	count      atomic.Int64
	overflowed atomic.Int64
}

// NewResolver 创建解析器，maxKeys 为 0 时使用 DefaultMaxKeys
func NewResolver(family Family, maxKeys int) (*Resolver, error) {
	if err := family.Validate(); err != nil {
		return nil, err
	}
	if maxKeys < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxKeys, maxKeys)
	}
	if maxKeys == 0 {
		maxKeys = DefaultMaxKeys
	}
	r := &Resolver{family: family, maxKeys: int64(maxKeys)}
	for i := range r.shards {
		r.shards[i].keys = make(map[string]Key)
	}
	r.overflow.keys = make(map[string]Key)
	return r, nil
}

// Family 返回解析器所属的指标族
func (r *Resolver) Family() Family { return r.family }

// MaxKeys 返回基数上限
func (r *Resolver) MaxKeys() int { return int(r.maxKeys) }

func (r *Resolver) shard(id []byte) *seenShard {
	return &r.shards[xxhash.Sum64(id)&(seenShards-1)]
}

// Resolve 把标签集解析为指标键
//
// 同一标签集总是返回相同的键。上限用尽后，未见过的标签集被改写为溢出键，
// overflowed 为 true，调用方据此上报溢出通知。
//
// 返回的键不引用 tags，调用方可以复用 tags 的底层数组。
func (r *Resolver) Resolve(tags xtags.TagSet) (key Key, overflowed bool) {
	bp := getIDBuf()
	defer putIDBuf(bp)

	*bp = appendID((*bp)[:0], r.family, tags, false)
	s := r.shard(*bp)
	if k, ok := s.load(*bp); ok {
		return k, false
	}

	if !r.reserve() {
		r.overflowed.Add(1)
		*bp = appendID((*bp)[:0], r.family, tags, true)
		return r.overflowKey(*bp, tags), true
	}
	key = Key{family: r.family, tags: slices.Clone(tags), id: string(*bp)}
	if existing, loaded := s.store(key); loaded {
		// 并发的同一键已抢先写入，归还名额
		r.count.Add(-1)
		return existing, false
	}
	return key, false
}

// reserve 使用 CAS 预留一个名额，名额用尽时返回 false
func (r *Resolver) reserve() bool {
	for {
		cur := r.count.Load()
		if cur >= r.maxKeys {
			return false
		}
		if r.count.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// overflowKey 返回溢出键：保留 level，其余标签值替换为 OverflowValue
//
// 溢出变体数量由标签 key 的组合决定，首次出现后缓存。
func (r *Resolver) overflowKey(id []byte, tags xtags.TagSet) Key {
	if k, ok := r.overflow.load(id); ok {
		return k
	}
	out := make(xtags.TagSet, len(tags))
	for i, t := range tags {
		if t.Key != xtags.KeyLevel {
			t.Value = OverflowValue
		}
		out[i] = t
	}
	k, _ := r.overflow.store(Key{family: r.family, tags: out, id: string(id)})
	return k
}

// Len 返回已接纳的不同键数量（不含溢出键）
func (r *Resolver) Len() int {
	return int(max(r.count.Load(), 0))
}

// Overflowed 返回被改写为溢出键的解析次数
func (r *Resolver) Overflowed() int64 {
	return r.overflowed.Load()
}

// Reset 清空已见集合与计数
//
// 与 Resolve 并发调用时，正在进行的解析可能在清空后写入旧键，仅用于测试与重建。
func (r *Resolver) Reset() {
	for i := range r.shards {
		r.shards[i].reset()
	}
	r.overflow.reset()
	r.count.Store(0)
	r.overflowed.Store(0)
}

// stored 返回实际保存的已接纳键数量
func (r *Resolver) stored() int {
	n := 0
	for i := range r.shards {
		n += r.shards[i].len()
	}
	return n
}
