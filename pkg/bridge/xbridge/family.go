package xbridge

import (
	"sync/atomic"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xinstrument"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xkey"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xtags"
)

// family 一个指标族的解析器与实例缓存
type family[T any] struct {
	def      xkey.Family
	resolver *xkey.Resolver
	cache    *xinstrument.Cache[T]

	// overflowNoticed 本族首次溢出已上报，之后的溢出只计数
	overflowNoticed atomic.Bool
}

func newFamily[T any](def xkey.Family, maxKeys int, create xinstrument.CreateFunc[T]) (*family[T], error) {
	resolver, err := xkey.NewResolver(def, maxKeys)
	if err != nil {
		return nil, err
	}
	cache, err := xinstrument.NewCache(create)
	if err != nil {
		return nil, err
	}
	return &family[T]{def: def, resolver: resolver, cache: cache}, nil
}

// instrument 解析标签并返回实例
//
// overflowed 为 true 表示键已被改写为溢出键，实例仍然有效。
func (f *family[T]) instrument(tags xtags.TagSet) (inst T, overflowed bool, err error) {
	key, overflowed := f.resolver.Resolve(tags)
	var regErr error
	// 后端注册中的 panic 同样归为注册失败
	if err := protect(kindRegister, f.def.Name, func() { inst, regErr = f.cache.GetOrCreate(key) }); err != nil {
		return inst, overflowed, err
	}
	if regErr != nil {
		return inst, overflowed, &Error{Kind: kindRegister, Family: f.def.Name, Err: regErr}
	}
	return inst, overflowed, nil
}

func (f *family[T]) reset() {
	f.resolver.Reset()
	f.cache.Reset()
	f.overflowNoticed.Store(false)
}

func (f *family[T]) stats() FamilyStats {
	return FamilyStats{
		Name:          f.def.Name,
		Kind:          f.def.Kind.String(),
		Keys:          f.resolver.Len(),
		MaxKeys:       f.resolver.MaxKeys(),
		Overflowed:    f.resolver.Overflowed(),
		Instruments:   f.cache.Len(),
		Registrations: f.cache.Registrations(),
	}
}

// FamilyStats 单个指标族的统计
type FamilyStats struct {
	Name          string
	Kind          string
	Keys          int   // 已接纳的不同键
	MaxKeys       int   // 基数上限
	Overflowed    int64 // 被改写为溢出键的次数
	Instruments   int   // 缓存中的实例数（含溢出键实例）
	Registrations int64 // 成功注册次数
}
