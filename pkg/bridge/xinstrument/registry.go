package xinstrument

import (
	"time"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xkey"
)

// Counter 单调递增计数器句柄
type Counter interface {
	Add(n int64)
}

// Timer 耗时分布句柄
type Timer interface {
	Record(d time.Duration)
}

// Histogram 数值分布句柄
type Histogram interface {
	Observe(v float64)
}

// Registry 指标后端注册表
//
// 每个方法为给定键注册（或查找）一个实例并返回句柄。调用方保证同一键至多注册一次，
// 实现无需自行去重，但必须对不同键的并发调用安全。
type Registry interface {
	Counter(key xkey.Key) (Counter, error)
	Timer(key xkey.Key) (Timer, error)
	Histogram(key xkey.Key) (Histogram, error)
}

func checkKind(key xkey.Key, want xkey.Kind) error {
	if got := key.Family().Kind; got != want {
		return &KindError{Family: key.Family().Name, Want: want, Got: got}
	}
	return nil
}

// KindError 描述类型不一致的注册请求
type KindError struct {
	Family string
	Want   xkey.Kind
	Got    xkey.Kind
}

func (e *KindError) Error() string {
	return "xinstrument: family " + e.Family + " is a " + e.Got.String() + ", not a " + e.Want.String()
}

// Unwrap 支持 errors.Is(err, ErrKindMismatch)
func (e *KindError) Unwrap() error { return ErrKindMismatch }
