package xbridge

import (
	"fmt"
	"slices"
	"time"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xevent"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xkey"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xsink"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xtags"
	"github.com/omeyang/xlogmetrics/pkg/resilience/xbreaker"
)

// DefaultNamespace 默认指标名前缀
const DefaultNamespace = "log"

// Config 桥接器配置
//
// 只有 MinLevel 与 EnableTiming 支持通过 [Bridge.Apply] 热更新，其余字段变更需要重建桥接器。
type Config struct {
	// AllowedAttrs 可以成为标签的属性 key；为空时不输出任何属性标签
	AllowedAttrs []string `koanf:"allowed_attrs"`

	// DeniedAttrs 从允许列表中剔除的 key
	DeniedAttrs []string `koanf:"denied_attrs"`

	// MaxKeys 每个指标族的基数上限，0 使用 1000
	MaxKeys int `koanf:"max_keys"`

	// EnableTiming 是否记录处理耗时
	EnableTiming bool `koanf:"enable_timing"`

	// MaxValueLength 标签值最大字节数，0 使用 128
	MaxValueLength int `koanf:"max_value_length"`

	// LoggerDepth logger 标签保留的点分段数，0 保留全名
	LoggerDepth int `koanf:"logger_depth"`

	// IncludeThread 是否输出 thread 标签
	IncludeThread bool `koanf:"include_thread"`

	// Namespace 指标名前缀
	Namespace string `koanf:"namespace"`

	// HistogramAttrs 需要记录数值分布的属性 key
	HistogramAttrs []string `koanf:"histogram_attrs"`

	// MinLevel 低于此级别的事件不产生指标
	MinLevel string `koanf:"min_level"`

	// Failure 自身失败降级
	Failure FailureConfig `koanf:"failure"`

	// Diagnostics 诊断输出
	Diagnostics xsink.Config `koanf:"diagnostics"`
}

// FailureConfig 熔断配置
type FailureConfig struct {
	// Threshold 触发降级的连续失败次数
	Threshold uint32 `koanf:"threshold"`
	// Cooldown 降级后到放行探测事件的时间
	Cooldown time.Duration `koanf:"cooldown"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxKeys:        xkey.DefaultMaxKeys,
		MaxValueLength: xtags.DefaultMaxValueLength,
		Namespace:      DefaultNamespace,
		MinLevel:       xevent.LevelTrace.String(),
		Failure: FailureConfig{
			Threshold: xbreaker.DefaultThreshold,
			Cooldown:  xbreaker.DefaultTimeout,
		},
		Diagnostics: xsink.DefaultConfig(),
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	if _, err := c.newExtractor(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MaxKeys < 0 {
		return fmt.Errorf("%w: max_keys %d", ErrInvalidConfig, c.MaxKeys)
	}
	if _, err := c.minLevel(); err != nil {
		return fmt.Errorf("%w: min_level: %w", ErrInvalidConfig, err)
	}
	if c.Failure.Cooldown < 0 {
		return fmt.Errorf("%w: failure.cooldown %s", ErrInvalidConfig, c.Failure.Cooldown)
	}
	seen := make(map[string]struct{}, len(c.HistogramAttrs))
	for _, k := range c.HistogramAttrs {
		if k == "" || xtags.IsReserved(k) {
			return fmt.Errorf("%w: histogram_attrs key %q", ErrInvalidConfig, k)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: duplicate histogram_attrs key %q", ErrInvalidConfig, k)
		}
		seen[k] = struct{}{}
	}
	if err := c.Diagnostics.Validate(); err != nil {
		return fmt.Errorf("%w: diagnostics: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) minLevel() (xevent.Level, error) {
	if c.MinLevel == "" {
		return xevent.LevelTrace, nil
	}
	return xevent.ParseLevel(c.MinLevel)
}

func (c Config) newExtractor() (*xtags.Extractor, error) {
	return xtags.NewExtractor(xtags.Config{
		AllowedAttrs:   c.AllowedAttrs,
		DeniedAttrs:    c.DeniedAttrs,
		MaxValueLength: c.MaxValueLength,
		LoggerDepth:    c.LoggerDepth,
		IncludeThread:  c.IncludeThread,
	})
}

// TagKeys 返回该配置下可能出现的全部标签 key，用于声明 Prometheus label
func (c Config) TagKeys() ([]string, error) {
	e, err := c.newExtractor()
	if err != nil {
		return nil, err
	}
	return e.TagKeys(), nil
}

// sameStructure 报告两份配置除可热更新字段外是否一致
func sameStructure(a, b Config) bool {
	return slices.Equal(a.AllowedAttrs, b.AllowedAttrs) &&
		slices.Equal(a.DeniedAttrs, b.DeniedAttrs) &&
		slices.Equal(a.HistogramAttrs, b.HistogramAttrs) &&
		a.MaxKeys == b.MaxKeys &&
		a.MaxValueLength == b.MaxValueLength &&
		a.LoggerDepth == b.LoggerDepth &&
		a.IncludeThread == b.IncludeThread &&
		a.Namespace == b.Namespace &&
		a.Failure == b.Failure &&
		a.Diagnostics == b.Diagnostics
}

func familyName(namespace, suffix string) string {
	if namespace == "" {
		return suffix
	}
	return namespace + "." + suffix
}
