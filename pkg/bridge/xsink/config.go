package xsink

import (
	"fmt"

	"github.com/omeyang/xlogmetrics/pkg/observability/xrotate"
)

// 输出目标的保留名称，其它值视为文件路径
const (
	OutputStderr  = "stderr"
	OutputStdout  = "stdout"
	OutputDiscard = "discard"
)

// Config 诊断输出配置
type Config struct {
	// Output stderr、stdout、discard 或文件路径
	Output string `koanf:"output"`
	// Format text 或 json
	Format string `koanf:"format"`
	// Level 诊断日志最低级别
	Level string `koanf:"level"`
	// Rate 每秒允许的诊断日志行数
	Rate float64 `koanf:"rate"`
	// Burst 令牌桶容量
	Burst int `koanf:"burst"`
	// Recent 最近失败集合容量
	Recent int `koanf:"recent"`
	// MaxSizeMB 文件输出时单文件上限
	MaxSizeMB int `koanf:"max_size_mb"`
	// MaxBackups 文件输出时备份数量
	MaxBackups int `koanf:"max_backups"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Output:     OutputStderr,
		Format:     "text",
		Level:      "info",
		Rate:       1,
		Burst:      10,
		Recent:     64,
		MaxSizeMB:  xrotate.DefaultMaxSizeMB,
		MaxBackups: xrotate.DefaultMaxBackups,
	}
}

// Validate 检查数值配置；输出目标与格式在构建 logger 时校验
func (c Config) Validate() error {
	if c.Rate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, c.Rate)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBurst, c.Burst)
	}
	if c.Recent <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRecent, c.Recent)
	}
	return nil
}
