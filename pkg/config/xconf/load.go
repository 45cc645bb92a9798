package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xbridge"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式（推荐用于 K8s ConfigMap）。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// Option 定义加载选项函数类型。
type Option func(*options)

type options struct {
	section string
}

// WithSection 只读取指定路径下的配置，例如 "bridge" 或 "observability.bridge"。
// 默认读取整个文件。
func WithSection(path string) Option {
	return func(o *options) {
		o.section = path
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Load 从文件加载桥接器配置。
// 根据文件扩展名自动检测格式；空文件得到默认配置。
func Load(path string, opts ...Option) (xbridge.Config, error) {
	if path == "" {
		return xbridge.Config{}, ErrEmptyPath
	}
	format, err := DetectFormat(path)
	if err != nil {
		return xbridge.Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return xbridge.Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return Parse(data, format, opts...)
}

// Parse 解析字节数据为桥接器配置。
// 未出现的字段保留 xbridge.DefaultConfig() 的值，结果经过校验。
func Parse(data []byte, format Format, opts ...Option) (xbridge.Config, error) {
	o := applyOptions(opts)

	k := koanf.New(".")
	if err := loadData(k, data, format); err != nil {
		return xbridge.Config{}, err
	}

	cfg := xbridge.DefaultConfig()
	if err := k.UnmarshalWithConf(o.section, &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return xbridge.Config{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	if err := cfg.Validate(); err != nil {
		return xbridge.Config{}, err
	}
	return cfg, nil
}

// DetectFormat 根据文件扩展名检测配置格式。
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

// loadData 加载数据到 koanf 实例，空数据视为空配置。
func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if len(data) == 0 {
		return nil
	}
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
