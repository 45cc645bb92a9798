package xinstrument

import "errors"

var (
	// ErrNilMeter 表示 NewOTelRegistry 收到 nil Meter
	ErrNilMeter = errors.New("xinstrument: nil meter")

	// ErrNilRegisterer 表示 NewPrometheusRegistry 收到 nil Registerer
	ErrNilRegisterer = errors.New("xinstrument: nil registerer")

	// ErrKindMismatch 表示键的指标族类型与请求的实例类型不一致
	ErrKindMismatch = errors.New("xinstrument: instrument kind mismatch")

	// ErrUnknownLabel 表示标签 key 不在 Prometheus 注册表声明的 label 集合中
	ErrUnknownLabel = errors.New("xinstrument: unknown label")

	// ErrInvalidLabel 表示声明的 label 名称为空或规范化后重复
	ErrInvalidLabel = errors.New("xinstrument: invalid label name")

	// ErrIncompatibleCollector 表示同名 collector 已以不同类型注册
	ErrIncompatibleCollector = errors.New("xinstrument: incompatible collector already registered")

	// ErrInvalidShards 表示分片数不是 2 的幂
	ErrInvalidShards = errors.New("xinstrument: shard count must be a power of two")

	// ErrNilCreate 表示 NewCache 收到 nil 构造函数
	ErrNilCreate = errors.New("xinstrument: nil create function")
)
