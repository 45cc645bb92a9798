package xbreaker

// ConsecutiveFailuresPolicy 连续失败次数达到阈值时熔断
type ConsecutiveFailuresPolicy struct {
	threshold uint32
}

// NewConsecutiveFailures 创建连续失败策略，threshold 为 0 时使用 DefaultThreshold
func NewConsecutiveFailures(threshold uint32) *ConsecutiveFailuresPolicy {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return &ConsecutiveFailuresPolicy{threshold: threshold}
}

// ReadyToTrip 实现 TripPolicy
func (p *ConsecutiveFailuresPolicy) ReadyToTrip(counts Counts) bool {
	return counts.ConsecutiveFailures >= p.threshold
}

// Threshold 返回阈值
func (p *ConsecutiveFailuresPolicy) Threshold() uint32 {
	return p.threshold
}
