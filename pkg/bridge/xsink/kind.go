package xsink

import "strconv"

// Kind 失败类别
type Kind uint8

const (
	// KindExtract 标签提取失败
	KindExtract Kind = iota
	// KindRegister 实例注册失败
	KindRegister
	// KindUpdate 实例更新失败
	KindUpdate
	// KindPanic 处理过程中 panic
	KindPanic
	// KindOverflow 基数上限溢出，键被改写
	KindOverflow
	// KindSuppressed 降级期间被跳过的事件
	KindSuppressed
	// KindDegraded 进入降级
	KindDegraded
	// KindRecovered 从降级恢复
	KindRecovered

	numKinds
)

var kindNames = [numKinds]string{
	KindExtract:    "extract",
	KindRegister:   "register",
	KindUpdate:     "update",
	KindPanic:      "panic",
	KindOverflow:   "overflow",
	KindSuppressed: "suppressed",
	KindDegraded:   "degraded",
	KindRecovered:  "recovered",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Kinds 返回全部已定义类别
func Kinds() []Kind {
	kinds := make([]Kind, numKinds)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}
