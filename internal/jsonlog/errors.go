package jsonlog

import (
	"errors"
	"strconv"
)

var (
	// ErrMalformedLine 表示一行无法解析为日志事件
	ErrMalformedLine = errors.New("jsonlog: malformed line")

	// ErrLineTooLong 表示一行超过缓冲区上限，之后的输入无法继续读取
	ErrLineTooLong = errors.New("jsonlog: line too long")
)

// LineError 单行解析失败，调用方可以跳过并继续 Next
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return "jsonlog: line " + strconv.Itoa(e.Line) + ": " + e.Err.Error()
}

func (e *LineError) Unwrap() []error { return []error{ErrMalformedLine, e.Err} }
