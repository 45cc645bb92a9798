package jsonlog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/valyala/fastjson"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xevent"
)

// MaxLineSize 单行最大字节数
const MaxLineSize = 1 << 20

// Decoder 逐行解码 JSON 日志，不可并发使用
type Decoder struct {
	sc     *bufio.Scanner
	parser fastjson.Parser
	line   int
}

// NewDecoder 创建解码器
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Decoder{sc: sc}
}

// Line 返回最近读取的行号（从 1 开始）
func (d *Decoder) Line() int { return d.line }

// Next 返回下一个事件
//
// 输入结束返回 io.EOF；单行失败返回 *LineError，可以继续调用 Next；
// 其它错误（读取失败、行过长）之后不应继续调用。空白行被跳过。
func (d *Decoder) Next() (*xevent.Event, error) {
	for d.sc.Scan() {
		d.line++
		raw := d.sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		ev, err := d.decode(raw)
		if err != nil {
			return nil, &LineError{Line: d.line, Err: err}
		}
		return ev, nil
	}
	if err := d.sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: line %d exceeds %d bytes", ErrLineTooLong, d.line+1, MaxLineSize)
		}
		return nil, err
	}
	return nil, io.EOF
}

func (d *Decoder) decode(raw []byte) (*xevent.Event, error) {
	v, err := d.parser.ParseBytes(raw)
	if err != nil {
		return nil, err
	}
	obj, err := v.Object()
	if err != nil {
		return nil, errors.New("not a JSON object")
	}

	ev := &xevent.Event{Level: xevent.LevelInfo}
	var decodeErr error
	obj.Visit(func(k []byte, val *fastjson.Value) {
		if decodeErr != nil {
			return
		}
		decodeErr = d.field(ev, string(k), val)
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return ev, nil
}

// field 把单个顶层字段写入事件
func (d *Decoder) field(ev *xevent.Event, key string, val *fastjson.Value) error {
	switch key {
	case "level", "lvl":
		level, err := parseLevel(val)
		if err != nil {
			return err
		}
		ev.Level = level
	case "logger", "name":
		ev.Logger = text(val)
	case "msg", "message":
		ev.Message = text(val)
	case "thread":
		ev.Thread = text(val)
	case "error_type", "exception":
		errorInfo(ev).Type = text(val)
	case "error":
		describeError(ev, val)
	case "time":
		t, err := time.Parse(time.RFC3339Nano, text(val))
		if err != nil {
			return fmt.Errorf("time: %w", err)
		}
		ev.Time = t
	case "timestamp":
		ns, err := val.Int64()
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		ev.Time = time.Unix(0, ns)
	default:
		flatten(ev, key, val)
	}
	return nil
}

func parseLevel(val *fastjson.Value) (xevent.Level, error) {
	if val.Type() == fastjson.TypeNumber {
		n, err := val.Int()
		if err != nil {
			return 0, fmt.Errorf("level: %w", err)
		}
		return xevent.FromSlog(slog.Level(n)), nil
	}
	level, err := xevent.ParseLevel(text(val))
	if err != nil {
		return 0, err
	}
	return level, nil
}

func errorInfo(ev *xevent.Event) *xevent.ErrorInfo {
	if ev.Error == nil {
		ev.Error = &xevent.ErrorInfo{}
	}
	return ev.Error
}

// describeError 解析 error 字段；只有消息没有类型时类型留空
func describeError(ev *xevent.Event, val *fastjson.Value) {
	switch val.Type() {
	case fastjson.TypeNull:
		return
	case fastjson.TypeObject:
		info := errorInfo(ev)
		if t := val.GetStringBytes("type"); len(t) > 0 && info.Type == "" {
			info.Type = string(t)
		}
		for _, c := range val.GetArray("chain") {
			if len(info.Chain) == xevent.MaxChainDepth {
				break
			}
			if b, err := c.StringBytes(); err == nil {
				info.Chain = append(info.Chain, string(b))
			}
		}
	default:
		errorInfo(ev)
	}
}

// flatten 把属性写入 Attrs，嵌套对象展开为点分 key
func flatten(ev *xevent.Event, key string, val *fastjson.Value) {
	if val.Type() == fastjson.TypeObject {
		obj, _ := val.Object()
		obj.Visit(func(k []byte, v *fastjson.Value) {
			flatten(ev, key+"."+string(k), v)
		})
		return
	}
	if val.Type() == fastjson.TypeNull {
		return
	}
	if ev.Attrs == nil {
		ev.Attrs = make(map[string]string, 8)
	}
	ev.Attrs[key] = text(val)
}

// text 字符串取原值，其它类型取 JSON 文本
func text(val *fastjson.Value) string {
	if val.Type() == fastjson.TypeString {
		return string(val.GetStringBytes())
	}
	return val.String()
}
