package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/omeyang/xlogmetrics/internal/jsonlog"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xbridge"
	"github.com/omeyang/xlogmetrics/pkg/observability/xlog"
)

// maxInvalidLogged 每个输入最多输出的无效行日志条数
const maxInvalidLogged = 10

// replayer 把日志输入逐行交给桥接器。
type replayer struct {
	bridge      *xbridge.Bridge
	logger      xlog.Logger
	skipInvalid bool
	stdin       io.Reader

	events  int64
	invalid int64
}

// file 回放单个输入，"-" 为标准输入。
func (r *replayer) file(ctx context.Context, path string) (err error) {
	var rc io.ReadCloser
	if path == "-" {
		rc, err = jsonlog.NewReader(io.NopCloser(r.stdin))
	} else {
		rc, err = jsonlog.Open(path)
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return r.stream(ctx, path, rc)
}

func (r *replayer) stream(ctx context.Context, name string, in io.Reader) error {
	d := jsonlog.NewDecoder(in)
	var logged int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := d.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var lineErr *jsonlog.LineError
		if errors.As(err, &lineErr) {
			if !r.skipInvalid {
				return fmt.Errorf("%s: %w", name, err)
			}
			r.invalid++
			if logged < maxInvalidLogged {
				logged++
				r.logger.Warn(ctx, "skip invalid line",
					slog.String("input", name), slog.Int("line", lineErr.Line), xlog.Err(lineErr.Err))
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r.bridge.Record(ev)
		r.events++
	}
}
