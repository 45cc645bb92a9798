package xrun

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlogmetrics/pkg/observability/xlog"
)

// Option 配置 Group 的选项函数
type Option func(*Group)

// WithLogger 设置记录服务启停的日志器，默认不记录
func WithLogger(logger xlog.Logger) Option {
	return func(g *Group) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Group 基于 errgroup + context 管理多个服务的并发运行和协调关闭
//
// Go、Cancel 可并发调用；Wait 应仅调用一次。
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	logger   xlog.Logger
}

// NewGroup 创建 Group，返回的 context 在任一服务返回错误或 Cancel 后取消
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	g := &Group{eg: eg, ctx: egCtx, causeCtx: causeCtx, cancel: cancel}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, egCtx
}

// Go 以名称启动一个服务，fn 应在 ctx 取消后尽快返回
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		g.debug("service starting", name)
		err := fn(g.ctx)
		switch {
		case err == nil, errors.Is(err, context.Canceled):
			g.debug("service stopped", name)
		case g.logger != nil:
			g.logger.Warn(g.ctx, "service exited with error", slog.String("service", name), xlog.Err(err))
		}
		return err
	})
}

func (g *Group) debug(msg, name string) {
	if g.logger != nil {
		g.logger.Debug(g.ctx, msg, slog.String("service", name))
	}
}

// Wait 等待所有服务结束
//
// context.Canceled 被过滤：Group 被主动取消时返回显式 cause（ErrStop 视为 nil），
// 否则返回 nil；服务内部产生的 context.Canceled 原样返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.Canceled) && g.causeCtx.Err() == nil {
		return err
	}
	if g.causeCtx.Err() != nil {
		cause := context.Cause(g.causeCtx)
		if cause != nil && !errors.Is(cause, context.Canceled) && !errors.Is(cause, ErrStop) {
			return cause
		}
	}
	return nil
}

// Cancel 主动取消所有服务，cause 作为 Wait 的返回值
//
// cause 不应包装 context.Canceled，否则会被视为普通取消。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}
