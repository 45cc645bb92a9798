package xrun

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Ticker 返回周期性执行 fn 的服务函数
//
// immediate 为 true 时启动后立即执行一次。fn 返回错误时服务结束。
func Ticker(interval time.Duration, immediate bool, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		if fn == nil {
			return ErrNilFunc
		}
		if immediate {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx); err != nil {
				return err
			}
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// HTTPServer 返回在 ln 上运行 server 的服务函数，ctx 取消后优雅关闭
//
// shutdownTimeout 非正数时 Shutdown 等待所有在途请求完成。
func HTTPServer(server *http.Server, ln net.Listener, shutdownTimeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if server == nil || ln == nil {
			return ErrNilServer
		}
		serveErr := make(chan error, 1)
		go func() { serveErr <- server.Serve(ln) }()

		select {
		case err := <-serveErr:
			// 启动失败或被外部关闭
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx := context.WithoutCancel(ctx)
		if shutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(shutdownCtx, shutdownTimeout)
			defer cancel()
		}
		err := server.Shutdown(shutdownCtx)
		<-serveErr
		return err
	}
}
