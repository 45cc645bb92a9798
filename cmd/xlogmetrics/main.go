// xlogmetrics 把 JSON Lines 日志转换为指标。
//
// 用法:
//
//	xlogmetrics [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config     桥接器配置文件（.yaml/.yml/.json），缺省使用默认配置
//	    --section    只读取配置文件中的指定路径（如 "observability.bridge"）
//	    --log-level  命令自身的日志级别 (默认: info)
//
// 命令:
//
//	validate            校验配置并输出生效的指标族与标签
//	replay [文件...]    回放日志文件（支持 gzip/zstd，"-" 为标准输入），输出指标
//	pipe                持续读取标准输入，通过 HTTP /metrics 暴露 Prometheus 指标
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（配置无效、输入错误等）
//	2: 参数错误（未知命令、未知 flag、无效 backend 等）
//
// 示例:
//
//	xlogmetrics -c bridge.yaml validate
//	xlogmetrics -c bridge.yaml replay --backend otel app.log.gz
//	tail -F app.log | xlogmetrics pipe --listen :9464 --watch -c bridge.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// createApp 创建 CLI 应用。
func createApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "xlogmetrics",
		Usage:   "把 JSON Lines 日志转换为 Prometheus/OpenTelemetry 指标",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Reader:  stdin,
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "桥接器配置文件（.yaml/.yml/.json）",
			},
			&cli.StringFlag{
				Name:  "section",
				Usage: "配置文件中的路径，缺省读取整个文件",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "命令自身的日志级别 (debug/info/warn/error)",
				Value: "info",
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		Authors: []any{
			"XKit Team",
		},
		ErrWriter: stderr,
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一映射退出码。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

// run 执行命令并返回退出码。
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := createApp(stdin, stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			// flag 解析器已向 stderr 输出错误详情
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// isCLIUsageError 识别 urfave/cli 产生的参数错误。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, s := range []string{
		"flag provided but not defined",
		"invalid value",
		"No help topic for",
		"Required flag",
		"flag needs an argument",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// setupSignalHandler 第一次信号优雅取消，第二次强制退出。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()

		<-sigCh
		signal.Stop(sigCh)
		os.Exit(130)
	}()
}
