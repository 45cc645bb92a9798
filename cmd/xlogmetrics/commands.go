package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xbridge"
	"github.com/omeyang/xlogmetrics/pkg/config/xconf"
	"github.com/omeyang/xlogmetrics/pkg/lifecycle/xrun"
	"github.com/omeyang/xlogmetrics/pkg/observability/xlog"
)

// 默认值。
const (
	defaultListen       = ":9464"
	defaultBackend      = backendPrometheus
	shutdownGracePeriod = 5 * time.Second
)

// exitError 表示需要非零退出码但已完成输出的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 表示参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createValidateCommand(),
		createReplayCommand(),
		createPipeCommand(),
	}
}

func createValidateCommand() *cli.Command {
	return &cli.Command{
		Name:   "validate",
		Usage:  "校验配置并输出生效的指标族与标签",
		Action: cmdValidate,
	}
}

func createReplayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Aliases:   []string{"r"},
		Usage:     "回放 JSON Lines 日志并输出指标",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "指标后端 (prometheus/otel)",
				Value:   defaultBackend,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "指标输出文件，缺省为标准输出",
			},
			&cli.BoolFlag{
				Name:  "skip-invalid",
				Usage: "跳过无法解析的行而不是中止",
			},
			&cli.StringFlag{
				Name:  "min-level",
				Usage: "覆盖配置中的 min_level",
			},
		},
		Action: cmdReplay,
	}
}

func createPipeCommand() *cli.Command {
	return &cli.Command{
		Name:  "pipe",
		Usage: "持续读取标准输入并通过 HTTP 暴露 Prometheus 指标",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "HTTP 监听地址",
				Value:   defaultListen,
			},
			&cli.BoolFlag{
				Name:  "skip-invalid",
				Usage: "跳过无法解析的行而不是中止",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "监视 --config 文件并热更新 min_level/enable_timing",
			},
			&cli.BoolFlag{
				Name:  "exit-on-eof",
				Usage: "标准输入结束后退出，缺省继续提供 /metrics 直到收到信号",
			},
			&cli.DurationFlag{
				Name:  "stats-interval",
				Usage: "周期性输出桥接器统计，0 表示关闭",
			},
		},
		Action: cmdPipe,
	}
}

// =============================================================================
// 公共辅助
// =============================================================================

// loadConfig 读取全局 --config/--section，未指定文件时使用默认配置。
func loadConfig(cmd *cli.Command) (xbridge.Config, error) {
	path := cmd.String("config")
	if path == "" {
		return xbridge.DefaultConfig(), nil
	}
	return xconf.Load(path, loadOptions(cmd)...)
}

func loadOptions(cmd *cli.Command) []xconf.Option {
	if section := cmd.String("section"); section != "" {
		return []xconf.Option{xconf.WithSection(section)}
	}
	return nil
}

// newLogger 创建命令自身的日志器，输出到 stderr。
func newLogger(cmd *cli.Command) (xlog.Logger, func() error, error) {
	logger, cleanup, err := xlog.New().
		SetOutput(errWriter(cmd)).
		SetLevelString(cmd.String("log-level")).
		SetAttrs(xlog.Component("xlogmetrics")).
		Build()
	if err != nil {
		return nil, nil, newUsageError("log-level: %v", err)
	}
	return logger, cleanup, nil
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func inReader(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

// =============================================================================
// validate
// =============================================================================

func cmdValidate(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	keys, err := cfg.TagKeys()
	if err != nil {
		return err
	}

	w := outWriter(cmd)
	fmt.Fprintln(w, "config ok")
	fmt.Fprintf(w, "  families:   %s\n", strings.Join(familyNames(cfg), ", "))
	fmt.Fprintf(w, "  tag keys:   %s\n", strings.Join(keys, ", "))
	fmt.Fprintf(w, "  max keys:   %d per family\n", cfg.MaxKeys)
	fmt.Fprintf(w, "  min level:  %s\n", cfg.MinLevel)
	fmt.Fprintf(w, "  timing:     %t\n", cfg.EnableTiming)
	fmt.Fprintf(w, "  failure:    %d consecutive, cooldown %s\n", cfg.Failure.Threshold, cfg.Failure.Cooldown)
	fmt.Fprintf(w, "  diagnostic: %s (%s)\n", cfg.Diagnostics.Output, cfg.Diagnostics.Format)
	return nil
}

// familyNames 返回配置下会出现的指标族名称。
func familyNames(cfg xbridge.Config) []string {
	prefix := ""
	if cfg.Namespace != "" {
		prefix = cfg.Namespace + "."
	}
	names := []string{prefix + "events"}
	if cfg.EnableTiming {
		names = append(names, prefix+"event.duration")
	}
	for _, attr := range cfg.HistogramAttrs {
		names = append(names, prefix+"attr."+attr)
	}
	return names
}

// =============================================================================
// replay
// =============================================================================

func cmdReplay(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if lvl := cmd.String("min-level"); lvl != "" {
		cfg.MinLevel = lvl
		if err := cfg.Validate(); err != nil {
			return newUsageError("min-level: %v", err)
		}
	}

	logger, closeLogger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = closeLogger() }()

	be, err := newBackend(cmd.String("backend"), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = be.close() }()

	bridge, err := xbridge.New(cfg, be.registry)
	if err != nil {
		return err
	}
	defer func() { _ = bridge.Close() }()

	inputs := cmd.Args().Slice()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	r := replayer{
		bridge:      bridge,
		logger:      logger,
		skipInvalid: cmd.Bool("skip-invalid"),
		stdin:       inReader(cmd),
	}
	for _, in := range inputs {
		if err := r.file(ctx, in); err != nil {
			return err
		}
	}

	out := outWriter(cmd)
	if path := cmd.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	if err := be.dump(ctx, out); err != nil {
		return err
	}

	logger.Info(ctx, "replay finished",
		slog.Int64("events", r.events),
		slog.Int64("invalid", r.invalid),
		slog.Int("files", len(inputs)))
	logFamilyStats(ctx, logger, bridge.Stats())
	return nil
}

func logFamilyStats(ctx context.Context, logger xlog.Logger, stats xbridge.Stats) {
	for _, f := range stats.Families {
		if f.Registrations == 0 {
			continue
		}
		logger.Info(ctx, "family",
			xlog.Family(f.Name),
			slog.Int("keys", f.Keys),
			slog.Int("max_keys", f.MaxKeys),
			slog.Int64("overflowed", f.Overflowed))
	}
	for kind, n := range stats.Sink.Counts {
		if n > 0 {
			logger.Warn(ctx, "bridge failures", xlog.Kind(kind), xlog.Count(n))
		}
	}
}

// =============================================================================
// pipe
// =============================================================================

func cmdPipe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("watch") && cmd.String("config") == "" {
		return newUsageError("--watch requires --config")
	}
	if cmd.Duration("stats-interval") < 0 {
		return newUsageError("--stats-interval must not be negative")
	}

	logger, closeLogger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = closeLogger() }()

	be, err := newBackend(backendPrometheus, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = be.close() }()

	bridge, err := xbridge.New(cfg, be.registry)
	if err != nil {
		return err
	}
	defer func() { _ = bridge.Close() }()

	srv, ln, err := listenMetrics(cmd.String("listen"), be.handler)
	if err != nil {
		return err
	}
	logger.Info(ctx, "serving metrics", slog.String("addr", "http://"+ln.Addr().String()+"/metrics"))

	g, gctx := xrun.NewGroup(ctx, xrun.WithLogger(logger))
	g.Go("metrics-http", xrun.HTTPServer(srv, ln, shutdownGracePeriod))

	if cmd.Bool("watch") {
		w, err := xconf.Watch(cmd.String("config"), applyConfig(gctx, bridge, logger),
			xconf.WithLoadOptions(loadOptions(cmd)...))
		if err != nil {
			g.Cancel(err)
			return g.Wait()
		}
		g.Go("config-watch", func(ctx context.Context) error {
			w.StartAsync()
			<-ctx.Done()
			return w.Stop()
		})
	}

	if every := cmd.Duration("stats-interval"); every > 0 {
		g.Go("stats", xrun.Ticker(every, false, func(ctx context.Context) error {
			logPipeStats(ctx, logger, bridge.Stats())
			return nil
		}))
	}

	r := &replayer{
		bridge:      bridge,
		logger:      logger,
		skipInvalid: cmd.Bool("skip-invalid"),
		stdin:       inReader(cmd),
	}
	exitOnEOF := cmd.Bool("exit-on-eof")
	g.Go("stdin", func(ctx context.Context) error {
		if err := consume(ctx, r); err != nil {
			return err
		}
		logger.Info(ctx, "input closed", slog.Int64("events", r.events), slog.Int64("invalid", r.invalid))
		if exitOnEOF {
			g.Cancel(xrun.ErrStop)
		}
		return nil
	})
	return g.Wait()
}

// consume 读取标准输入直到结束。
//
// 阻塞在标准输入上的读取无法被取消，ctx 结束时放弃等待，
// 读取 goroutine 随进程退出。
func consume(ctx context.Context, r *replayer) error {
	done := make(chan error, 1)
	go func() { done <- r.file(ctx, "-") }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// logPipeStats 周期性输出桥接器概况。
func logPipeStats(ctx context.Context, logger xlog.Logger, stats xbridge.Stats) {
	var keys int
	var overflowed int64
	for _, f := range stats.Families {
		keys += f.Keys
		overflowed += f.Overflowed
	}
	var failures int64
	for _, n := range stats.Sink.Counts {
		failures += n
	}
	logger.Info(ctx, "bridge stats",
		slog.String("breaker", stats.Breaker),
		slog.Int("keys", keys),
		slog.Int64("overflowed", overflowed),
		slog.Int64("failures", failures))
}

// applyConfig 返回配置热更新回调。
func applyConfig(ctx context.Context, bridge *xbridge.Bridge, logger xlog.Logger) xconf.WatchCallback {
	return func(cfg xbridge.Config, err error) {
		if err != nil {
			logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		switch err := bridge.Apply(cfg); {
		case err == nil:
			logger.Info(ctx, "config reloaded", slog.String("min_level", cfg.MinLevel))
		case errors.Is(err, xbridge.ErrRestartRequired):
			logger.Warn(ctx, "config reloaded partially, restart to apply structural changes")
		default:
			logger.Warn(ctx, "config apply failed", xlog.Err(err))
		}
	}
}
