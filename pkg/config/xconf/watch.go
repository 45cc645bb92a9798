package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xbridge"
)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 文件变更回调函数
// cfg 为重新加载的配置，err 非 nil 时 cfg 为零值，调用方应保留当前配置
type WatchCallback func(cfg xbridge.Config, err error)

// Watcher 配置文件监视器
type Watcher struct {
	path     string
	opts     []Option
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	running  bool
	timer    *time.Timer // debounce 定时器，Stop() 时需要取消
}

// WatchOption 监视器配置选项
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	load     []Option
}

// WithDebounce 设置防抖时间
// 在指定时间内的多次变更只触发一次重载，非正值使用 DefaultDebounce
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithLoadOptions 设置每次重载使用的加载选项
func WithLoadOptions(opts ...Option) WatchOption {
	return func(o *watchOptions) {
		o.load = append(o.load, opts...)
	}
}

// Watch 创建配置文件监视器
//
// 返回的 Watcher 需要调用 Start() 或 StartAsync() 开始监视，Stop() 停止监视。
//
//	w, err := xconf.Watch(path, func(cfg xbridge.Config, err error) {
//	    if err != nil {
//	        return
//	    }
//	    if err := bridge.Apply(cfg); errors.Is(err, xbridge.ErrRestartRequired) {
//	        // 结构性变更
//	    }
//	})
func Watch(path string, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if callback == nil {
		return nil, ErrNilCallback
	}
	if _, err := DetectFormat(path); err != nil {
		return nil, err
	}

	options := &watchOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: failed to create watcher: %w", err)
	}

	// 监视目录而非文件：编辑器保存时可能先删除再创建
	dir := filepath.Dir(path)
	if err := fsWatcher.Add(dir); err != nil {
		closeErr := fsWatcher.Close()
		return nil, errors.Join(
			fmt.Errorf("xconf: failed to watch directory %s: %w", dir, err),
			closeErr,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     path,
		opts:     options.load,
		watcher:  fsWatcher,
		callback: callback,
		debounce: options.debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start 启动监视
// 此方法会阻塞，通常应在 goroutine 中调用
func (w *Watcher) Start() {
	if !w.markRunning() {
		return
	}
	w.run()
}

// StartAsync 在后台 goroutine 中启动监视，立即返回
func (w *Watcher) StartAsync() {
	if !w.markRunning() {
		return
	}
	go w.run()
}

// markRunning 先设置 running 再启动循环，避免与 Stop() 竞争
func (w *Watcher) markRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.ctx.Err() != nil {
		return false
	}
	w.running = true
	return true
}

// Stop 停止监视
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.cancel()
	w.running = false
	return w.watcher.Close()
}

func (w *Watcher) run() {
	filename := filepath.Base(w.path)
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

// handleEvent 处理文件系统事件
func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	if filepath.Base(event.Name) != filename {
		return
	}
	// Write: 直接修改；Create: 新建文件；Rename: 原子写入（写临时文件后 rename）
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx.Err() != nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}
	cfg, err := Load(w.path, w.opts...)
	if w.ctx.Err() != nil {
		return
	}
	w.callback(cfg, err)
}

func (w *Watcher) handleError(err error) {
	w.callback(xbridge.Config{}, fmt.Errorf("xconf: watch error: %w", err))
}
