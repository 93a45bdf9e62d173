// Package watcher 监听目录变化，并在去抖与限流之后通知调用方重新扫描。
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"codestat/internal/observability"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// Filter 决定哪些路径需要关注，参数都是相对监听根目录、以 / 分隔的路径。
// scanner.Service 实现了该接口，保证 watch 与 scan 的取舍一致。
type Filter interface {
	Accepts(relativePath string) bool
	Excluded(relativePath string) bool
}

// Options 是 Watcher 的可配置项。
type Options struct {
	Debounce time.Duration
	// MaxRescansPerSecond 限制回调频率，<= 0 表示不限流。
	MaxRescansPerSecond float64
	Logger              *slog.Logger
}

// Watcher 递归监听一个目录。
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	filter    Filter
	debounce  time.Duration
	limiter   *rate.Limiter
	onChange  func(ctx context.Context, paths []string)
	logger    *slog.Logger

	root       string
	callbackMu sync.Mutex
	pendingMu  sync.Mutex
	pending    map[string]struct{}
	timer      *time.Timer
}

// New 创建 Watcher。onChange 收到的是去重、排序后的绝对路径。
func New(filter Filter, options Options, onChange func(ctx context.Context, paths []string)) (*Watcher, error) {
	if filter == nil || onChange == nil {
		return nil, os.ErrInvalid
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		filter:    filter,
		debounce:  options.Debounce,
		onChange:  onChange,
		logger:    options.Logger,
		pending:   make(map[string]struct{}),
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if options.MaxRescansPerSecond > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(options.MaxRescansPerSecond), 1)
	}
	return w, nil
}

// Run 开始监听 root，阻塞直到 ctx 结束或底层监听器关闭。
func (w *Watcher) Run(ctx context.Context, root string) error {
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w.root = absoluteRoot
	defer w.Close()

	if err := w.watchRecursive(absoluteRoot); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			observability.WatcherEventsTotal.Inc()
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// Close 停止计时器并关闭底层监听器。
func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	relativePath := w.relative(event.Name)
	w.logger.Debug("watch event", "path", relativePath, "op", event.Op.String())

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.filter.Excluded(relativePath) {
				return
			}
			if err := w.watchRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", relativePath, "error", err)
				return
			}
			w.enqueueExistingFiles(ctx, event.Name)
			return
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.handleRemoval(ctx, event.Name, relativePath)
		return
	}

	if !w.filter.Accepts(relativePath) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
		w.scheduleChange(ctx, event.Name)
	}
}

// handleRemoval 处理删除与移出。
// 路径已不存在，无法再判断是否为目录；没有后缀的路径按目录处理，
// 这样整个源码目录被移走时也会触发重新扫描。
func (w *Watcher) handleRemoval(ctx context.Context, path string, relativePath string) {
	if w.filter.Excluded(relativePath) {
		return
	}
	if w.filter.Accepts(relativePath) {
		w.scheduleChange(ctx, path)
		return
	}
	if filepath.Ext(relativePath) != "" {
		return
	}

	// 目录被移走后 inotify 的 watch 仍跟着 inode，移除它避免收到旧路径的事件。
	_ = w.fsWatcher.Remove(path)
	w.scheduleChange(ctx, path)
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Warn("skip unwatchable path", "path", w.relative(path), "error", err)
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && w.filter.Excluded(w.relative(path)) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) enqueueExistingFiles(ctx context.Context, root string) {
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if w.filter.Accepts(w.relative(path)) {
			w.scheduleChange(ctx, path)
		}
		return nil
	})
}

// scheduleChange 记录变更并重置去抖计时器。
func (w *Watcher) scheduleChange(ctx context.Context, path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.flush(ctx) })
}

// flush 取出全部待处理路径并调用回调，回调之间串行执行。
func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				w.logger.Warn("rescan limiter aborted", "error", err)
			}
			return
		}
	}
	if ctx.Err() != nil {
		return
	}

	observability.WatcherRescansTotal.Inc()
	w.onChange(ctx, paths)
}

// relative 把绝对路径转换为相对根目录、以 / 分隔的路径。
func (w *Watcher) relative(path string) string {
	relativePath, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(relativePath)
}
