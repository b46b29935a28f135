package pageconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"aboutpage-backend/internal/shared/telemetry"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads a page configuration file when it changes on disk. The
// parent directory is watched so editors that replace the file by rename
// are picked up too.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(Document)
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	started atomic.Bool
	done    chan struct{}
}

// NewWatcher prepares a watcher for path. onChange runs on the watcher
// goroutine with each document that parsed successfully; a file that fails
// to load is logged and the previous document stays in effect.
func NewWatcher(path string, debounce time.Duration, onChange func(Document)) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("page config path is empty")
	}
	if onChange == nil {
		return nil, fmt.Errorf("onChange is required")
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Run processes file events until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.stopTimer()
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.stopTimer()
				return
			}
			telemetry.Error("pageconfig.watch_error", map[string]any{"path": w.path, "error": err})
		}
	}
}

// Close stops watching and waits for Run to return if it was started.
func (w *Watcher) Close(ctx context.Context) error {
	err := w.fsw.Close()
	if !w.started.Load() {
		return err
	}
	select {
	case <-w.done:
	case <-ctx.Done():
	}
	return err
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) reload() {
	doc, err := Load(w.path)
	if err != nil {
		telemetry.Error("pageconfig.reload_failed", map[string]any{"path": w.path, "error": err})
		return
	}
	telemetry.Info("pageconfig.reloaded", map[string]any{
		"path":   w.path,
		"blocks": len(doc.Blocks),
		"items":  len(ExtractRecommendedItems(doc.Blocks)),
	})
	w.onChange(doc)
}
