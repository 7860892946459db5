package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/viant/agentrt/internal/apperr"
	"github.com/viant/agentrt/internal/obslog"
)

// MCPWatcher reloads mcp_settings.json on change and reconciles the running
// set of registered servers against it. Grounded on the teacher's
// internal/hotswap.Manager: fsnotify.Watcher plus a debounced dispatch loop,
// generalized from per-workspace-kind reload to a single settings file.
type MCPWatcher struct {
	path     string
	debounce time.Duration
	log      *obslog.Logger

	apply func(ctx context.Context, settings *MCPSettings) error

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc

	mu   sync.Mutex
	last time.Time
}

// NewMCPWatcher builds a watcher over the file at path. apply
// is called with the freshly parsed settings on startup and on every
// subsequent write, with debounce collapsing rapid successive writes.
func NewMCPWatcher(path string, debounce time.Duration, log *obslog.Logger, apply func(ctx context.Context, settings *MCPSettings) error) (*MCPWatcher, error) {
	if log == nil {
		log = obslog.New(nil, nil)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStorageError, "mcp watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MCPWatcher{path: path, debounce: debounce, log: log, apply: apply, watcher: w, ctx: ctx, cancel: cancel}, nil
}

// Start loads the settings once, applies them, then watches path for changes
// until Stop is called.
func (w *MCPWatcher) Start() error {
	if err := w.reload(); err != nil {
		return err
	}
	if err := w.watcher.Add(w.path); err != nil {
		return apperr.Wrap(apperr.ErrStorageError, "watch %q: %v", w.path, err)
	}
	go w.loop()
	return nil
}

// Stop halts the watcher. Safe to call once.
func (w *MCPWatcher) Stop() {
	w.cancel()
	_ = w.watcher.Close()
}

func (w *MCPWatcher) loop() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			if w.debounce > 0 && time.Since(w.last) < w.debounce {
				w.mu.Unlock()
				continue
			}
			w.last = time.Now()
			w.mu.Unlock()
			if err := w.reload(); err != nil {
				w.log.Debug("mcp_watcher.reload_failed", map[string]interface{}{"error": err.Error()})
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Debug("mcp_watcher.error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (w *MCPWatcher) reload() error {
	settings, err := LoadMCPSettings(w.path)
	if err != nil {
		return err
	}
	w.log.Debug("mcp_watcher.reloaded", map[string]interface{}{"servers": len(settings.MCPServers)})
	return w.apply(w.ctx, settings)
}
