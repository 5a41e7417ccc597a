package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadConfig tunes the hot reloader.
type ReloadConfig struct {
	Enabled      bool
	CooldownTime time.Duration
}

// DefaultReloadConfig returns the standard reload settings.
func DefaultReloadConfig() ReloadConfig {
	return ReloadConfig{
		Enabled:      true,
		CooldownTime: 5 * time.Second,
	}
}

// Reloader watches the config file and delivers validated snapshots to the
// registered handler. A reload that fails validation is logged and dropped;
// the previous config stays in effect.
type Reloader struct {
	cfg     ReloadConfig
	path    string
	watcher *fsnotify.Watcher
	log     *zap.Logger

	mu         sync.Mutex
	lastReload time.Time
	onUpdate   func(AppConfig)

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewReloader creates a reloader for the given config path.
func NewReloader(path string, cfg ReloadConfig, log *zap.Logger) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reloader{
		cfg:      cfg,
		path:     path,
		watcher:  watcher,
		log:      log,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// OnUpdate registers the handler that receives each reloaded config.
func (r *Reloader) OnUpdate(fn func(AppConfig)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdate = fn
}

// Start begins watching. It returns immediately; events are handled on a
// background goroutine until Stop or ctx cancellation.
func (r *Reloader) Start(ctx context.Context) error {
	if !r.cfg.Enabled {
		close(r.doneChan)
		return nil
	}
	if err := r.watcher.Add(r.path); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}
	go r.watch(ctx)
	return nil
}

// Stop shuts the watcher down and waits briefly for the event loop to exit.
func (r *Reloader) Stop() error {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
	select {
	case <-r.doneChan:
	case <-time.After(time.Second):
	}
	return r.watcher.Close()
}

// LastReloadTime reports when the config last changed successfully.
func (r *Reloader) LastReloadTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastReload
}

func (r *Reloader) watch(ctx context.Context) {
	defer close(r.doneChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			// Editors often replace the file rather than write in place.
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				r.handleChange()
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (r *Reloader) handleChange() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(r.lastReload) < r.cfg.CooldownTime {
		return
	}

	cfg, err := LoadWithEnvOverrides(r.path)
	if err != nil {
		r.log.Warn("config reload rejected", zap.String("path", r.path), zap.Error(err))
		return
	}
	if r.onUpdate != nil {
		r.onUpdate(cfg)
	}
	r.lastReload = time.Now()
	r.log.Info("config reloaded", zap.String("path", r.path))
}
