package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the YAML file named by CONFIG_FILE when it changes and
// hands the new configuration to its listeners. Only settings the server
// can apply while running are acted on by the listeners; everything else
// still needs a restart.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)

	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher loads path once and watches its directory, so editors that
// save by rename are picked up too
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	initial, err := loadFrom(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     path,
		watcher:  fsw,
		debounce: 100 * time.Millisecond,
		current:  initial,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}, nil
}

// OnChange registers a listener called after every successful reload
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Current returns the last configuration that loaded and validated
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching in the background
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop ends the watch loop. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Configuration watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			// editors fire several events per save
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Config watcher error", zap.Error(err))
		}
	}
}

// reload keeps the current configuration when the new file does not load
// or validate
func (w *Watcher) reload() {
	next, err := loadFrom(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration, keeping current", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.mu.Lock()
	previous := w.current
	w.current = next
	listeners := append([]func(*Config){}, w.onChange...)
	w.mu.Unlock()

	w.logger.Info("Configuration reloaded",
		zap.String("path", w.path),
		zap.String("log_level", next.LogLevel),
		zap.String("previous_log_level", previous.LogLevel),
		zap.Strings("allowed_origins", next.AllowedOrigins),
	)

	for _, fn := range listeners {
		fn(next)
	}
}

// loadFrom layers the same sources as LoadConfig with an explicit file
func loadFrom(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
