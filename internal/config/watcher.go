package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceDelay = 500 * time.Millisecond

// ConfigWatcher reloads configuration when files in the config directory
// change. Watching is only enabled in development.
type ConfigWatcher struct {
	config    *Config
	load      func() (*Config, error)
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopOnce  sync.Once
	stopCh    chan struct{}
}

// NewConfigWatcher starts watching dir. load is called on every change.
func NewConfigWatcher(initial *Config, dir string, load func() (*Config, error), logger *zap.Logger) (*ConfigWatcher, error) {
	w := &ConfigWatcher{
		config: initial,
		load:   load,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if !initial.IsDevelopment() {
		logger.Info("Configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)),
		)
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = fsWatcher

	if err := w.watchDir(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	go w.watchLoop()

	logger.Info("Configuration hot reloading enabled", zap.String("dir", dir))
	return w, nil
}

func (w *ConfigWatcher) watchDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			w.logger.Debug("Config directory missing, nothing to watch", zap.String("dir", dir))
			return nil
		}
		return fmt.Errorf("failed to stat config directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("config path %s is not a directory", dir)
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return nil
}

func (w *ConfigWatcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isConfigFile(event.Name) {
				continue
			}

			w.logger.Info("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

// reload swaps in a freshly loaded configuration and notifies callbacks.
// A configuration that fails to load keeps the previous one in place.
func (w *ConfigWatcher) reload() {
	next, err := w.load()
	if err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	prev := w.config
	if reflect.DeepEqual(stripSources(prev), stripSources(next)) {
		w.mu.Unlock()
		w.logger.Debug("Configuration unchanged after reload")
		return
	}
	w.config = next
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	w.logChanges(prev, next)
	for i, cb := range callbacks {
		w.safeCall(i, cb, next)
	}

	w.logger.Info("Configuration reloaded", zap.Int("callbacks_notified", len(callbacks)))
}

func (w *ConfigWatcher) safeCall(idx int, cb func(*Config), cfg *Config) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Callback panicked",
				zap.Int("callback_index", idx),
				zap.Any("panic", r),
			)
		}
	}()
	cb(cfg)
}

// OnChange registers a callback to be called when configuration changes.
func (w *ConfigWatcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// GetConfig returns the current configuration.
func (w *ConfigWatcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop stops the configuration watcher.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

func (w *ConfigWatcher) logChanges(prev, next *Config) {
	var changes []string
	if prev.Logging.Level != next.Logging.Level {
		changes = append(changes, fmt.Sprintf("log level: %s -> %s", prev.Logging.Level, next.Logging.Level))
	}
	if prev.Graph.TreeMaxDepth != next.Graph.TreeMaxDepth {
		changes = append(changes, fmt.Sprintf("tree depth: %d -> %d", prev.Graph.TreeMaxDepth, next.Graph.TreeMaxDepth))
	}
	if prev.Graph.TreeTraversal != next.Graph.TreeTraversal {
		changes = append(changes, fmt.Sprintf("tree traversal: %s -> %s", prev.Graph.TreeTraversal, next.Graph.TreeTraversal))
	}
	if prev.Server.Port != next.Server.Port {
		changes = append(changes, fmt.Sprintf("port: %d -> %d (restart required)", prev.Server.Port, next.Server.Port))
	}
	if prev.Neo4j.URI != next.Neo4j.URI {
		changes = append(changes, "neo4j uri changed (restart required)")
	}
	if len(changes) > 0 {
		w.logger.Info("Configuration changes detected", zap.Strings("changes", changes))
	}
}

func stripSources(c *Config) Config {
	out := *c
	out.LoadedFrom = nil
	return out
}

func isConfigFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml" || ext == ".json"
}
