// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Watcher polls one configuration file and reloads it when its size or
// modification time changes. A reload that fails to load or validate keeps
// the previous configuration in place.
type Watcher struct {
	path      string
	overrides []string
	interval  time.Duration
	logger    *slog.Logger

	current atomic.Pointer[Config]

	mu        sync.Mutex
	stamp     fileStamp
	listeners []func(*Config)

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type WatcherOption func(*Watcher)

// WithWatchInterval sets the polling interval. Non-positive values are ignored.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithOverrides reapplies key=value overrides on every reload, so --set
// flags keep precedence over the file.
func WithOverrides(overrides []string) WatcherOption {
	return func(w *Watcher) {
		w.overrides = overrides
	}
}

func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// fileStamp identifies one version of the watched file.
type fileStamp struct {
	exists bool
	size   int64
	mod    time.Time
}

func stampOf(path string) fileStamp {
	if path == "" {
		return fileStamp{}
	}
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{exists: true, size: info.Size(), mod: info.ModTime()}
}

// NewWatcher loads path (empty means defaults and environment only) and
// returns a watcher that is not yet polling.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: time.Second,
		logger:   slog.Default(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.stamp = stampOf(path)
	cfg, err := LoadWithOverrides(path, w.overrides)
	if err != nil {
		return nil, err
	}
	w.current.Store(cfg)
	return w, nil
}

// OnChange registers fn to run after every reload that changes a value.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Config returns the configuration currently in effect.
func (w *Watcher) Config() *Config {
	return w.current.Load()
}

// Start polls in the background until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

// Stop ends polling and waits for the poller to exit. It is safe to call
// more than once and on a watcher that never started.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	if w.started.Load() {
		<-w.done
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			if w.changed() {
				_ = w.reload()
			}
		}
	}
}

// changed reports whether the file differs from the last version seen. A
// file that disappears is not a change; the last good config stays.
func (w *Watcher) changed() bool {
	next := stampOf(w.path)
	if !next.exists {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if next == w.stamp {
		return false
	}
	w.stamp = next
	return true
}

func (w *Watcher) reload() error {
	cfg, err := LoadWithOverrides(w.path, w.overrides)
	if err != nil {
		w.logger.Error("configuration reload failed, keeping previous values", "path", w.path, "error", err)
		return err
	}
	if reflect.DeepEqual(cfg, w.current.Load()) {
		return nil
	}
	w.current.Store(cfg)

	w.mu.Lock()
	listeners := slices.Clone(w.listeners)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded", "path", w.path, "target", cfg.Codegen.Target, "package", cfg.Codegen.Package)
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// WatchConfig builds a watcher for path, starts it and returns the initial
// configuration.
func WatchConfig(ctx context.Context, path string, opts ...WatcherOption) (*Watcher, *Config, error) {
	w, err := NewWatcher(path, opts...)
	if err != nil {
		return nil, nil, err
	}
	w.Start(ctx)
	return w, w.Config(), nil
}

// ReloadableConfig holds a configuration that a Watcher may swap while
// readers use it.
type ReloadableConfig struct {
	cfg atomic.Pointer[Config]
}

func NewReloadableConfig(cfg *Config) *ReloadableConfig {
	r := &ReloadableConfig{}
	r.cfg.Store(cfg)
	return r
}

func (r *ReloadableConfig) Get() *Config { return r.cfg.Load() }

// Update replaces the configuration. It has the OnChange signature.
func (r *ReloadableConfig) Update(cfg *Config) { r.cfg.Store(cfg) }

// LLM returns the LLM section of the current configuration.
func (r *ReloadableConfig) LLM() LLMConfig { return r.cfg.Load().LLM }

// Codegen returns the code generation defaults of the current configuration.
func (r *ReloadableConfig) Codegen() CodegenConfig { return r.cfg.Load().Codegen }
