// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tombee/parsedbg/internal/debug"
	internallog "github.com/tombee/parsedbg/internal/log"
)

// DefaultDebounce is how long the watcher waits for writes to settle
// before reloading.
const DefaultDebounce = 100 * time.Millisecond

// BreakpointReplacer receives reloaded breakpoints. *debug.Controller
// implements it.
type BreakpointReplacer interface {
	ReplaceBreakpoints(defs []debug.Definition) error
}

// Watcher reloads the breakpoints of a session file whenever it changes
// and applies them to a BreakpointReplacer. Other settings are only read
// at startup.
type Watcher struct {
	path     string
	target   BreakpointReplacer
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	onReload func(error)

	mu    sync.Mutex
	timer *time.Timer

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithReloadHook registers a function called after every reload attempt
// with its result.
func WithReloadHook(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher watches the session file at path. The containing directory
// is watched so editors that replace the file are handled.
func NewWatcher(path string, target BreakpointReplacer, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch path: %w", err)
	}

	w := &Watcher{
		path:     absPath,
		target:   target,
		watcher:  fsw,
		logger:   internallog.WithComponent(logger, "config-watcher").With(slog.String("path", absPath)),
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. It returns immediately; the watcher stops when
// ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.eventLoop(ctx)
	w.logger.Debug("config watcher started")
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("config watcher stopped (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Debug("config watcher stopped")
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", internallog.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

// reload re-reads the file and replaces the breakpoints. Invalid files
// are logged and leave the current breakpoints in place.
func (w *Watcher) reload() {
	err := w.apply()
	if err != nil {
		w.logger.Warn("Ignoring invalid session file", internallog.Error(err))
	} else {
		w.logger.Info("Breakpoints reloaded")
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}

func (w *Watcher) apply() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return &Error{Key: "config_file", Reason: "failed to read", Cause: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		return &Error{Key: "config_file", Reason: "failed to parse", Cause: err}
	}
	if err := cfg.Validate(nil); err != nil {
		return &Error{Key: "validation", Reason: "configuration validation failed", Cause: err}
	}
	return w.target.ReplaceBreakpoints(cfg.Definitions())
}
