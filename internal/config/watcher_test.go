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
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/tombee/parsedbg/internal/debug"
	internallog "github.com/tombee/parsedbg/internal/log"
)

type recordingReplacer struct {
	mu    sync.Mutex
	calls [][]debug.Definition
}

func (r *recordingReplacer) ReplaceBreakpoints(defs []debug.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, defs)
	return nil
}

func (r *recordingReplacer) last() []debug.Definition {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func startWatcher(t *testing.T, path string, target BreakpointReplacer) <-chan error {
	t.Helper()
	reloads := make(chan error, 10)
	w, err := NewWatcher(path, target, internallog.Discard(),
		WithDebounce(10*time.Millisecond),
		WithReloadHook(func(err error) { reloads <- err }))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Start(context.Background())
	t.Cleanup(func() { _ = w.Stop() })
	return reloads
}

func waitReload(t *testing.T, reloads <-chan error) error {
	t.Helper()
	select {
	case err := <-reloads:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
		return nil
	}
}

func TestWatcher_ReloadsBreakpoints(t *testing.T) {
	path := writeFile(t, t.TempDir(), "breakpoints: []\n")
	target := &recordingReplacer{}
	reloads := startWatcher(t, path, target)

	content := "breakpoints:\n  - operation: term\n    pre_cursor: '1'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := waitReload(t, reloads); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	defs := target.last()
	if len(defs) != 1 || defs[0].Operation != "term" || defs[0].PreCursor != "1" || !defs[0].Enabled {
		t.Errorf("unexpected reloaded breakpoints: %+v", defs)
	}
}

func TestWatcher_IgnoresInvalidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "breakpoints: []\n")
	target := &recordingReplacer{}
	reloads := startWatcher(t, path, target)

	if err := os.WriteFile(path, []byte("breakpoints:\n  - pre_cursor: '('\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := waitReload(t, reloads)
	var patErr *debug.InvalidPatternError
	if !errors.As(err, &patErr) {
		t.Fatalf("expected invalid pattern error, got %v", err)
	}
	if target.last() != nil {
		t.Errorf("breakpoints must not be replaced by an invalid file")
	}
}

func TestWatcher_AppliesToController(t *testing.T) {
	path := writeFile(t, t.TempDir(), "breakpoints: []\n")
	ctrl, err := debug.NewController(debug.New(nil), internallog.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer ctrl.Close()
	reloads := startWatcher(t, path, ctrl)

	if err := os.WriteFile(path, []byte("breakpoints:\n  - operation: expression\n  - operation: term\n    enabled: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := waitReload(t, reloads); err != nil {
		t.Fatalf("reload error = %v", err)
	}

	bps := ctrl.Breakpoints()
	if len(bps) != 2 {
		t.Fatalf("expected 2 breakpoints, got %d", len(bps))
	}
	if bps[0].Operation != "expression" || bps[1].Enabled {
		t.Errorf("unexpected breakpoints: %+v", bps)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "breakpoints: []\n")
	target := &recordingReplacer{}
	reloads := startWatcher(t, path, target)

	if err := os.WriteFile(path+".bak", []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-reloads:
		t.Fatalf("unexpected reload: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}
