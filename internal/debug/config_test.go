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

package debug

import (
	"errors"
	"testing"
	"time"
)

func TestConfig_New(t *testing.T) {
	cfg := New([]Definition{{Operation: "expression", Enabled: true}})

	if len(cfg.Breakpoints) != 1 {
		t.Errorf("Expected 1 breakpoint, got %d", len(cfg.Breakpoints))
	}
	if cfg.EventBuffer != DefaultEventBuffer {
		t.Errorf("Expected event buffer %d, got %d", DefaultEventBuffer, cfg.EventBuffer)
	}
	if cfg.SuspendTimeout != 0 {
		t.Errorf("Expected no suspend timeout, got %v", cfg.SuspendTimeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	catalog := NewOperationCatalog([]string{"statement", "expression", "term"})

	tests := []struct {
		name        string
		breakpoints []Definition
		catalog     *OperationCatalog
		timeout     time.Duration
		wantErr     bool
		wantPattern bool
	}{
		{
			name:        "valid breakpoints",
			breakpoints: []Definition{{Operation: "expression"}, {PreCursor: "1", PostCursor: `\+.*`}},
			catalog:     catalog,
		},
		{
			name:        "unknown operation",
			breakpoints: []Definition{{Operation: "factor"}},
			catalog:     catalog,
			wantErr:     true,
		},
		{
			name:        "unknown operation without catalog",
			breakpoints: []Definition{{Operation: "factor"}},
		},
		{
			name:        "malformed pattern",
			breakpoints: []Definition{{PreCursor: "[unclosed"}},
			wantErr:     true,
			wantPattern: true,
		},
		{
			name:    "negative timeout",
			timeout: -time.Second,
			wantErr: true,
		},
		{
			name: "no breakpoints",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New(tt.breakpoints)
			cfg.SuspendTimeout = tt.timeout
			err := cfg.Validate(tt.catalog)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			var patErr *InvalidPatternError
			if errors.As(err, &patErr) != tt.wantPattern {
				t.Errorf("Validate() error = %v, want InvalidPatternError %v", err, tt.wantPattern)
			}
		})
	}
}

func TestConfig_Breakpoints(t *testing.T) {
	cfg := New(nil)
	cfg.AddBreakpoint(Definition{Operation: "term"})
	cfg.AddBreakpoint(Definition{Operation: "expression"})
	if len(cfg.Breakpoints) != 2 {
		t.Fatalf("Expected 2 breakpoints, got %d", len(cfg.Breakpoints))
	}

	cfg.ClearBreakpoints()
	if len(cfg.Breakpoints) != 0 {
		t.Errorf("Expected no breakpoints after clear, got %d", len(cfg.Breakpoints))
	}
}

func TestOperationCatalog(t *testing.T) {
	catalog := NewOperationCatalog([]string{"term", "expression", "term", "statement"})

	want := []string{"expression", "statement", "term"}
	got := catalog.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
	if !catalog.Contains("term") || catalog.Contains("factor") {
		t.Error("Contains() returned wrong membership")
	}
	if catalog.Len() != 3 {
		t.Errorf("Len() = %d, want 3", catalog.Len())
	}

	var nilCatalog *OperationCatalog
	if nilCatalog.Len() != 0 || nilCatalog.Names() != nil || nilCatalog.Validate([]Definition{{Operation: "x"}}) != nil {
		t.Error("nil catalog should be empty and accept everything")
	}
}
