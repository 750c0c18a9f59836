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
)

func TestCallStack_PushPop(t *testing.T) {
	var s CallStack

	root := s.Push("statement", 0)
	if root.Depth != 0 {
		t.Errorf("root depth = %d, want 0", root.Depth)
	}
	expr := s.Push("expression", 0)
	if expr.Depth != 1 {
		t.Errorf("nested depth = %d, want 1", expr.Depth)
	}
	if expr.ID == root.ID {
		t.Error("frames must have distinct IDs")
	}

	if top, ok := s.Top(); !ok || top != expr {
		t.Errorf("Top() = %v, %v; want %v", top, ok, expr)
	}
	if parent, ok := s.Parent(); !ok || parent != root {
		t.Errorf("Parent() = %v, %v; want %v", parent, ok, root)
	}
	if !s.Contains(root.ID) {
		t.Error("Contains(root) = false")
	}

	popped, err := s.Pop("expression", 0)
	if err != nil {
		t.Fatalf("Pop() error = %v", err)
	}
	if popped != expr {
		t.Errorf("Pop() = %v, want %v", popped, expr)
	}
	if s.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", s.Depth())
	}
	if _, ok := s.Parent(); ok {
		t.Error("Parent() of root should not exist")
	}

	// Siblings at the same depth get new identities.
	sibling := s.Push("expression", 0)
	if sibling.ID == expr.ID || sibling.Depth != expr.Depth {
		t.Errorf("sibling = %v, previous = %v", sibling, expr)
	}
}

func TestCallStack_PopMismatch(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*CallStack)
		op        string
		start     int
		wantEmpty bool
	}{
		{
			name:      "empty stack",
			setup:     func(*CallStack) {},
			op:        "term",
			wantEmpty: true,
		},
		{
			name:  "wrong operation",
			setup: func(s *CallStack) { s.Push("expression", 0) },
			op:    "term",
		},
		{
			name:  "wrong start",
			setup: func(s *CallStack) { s.Push("term", 2) },
			op:    "term",
			start: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s CallStack
			tt.setup(&s)
			before := s.Depth()

			_, err := s.Pop(tt.op, tt.start)

			var violation *ProtocolViolationError
			if !errors.As(err, &violation) {
				t.Fatalf("Pop() error = %v, want ProtocolViolationError", err)
			}
			if (violation.Expected == nil) != tt.wantEmpty {
				t.Errorf("Expected frame = %v, wantEmpty %v", violation.Expected, tt.wantEmpty)
			}
			if s.Depth() != before {
				t.Errorf("stack changed on failed pop: depth %d, want %d", s.Depth(), before)
			}
		})
	}
}

func TestCallStack_FramesAndReset(t *testing.T) {
	var s CallStack
	s.Push("statement", 0)
	s.Push("expression", 0)

	frames := s.Frames()
	frames[0].Operation = "mutated"
	if got := s.Frames()[0].Operation; got != "statement" {
		t.Errorf("Frames() must return a copy, got %q", got)
	}

	s.Reset()
	if s.Depth() != 0 {
		t.Errorf("Depth() after Reset = %d", s.Depth())
	}
	if f := s.Push("statement", 0); f.ID != 1 {
		t.Errorf("frame IDs should restart after Reset, got %d", f.ID)
	}
}
