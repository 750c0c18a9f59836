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
	"encoding/json"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Inspector evaluates expressions against a controller snapshot.
//
// The expression environment exposes:
//   - text, cursor, before, after: the input and the split at the cursor
//   - op, depth, stack, ops: the active operation and call stack
//   - mode, suspended, reason, position, breakpoint: controller state
//   - session: the session ID
//
// Example:
//
//	insp := debug.NewInspector()
//	v, err := insp.Eval(`depth > 1 && op == "term"`, ctrl.Snapshot())
type Inspector struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// NewInspector creates a new inspector.
func NewInspector() *Inspector {
	return &Inspector{
		cache: make(map[string]*vm.Program),
	}
}

// Env builds the expression environment for a snapshot.
func (i *Inspector) Env(s Snapshot) map[string]any {
	stack := make([]map[string]any, len(s.Stack))
	for idx, f := range s.Stack {
		stack[idx] = map[string]any{
			"id":        f.ID,
			"operation": f.Operation,
			"start":     f.Start,
			"depth":     f.Depth,
		}
	}

	env := map[string]any{
		"session":    s.SessionID,
		"text":       s.Text,
		"cursor":     s.Cursor,
		"before":     s.Before(),
		"after":      s.After(),
		"op":         s.Operation,
		"depth":      s.Depth(),
		"stack":      stack,
		"ops":        s.Operations(),
		"mode":       s.Mode.String(),
		"suspended":  s.Suspended,
		"reason":     "",
		"position":   "",
		"breakpoint": nil,
	}

	if susp := s.Suspension; susp != nil {
		env["reason"] = string(susp.Reason)
		env["position"] = string(susp.Position)
		if bp := susp.Breakpoint; bp != nil {
			env["breakpoint"] = map[string]any{
				"id":          bp.ID,
				"operation":   bp.Operation,
				"pre_cursor":  bp.PreCursor,
				"post_cursor": bp.PostCursor,
				"hits":        bp.HitCount,
			}
		}
	}

	return env
}

// Eval evaluates expression against the snapshot.
func (i *Inspector) Eval(expression string, s Snapshot) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}

	program, err := i.compile(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}

	result, err := expr.Run(program, i.Env(s))
	if err != nil {
		return nil, fmt.Errorf("expression evaluation failed: %w", err)
	}
	return result, nil
}

// compile compiles an expression and caches the result.
func (i *Inspector) compile(expression string) (*vm.Program, error) {
	i.mu.RLock()
	if prog, ok := i.cache[expression]; ok {
		i.mu.RUnlock()
		return prog, nil
	}
	i.mu.RUnlock()

	prog, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	i.cache[expression] = prog
	i.mu.Unlock()

	return prog, nil
}

// CacheSize returns the number of cached expressions.
func (i *Inspector) CacheSize() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.cache)
}

// Format formats a value for display.
func (i *Inspector) Format(value any) (string, error) {
	if s, ok := value.(string); ok {
		return fmt.Sprintf("%q", s), nil
	}
	bytes, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format value: %w", err)
	}
	return string(bytes), nil
}
