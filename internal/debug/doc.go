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

// Package debug provides an instrumentation layer for recursive-descent
// parsers that lets a controller suspend, inspect and step the parse.
//
// # Instrumentation
//
// A parser reports its progress through the Instrumentation interface:
// Start once, a properly nested PreAttempt/PostAttempt pair for every
// operation attempt, then End or Fail. The Controller implements the
// interface and may block the parser goroutine inside any of these calls.
//
// # Breakpoints
//
// A Breakpoint pauses the parser when its patterns fully match the text
// before and after the cursor and its operation filter accepts the
// attempted operation. The Registry evaluates breakpoints in insertion
// order and reports the first enabled match.
//
// # Stepping
//
// While suspended, a controller goroutine may Resume, StepInto, StepOver or
// StepOut. Steps are defined over the CallStack using frame identity, so
// sibling attempts of the same operation are never confused. When a
// breakpoint and a step land on the same attempt, the breakpoint is
// reported.
//
// # Example Usage
//
//	ctrl, err := debug.NewController(debug.New(defs), logger)
//	if err != nil {
//		return err
//	}
//	defer ctrl.Close()
//
//	go func() {
//		shell := debug.NewShell(ctrl, os.Stdin, os.Stdout)
//		shell.Run(ctx)
//	}()
//
//	err = parser.Parse(ctx, text, ctrl)
package debug
