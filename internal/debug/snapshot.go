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
	"time"
)

// Suspension describes why and where the parser is suspended.
type Suspension struct {
	// Seq numbers the suspensions of a controller, starting at 1.
	Seq uint64 `json:"seq"`

	// Reason is why the parser was suspended.
	Reason Reason `json:"reason"`

	// Position is the instrumentation event the parser is blocked in.
	Position Position `json:"position"`

	// Breakpoint is the breakpoint that fired, for ReasonBreakpoint.
	Breakpoint *Breakpoint `json:"breakpoint,omitempty"`

	// Frame is the frame active when the parser was suspended. It is nil
	// when suspended on session entry.
	Frame *Frame `json:"frame,omitempty"`

	// Match is the result of the attempt, for PositionExit. Nil means the
	// attempt failed.
	Match *Match `json:"match,omitempty"`

	// Since is when the suspension began.
	Since time.Time `json:"since"`
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	SessionID string `json:"session_id"`

	// Text is the input of the current session.
	Text string `json:"text"`

	// Cursor is the index of the most recent event.
	Cursor int `json:"cursor"`

	// Operation is the operation of the most recent attempt event.
	Operation string `json:"operation"`

	// Stack is the call stack, root first.
	Stack []Frame `json:"stack"`

	Mode      Mode `json:"mode"`
	Suspended bool `json:"suspended"`

	// Suspension is set while the parser is suspended.
	Suspension *Suspension `json:"suspension,omitempty"`

	// LastResume is how the most recent suspension ended.
	LastResume ResumeReason `json:"last_resume,omitempty"`

	// Active is true between Start and End/Fail.
	Active bool `json:"active"`

	// Aborted is true when suspensions are disabled for the session.
	Aborted bool `json:"aborted"`
}

// Before returns the text preceding the cursor.
func (s Snapshot) Before() string {
	return s.Text[:clampCursor(s.Text, s.Cursor)]
}

// After returns the text from the cursor to the end.
func (s Snapshot) After() string {
	return s.Text[clampCursor(s.Text, s.Cursor):]
}

// Depth returns the number of frames on the call stack.
func (s Snapshot) Depth() int {
	return len(s.Stack)
}

// Callers returns the frames below the active one, root first: the
// operations that led to the current attempt.
func (s Snapshot) Callers() []Frame {
	if len(s.Stack) == 0 {
		return nil
	}
	return s.Stack[:len(s.Stack)-1 : len(s.Stack)-1]
}

// SuspensionSeq returns the sequence number of the current suspension, or
// zero when the parser is not suspended.
func (s Snapshot) SuspensionSeq() uint64 {
	if s.Suspension == nil {
		return 0
	}
	return s.Suspension.Seq
}

// Operations returns the operation names on the stack, root first.
func (s Snapshot) Operations() []string {
	ops := make([]string, len(s.Stack))
	for i, f := range s.Stack {
		ops[i] = f.Operation
	}
	return ops
}
