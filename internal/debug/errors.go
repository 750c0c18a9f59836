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
	"fmt"
)

// ErrSessionClosed is returned by WaitSuspended when the parse session that
// was active when the wait began ends before the parser suspends.
var ErrSessionClosed = errors.New("debug: parse session closed")

// InvalidPatternError is returned when a breakpoint pattern does not compile.
// Patterns are compiled when the breakpoint is created, never at match time.
type InvalidPatternError struct {
	// Field is the definition field holding the pattern ("pre_cursor" or "post_cursor").
	Field string

	// Pattern is the offending regular expression text.
	Pattern string

	// Cause is the error reported by the regexp compiler.
	Cause error
}

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Field, e.Pattern, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *InvalidPatternError) Unwrap() error {
	return e.Cause
}

// ErrorType returns the error category.
func (e *InvalidPatternError) ErrorType() string {
	return "invalid_pattern"
}

// ProtocolViolationError reports an instrumentation event that broke the
// nesting contract, such as a PostAttempt that does not close the most
// recent PreAttempt. It is fatal for the current session.
type ProtocolViolationError struct {
	// Expected is the frame on top of the stack, nil if the stack was empty.
	Expected *Frame

	// Operation and Start describe the PostAttempt that was received.
	Operation string
	Start     int
}

// Error implements the error interface.
func (e *ProtocolViolationError) Error() string {
	if e.Expected == nil {
		return fmt.Sprintf("instrumentation protocol violation: post-attempt %s@%d with empty call stack",
			e.Operation, e.Start)
	}
	return fmt.Sprintf("instrumentation protocol violation: post-attempt %s@%d does not match top frame %s@%d",
		e.Operation, e.Start, e.Expected.Operation, e.Expected.Start)
}

// ErrorType returns the error category.
func (e *ProtocolViolationError) ErrorType() string {
	return "protocol_violation"
}

// InvalidStateError is returned when a controller command is issued while
// the parser is not suspended. The parser state is left untouched.
type InvalidStateError struct {
	// Command is the command that was rejected.
	Command CommandType

	// Mode is the controller mode at the time of the command.
	Mode Mode
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: controller is %s, not suspended", e.Command, e.Mode)
}

// ErrorType returns the error category.
func (e *InvalidStateError) ErrorType() string {
	return "invalid_state"
}

// StaleCommandError is returned when a command names a suspension that
// has already ended. The parser state is left untouched.
type StaleCommandError struct {
	// Command is the command that was rejected.
	Command CommandType

	// Seq is the suspension the command was meant for.
	Seq uint64

	// Current is the suspension the parser is blocked in now.
	Current uint64
}

// Error implements the error interface.
func (e *StaleCommandError) Error() string {
	return fmt.Sprintf("cannot %s: suspension %d already ended (now at %d)", e.Command, e.Seq, e.Current)
}

// ErrorType returns the error category.
func (e *StaleCommandError) ErrorType() string {
	return "stale_command"
}

// NotFoundError is returned when a breakpoint ID is not registered.
type NotFoundError struct {
	ID int
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("breakpoint not found: %d", e.ID)
}

// ErrorType returns the error category.
func (e *NotFoundError) ErrorType() string {
	return "not_found"
}

// UnknownOperationError is returned when breakpoint operation filters name
// operations the parser does not have.
type UnknownOperationError struct {
	Operations []string
}

// Error implements the error interface.
func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown breakpoint operations: %v", e.Operations)
}

// ErrorType returns the error category.
func (e *UnknownOperationError) ErrorType() string {
	return "unknown_operation"
}
