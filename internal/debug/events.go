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

// Mode is the step-control state of a Controller.
type Mode int

const (
	// ModeRunning lets the parser run until a breakpoint matches.
	ModeRunning Mode = iota
	// ModeStepInto suspends at the next attempt at any depth.
	ModeStepInto
	// ModeStepOver suspends when the target frame completes.
	ModeStepOver
	// ModeStepOut suspends when the parent of the target frame completes.
	ModeStepOut
	// ModeSuspended means the parser goroutine is blocked.
	ModeSuspended
)

// String returns the string form of the mode.
func (m Mode) String() string {
	switch m {
	case ModeRunning:
		return "running"
	case ModeStepInto:
		return "step_into"
	case ModeStepOver:
		return "step_over"
	case ModeStepOut:
		return "step_out"
	case ModeSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// MarshalText encodes the mode as its string form.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Reason explains why the parser was suspended.
type Reason string

const (
	// ReasonBreakpoint means a registered breakpoint matched.
	ReasonBreakpoint Reason = "breakpoint"
	// ReasonStep means a pending step completed.
	ReasonStep Reason = "step"
	// ReasonEntry means the session was configured to stop on entry.
	ReasonEntry Reason = "entry"
)

// Position tells which instrumentation event the parser is suspended in.
type Position string

const (
	// PositionEntry is the session Start event.
	PositionEntry Position = "entry"
	// PositionEnter is a PreAttempt event.
	PositionEnter Position = "enter"
	// PositionExit is a PostAttempt event.
	PositionExit Position = "exit"
)

// ResumeReason explains how a suspension ended.
type ResumeReason string

const (
	// ResumeCommand means a controller command released the parser.
	ResumeCommand ResumeReason = "command"
	// ResumeTimeout means the suspend timeout elapsed.
	ResumeTimeout ResumeReason = "timeout"
	// ResumeCancelled means the parser's context was cancelled.
	ResumeCancelled ResumeReason = "cancelled"
	// ResumeAborted means the controller aborted the session.
	ResumeAborted ResumeReason = "aborted"
	// ResumeSessionClosed means the session ended while suspended.
	ResumeSessionClosed ResumeReason = "session_closed"
)

// EventType represents the type of debug event.
type EventType string

const (
	// EventSessionStarted indicates a parse session began.
	EventSessionStarted EventType = "session_started"

	// EventPaused indicates the parser has been suspended.
	EventPaused EventType = "paused"

	// EventResumed indicates the parser has been released.
	EventResumed EventType = "resumed"

	// EventSessionEnded indicates the parse completed.
	EventSessionEnded EventType = "session_ended"

	// EventSessionFailed indicates the parse failed.
	EventSessionFailed EventType = "session_failed"

	// EventProtocolViolation indicates the parser broke the nesting
	// contract and the session was torn down.
	EventProtocolViolation EventType = "protocol_violation"
)

// mustDeliver reports whether a front end has to see the event to keep the
// parser moving.
func (t EventType) mustDeliver() bool {
	switch t {
	case EventPaused, EventSessionEnded, EventSessionFailed, EventProtocolViolation:
		return true
	}
	return false
}

// Event represents a debug event emitted by the Controller.
type Event struct {
	// Type is the type of event.
	Type EventType

	// SessionID identifies the parse session.
	SessionID string

	// Snapshot is the controller state when the event was emitted.
	Snapshot Snapshot

	// Resume is set on EventResumed.
	Resume ResumeReason

	// Err is set on EventSessionFailed and EventProtocolViolation.
	Err error

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Message is an optional human-readable message.
	Message string
}

// CommandType represents the type of debug command.
type CommandType string

const (
	// CommandContinue resumes until the next breakpoint or completion.
	CommandContinue CommandType = "continue"

	// CommandStepInto suspends at the next attempt at any depth.
	CommandStepInto CommandType = "step"

	// CommandStepOver suspends when the current attempt completes.
	CommandStepOver CommandType = "next"

	// CommandStepOut suspends when the enclosing attempt completes.
	CommandStepOut CommandType = "out"

	// CommandAbort releases the parser and disables further suspensions.
	CommandAbort CommandType = "abort"
)

// Command represents a debug command issued by the user.
type Command struct {
	// Type is the type of command.
	Type CommandType

	// Seq, when non-zero, is the suspension the command is meant for
	// (Suspension.Seq). Zero applies to whatever suspension is current.
	Seq uint64

	// Args are optional arguments for the command.
	Args []string
}
