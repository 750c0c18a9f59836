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

package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tombee/parsedbg/internal/commands/shared"
	"github.com/tombee/parsedbg/internal/debug"
)

// excerptWidth is how many characters of context are shown on each side
// of the cursor.
const excerptWidth = 16

// Stop is one suspension seen by the auto-resumer.
type Stop struct {
	Reason       debug.Reason   `json:"reason"`
	Position     debug.Position `json:"position"`
	Operation    string         `json:"operation,omitempty"`
	Cursor       int            `json:"cursor"`
	Depth        int            `json:"depth"`
	BreakpointID int            `json:"breakpoint_id,omitempty"`
	Stack        []string       `json:"stack"`
	Match        *debug.Match   `json:"match,omitempty"`
	Before       string         `json:"before"`
	After        string         `json:"after"`
	Resume       string         `json:"resume,omitempty"`
}

func newStop(snap debug.Snapshot) Stop {
	stop := Stop{
		Operation: snap.Operation,
		Cursor:    snap.Cursor,
		Depth:     snap.Depth(),
		Stack:     snap.Operations(),
		Before:    tail(snap.Before(), excerptWidth),
		After:     head(snap.After(), excerptWidth),
	}
	if s := snap.Suspension; s != nil {
		stop.Reason = s.Reason
		stop.Position = s.Position
		stop.Match = s.Match
		if s.Breakpoint != nil {
			stop.BreakpointID = s.Breakpoint.ID
		}
	}
	return stop
}

// String renders the stop as one line of text.
func (s Stop) String() string {
	var b strings.Builder
	switch s.Reason {
	case debug.ReasonBreakpoint:
		fmt.Fprintf(&b, "breakpoint #%d", s.BreakpointID)
	default:
		b.WriteString(string(s.Reason))
	}
	if s.Operation != "" && s.Position != debug.PositionEntry {
		fmt.Fprintf(&b, " at %s [%s]", s.Operation, s.Position)
	}
	fmt.Fprintf(&b, " offset %d depth %d", s.Cursor, s.Depth)
	if s.Position == debug.PositionExit {
		if s.Match != nil {
			fmt.Fprintf(&b, " matched %d..%d", s.Match.Start, s.Match.End)
		} else {
			b.WriteString(" failed")
		}
	}
	b.WriteString(": ")
	b.WriteString(shared.RenderLabel(fmt.Sprintf("%q|%q", s.Before, s.After)))
	return b.String()
}

// autoResumer consumes controller events without a human: every
// suspension is recorded, optionally printed, and resumed.
type autoResumer struct {
	ctrl  *debug.Controller
	out   io.Writer
	quiet bool

	sessionID string
	stops     []Stop
}

func newAutoResumer(ctrl *debug.Controller, out io.Writer, quiet bool) *autoResumer {
	return &autoResumer{ctrl: ctrl, out: out, quiet: quiet}
}

// Run drains events until the controller closes its event channel.
func (a *autoResumer) Run(_ context.Context) error {
	for event := range a.ctrl.Events() {
		switch event.Type {
		case debug.EventSessionStarted:
			a.sessionID = event.SessionID

		case debug.EventPaused:
			stop := newStop(event.Snapshot)
			a.stops = append(a.stops, stop)
			if !a.quiet {
				fmt.Fprintln(a.out, "⏸ "+stop.String())
			}
			// Resume only the suspension this event describes; if the parser
			// already moved on, its next pause is still to come.
			err := a.ctrl.Execute(debug.Command{Type: debug.CommandContinue, Seq: event.Snapshot.SuspensionSeq()})
			var (
				stateErr *debug.InvalidStateError
				staleErr *debug.StaleCommandError
			)
			if err != nil && !errors.As(err, &stateErr) && !errors.As(err, &staleErr) {
				return err
			}

		case debug.EventResumed:
			if n := len(a.stops); n > 0 && a.stops[n-1].Resume == "" {
				a.stops[n-1].Resume = string(event.Resume)
			}
			if !a.quiet && event.Resume != debug.ResumeCommand {
				fmt.Fprintln(a.out, shared.RenderWarn(fmt.Sprintf("resumed (%s)", event.Resume)))
			}
		}
	}
	return nil
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n:])
}
