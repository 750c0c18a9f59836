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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Shell-only commands. They inspect or edit state and never release the
// parser.
const (
	commandStack   CommandType = "stack"
	commandWhere   CommandType = "where"
	commandBreak   CommandType = "break"
	commandDelete  CommandType = "delete"
	commandEnable  CommandType = "enable"
	commandDisable CommandType = "disable"
	commandList    CommandType = "list"
	commandOps     CommandType = "ops"
	commandEval    CommandType = "eval"
	commandHelp    CommandType = "help"
)

var errHelpShown = errors.New("help displayed")

// shellStyles renders shell output. Plain when not writing to a terminal.
type shellStyles struct {
	header  lipgloss.Style
	label   lipgloss.Style
	current lipgloss.Style
	errText lipgloss.Style
	plain   bool
}

func (st shellStyles) render(style lipgloss.Style, s string) string {
	if st.plain {
		return s
	}
	return style.Render(s)
}

func newShellStyles(w io.Writer) shellStyles {
	plain := true
	if f, ok := w.(*os.File); ok {
		plain = !term.IsTerminal(int(f.Fd()))
	}
	return shellStyles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		current: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		errText: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		plain:   plain,
	}
}

// Shell provides an interactive debugging interface over a Controller.
type Shell struct {
	controller *Controller
	inspector  *Inspector
	input      *bufio.Scanner
	output     io.Writer
	styles     shellStyles
}

// NewShell creates a new debug shell reading commands from in and writing
// to out. Nil streams default to stdin and stdout.
func NewShell(controller *Controller, in io.Reader, out io.Writer) *Shell {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Shell{
		controller: controller,
		inspector:  NewInspector(),
		input:      bufio.NewScanner(in),
		output:     out,
		styles:     newShellStyles(out),
	}
}

// Run consumes controller events until the session closes, prompting for
// commands whenever the parser is suspended.
func (s *Shell) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-sigCh:
			fmt.Fprintln(s.output, "\nInterrupt received, aborting session.")
			if err := s.controller.Abort(); err != nil {
				fmt.Fprintf(s.output, "Error: %v\n", err)
			}

		case event, ok := <-s.controller.Events():
			if !ok {
				return nil
			}
			done, err := s.handleEvent(ctx, event)
			if err != nil || done {
				return err
			}
		}
	}
}

// handleEvent processes a debug event. It reports done once the session
// has closed.
func (s *Shell) handleEvent(ctx context.Context, event *Event) (bool, error) {
	switch event.Type {
	case EventSessionStarted:
		fmt.Fprintf(s.output, "→ Session %s (%d bytes)\n", event.SessionID, len(event.Snapshot.Text))

	case EventPaused:
		return false, s.promptForCommand(ctx, event)

	case EventResumed:
		if event.Resume != ResumeCommand {
			fmt.Fprintf(s.output, "Resumed (%s)\n", event.Resume)
		}

	case EventSessionEnded:
		fmt.Fprintln(s.output, "✓ Parse completed")
		return true, nil

	case EventSessionFailed:
		if event.Err != nil {
			fmt.Fprintf(s.output, "✗ Parse failed: %v\n", event.Err)
		} else {
			fmt.Fprintln(s.output, "✗ Parse failed")
		}
		return true, nil

	case EventProtocolViolation:
		fmt.Fprintln(s.output, s.styles.render(s.styles.errText, fmt.Sprintf("✗ Session torn down: %v", event.Err)))
		return true, nil
	}

	return false, nil
}

// promptForCommand shows the suspension and reads commands until one
// releases the parser.
func (s *Shell) promptForCommand(ctx context.Context, event *Event) error {
	seq := event.Snapshot.SuspensionSeq()
	if current := s.controller.Snapshot(); current.SuspensionSeq() != seq {
		// The parser moved on while the event sat in the channel; a later
		// pause event describes where it is now.
		fmt.Fprintln(s.output, s.styles.render(s.styles.label,
			fmt.Sprintf("(suspension at %s already resumed)", event.Snapshot.Operation)))
		return nil
	}
	s.displaySuspension(event.Snapshot)

	for {
		fmt.Fprint(s.output, "debug> ")

		if !s.input.Scan() {
			if err := s.input.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			// EOF - treat as abort
			fmt.Fprintln(s.output)
			return ignoreInvalidState(s.controller.Abort())
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(s.input.Text())
		if line == "" {
			continue
		}

		cmd, err := s.parseCommand(line)
		if err != nil {
			if !errors.Is(err, errHelpShown) {
				fmt.Fprintf(s.output, "Error: %v\n", err)
			}
			continue
		}

		switch cmd.Type {
		case CommandContinue, CommandStepInto, CommandStepOver, CommandStepOut, CommandAbort:
			cmd.Seq = seq
			err := s.controller.Execute(*cmd)
			var (
				stateErr *InvalidStateError
				staleErr *StaleCommandError
			)
			if errors.As(err, &stateErr) || errors.As(err, &staleErr) {
				// The suspension ended without us (timeout or cancellation).
				fmt.Fprintf(s.output, "Error: %v\n", err)
				return nil
			}
			return err
		default:
			s.runLocal(cmd)
		}
	}
}

// parseCommand parses a command line into a Command.
func (s *Shell) parseCommand(line string) (*Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	cmdStr := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmdStr {
	case "c", "continue":
		return &Command{Type: CommandContinue}, nil

	case "s", "step":
		return &Command{Type: CommandStepInto}, nil

	case "n", "next":
		return &Command{Type: CommandStepOver}, nil

	case "o", "out":
		return &Command{Type: CommandStepOut}, nil

	case "a", "abort":
		return &Command{Type: CommandAbort}, nil

	case "bt", "stack":
		return &Command{Type: commandStack}, nil

	case "w", "where":
		return &Command{Type: commandWhere}, nil

	case "b", "break":
		if len(args) == 0 {
			return nil, fmt.Errorf("break requires an operation or key=value fields")
		}
		return &Command{Type: commandBreak, Args: args}, nil

	case "d", "delete", "enable", "disable":
		if len(args) != 1 {
			return nil, fmt.Errorf("%s requires a breakpoint ID", cmdStr)
		}
		t := commandDelete
		switch cmdStr {
		case "enable":
			t = commandEnable
		case "disable":
			t = commandDisable
		}
		return &Command{Type: t, Args: args}, nil

	case "l", "list":
		return &Command{Type: commandList}, nil

	case "ops":
		return &Command{Type: commandOps}, nil

	case "e", "eval":
		if len(args) == 0 {
			return nil, fmt.Errorf("eval requires an expression argument")
		}
		// Expressions may contain spaces; keep the raw remainder.
		rest := strings.TrimSpace(line[len(parts[0]):])
		return &Command{Type: commandEval, Args: []string{rest}}, nil

	case "h", "help", "?":
		s.showHelp()
		return nil, errHelpShown

	default:
		return nil, fmt.Errorf("unknown command: %s (type 'help' for commands)", cmdStr)
	}
}

// runLocal executes a command that does not release the parser.
func (s *Shell) runLocal(cmd *Command) {
	switch cmd.Type {
	case commandStack:
		s.displayStack(s.controller.Snapshot())

	case commandWhere:
		s.displayCursor(s.controller.Snapshot())

	case commandBreak:
		def, err := ParseDefinition(strings.Join(cmd.Args, " "))
		if err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
			return
		}
		bp, err := s.controller.AddBreakpoint(def)
		if err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(s.output, "Breakpoint #%d: %s\n", bp.ID, def)

	case commandDelete, commandEnable, commandDisable:
		id, err := strconv.Atoi(cmd.Args[0])
		if err != nil {
			fmt.Fprintf(s.output, "Error: invalid breakpoint ID %q\n", cmd.Args[0])
			return
		}
		switch cmd.Type {
		case commandDelete:
			err = s.controller.RemoveBreakpoint(id)
		case commandEnable:
			err = s.controller.SetBreakpointEnabled(id, true)
		default:
			err = s.controller.SetBreakpointEnabled(id, false)
		}
		if err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(s.output, "Breakpoint #%d %sd\n", id, cmd.Type)

	case commandList:
		s.displayBreakpoints()

	case commandOps:
		names := s.controller.Catalog().Names()
		if len(names) == 0 {
			fmt.Fprintln(s.output, "No operation catalog")
			return
		}
		fmt.Fprintln(s.output, strings.Join(names, " "))

	case commandEval:
		s.handleEval(cmd.Args[0])
	}
}

// displaySuspension shows where the parser is suspended.
func (s *Shell) displaySuspension(snap Snapshot) {
	fmt.Fprintln(s.output, "\n═══════════════════════════════════════════════════════════")

	title := "Suspended"
	if susp := snap.Suspension; susp != nil {
		switch {
		case susp.Breakpoint != nil:
			title = fmt.Sprintf("Breakpoint #%d at %s [%s]", susp.Breakpoint.ID, snap.Operation, susp.Position)
		case susp.Frame != nil:
			title = fmt.Sprintf("Step at %s [%s]", susp.Frame.Operation, susp.Position)
			if susp.Position == PositionExit {
				title += matchSummary(susp.Match)
			}
		default:
			title = "Suspended on entry"
		}
	}
	fmt.Fprintln(s.output, s.styles.render(s.styles.header, title))
	fmt.Fprintln(s.output, "───────────────────────────────────────────────────────────")
	s.displayCursor(snap)
	s.displayStack(snap)
	fmt.Fprintln(s.output, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(s.output, "Commands: continue, step, next, out, abort, stack, break, list, eval <expr>, help")
	fmt.Fprintln(s.output)
}

func matchSummary(m *Match) string {
	if m == nil {
		return " no match"
	}
	return fmt.Sprintf(" matched %d..%d", m.Start, m.End)
}

// displayCursor prints the input with a caret under the cursor.
func (s *Shell) displayCursor(snap Snapshot) {
	before, after := snap.Before(), snap.After()
	fmt.Fprintf(s.output, "%s %d  %s %d\n",
		s.styles.render(s.styles.label, "cursor"), snap.Cursor,
		s.styles.render(s.styles.label, "depth"), snap.Depth())
	fmt.Fprintf(s.output, "  %q | %q\n", before, after)
}

// displayStack prints the call stack, innermost last.
func (s *Shell) displayStack(snap Snapshot) {
	if len(snap.Stack) == 0 {
		fmt.Fprintln(s.output, "Stack: (empty)")
		return
	}
	fmt.Fprintln(s.output, "Stack:")
	for i, f := range snap.Stack {
		line := fmt.Sprintf("  #%d %s@%d", f.Depth, f.Operation, f.Start)
		if i == len(snap.Stack)-1 {
			line = s.styles.render(s.styles.current, "> "+line[2:])
		}
		fmt.Fprintln(s.output, line)
	}
}

// displayBreakpoints lists the registered breakpoints.
func (s *Shell) displayBreakpoints() {
	bps := s.controller.Breakpoints()
	if len(bps) == 0 {
		fmt.Fprintln(s.output, "No breakpoints")
		return
	}
	for _, bp := range bps {
		state := "on "
		if !bp.Enabled {
			state = "off"
		}
		fmt.Fprintf(s.output, "  #%d [%s] %s hits=%d\n", bp.ID, state, bp.Definition(), bp.HitCount)
	}
}

// handleEval evaluates an expression against the current state.
func (s *Shell) handleEval(expression string) {
	value, err := s.inspector.Eval(expression, s.controller.Snapshot())
	if err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
		return
	}
	out, err := s.inspector.Format(value)
	if err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.output, "%s = %s\n", expression, out)
}

// showHelp displays available commands.
func (s *Shell) showHelp() {
	help := `
Debug Commands:
  continue, c            Resume until the next breakpoint or completion
  step, s                Stop at the next attempt, at any depth
  next, n                Stop when the current attempt completes
  out, o                 Stop when the enclosing attempt completes
  abort, a               Release the parser and ignore further breakpoints
  stack, bt              Show the call stack
  where, w               Show the cursor position
  break, b <spec>        Add a breakpoint: [op] [pre=<re>] [post=<re>]
  delete, d <id>         Remove a breakpoint
  enable/disable <id>    Toggle a breakpoint
  list, l                List breakpoints
  ops                    List known operations
  eval, e <expr>         Evaluate an expression (text, cursor, before, after, op, depth, stack)
  help, h, ?             Show this help message

Press Ctrl+C to abort the session
`
	fmt.Fprintln(s.output, help)
}

func ignoreInvalidState(err error) error {
	var stateErr *InvalidStateError
	if errors.As(err, &stateErr) {
		return nil
	}
	return err
}
