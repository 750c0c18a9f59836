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
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	internallog "github.com/tombee/parsedbg/internal/log"
)

const tracerName = "github.com/tombee/parsedbg/internal/debug"

// Controller observes a parser through the Instrumentation events and
// suspends the parser goroutine at breakpoints and step targets. Commands
// and queries may be issued from any other goroutine.
//
// A single mutex guards the mode, step target, call stack and suspension.
// The parser goroutine blocks on a condition variable tied to that mutex,
// so a command that changes the mode and the wakeup it sends are atomic.
type Controller struct {
	config   *Config
	logger   *slog.Logger
	registry *Registry
	catalog  *OperationCatalog
	tracer   trace.Tracer

	mu   sync.Mutex
	cond *sync.Cond

	stack      CallStack
	mode       Mode
	target     stepTarget
	suspension *Suspension

	// seq numbers suspensions so a stale timer cannot release a later one.
	seq          uint64
	resumeReason ResumeReason
	lastResume   ResumeReason

	sessionID string
	// sessionGen increments every time a session closes.
	sessionGen uint64
	active     bool
	aborted    bool
	span       trace.Span

	text   string
	cursor int
	op     string

	events chan *Event
	closed bool
}

// stepTarget is the frame a pending step-over or step-out waits on. A zero
// frameID means no live frame: the step completes at the next event at or
// above depth.
type stepTarget struct {
	frameID int64
	depth   int
}

// Option configures a Controller.
type Option func(*Controller)

// WithCatalog sets the operation catalog used to validate breakpoints.
func WithCatalog(catalog *OperationCatalog) Option {
	return func(c *Controller) {
		c.catalog = catalog
	}
}

// WithTracer sets the tracer used for session spans. The global otel
// tracer provider is used by default.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Controller) {
		c.tracer = tracer
	}
}

// NewController creates a controller with the given configuration.
func NewController(config *Config, logger *slog.Logger, opts ...Option) (*Controller, error) {
	if config == nil {
		config = New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		config: config,
		logger: internallog.WithComponent(logger, "debug"),
		span:   trace.SpanFromContext(context.Background()),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registry = NewRegistry()
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	c.cond = sync.NewCond(&c.mu)

	if err := config.Validate(c.catalog); err != nil {
		return nil, fmt.Errorf("invalid debug configuration: %w", err)
	}
	for _, def := range config.Breakpoints {
		if _, err := c.registry.Add(def); err != nil {
			return nil, err
		}
	}

	buffer := config.EventBuffer
	if buffer == 0 {
		buffer = DefaultEventBuffer
	}
	c.events = make(chan *Event, buffer)

	return c, nil
}

// Events returns the channel of debug events. Events are dropped when the
// channel is full.
func (c *Controller) Events() <-chan *Event {
	return c.events
}

// Catalog returns the operation catalog, which may be nil.
func (c *Controller) Catalog() *OperationCatalog {
	return c.catalog
}

// Start begins a new parse session.
func (c *Controller) Start(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		c.logger.Warn("Starting a session while another is active; closing it",
			slog.String(internallog.SessionIDKey, c.sessionID))
		c.closeSessionLocked(EventSessionEnded, "superseded", nil)
	}

	c.stack.Reset()
	c.mode = ModeRunning
	c.target = stepTarget{}
	c.suspension = nil
	c.lastResume = ""
	c.aborted = false
	c.active = true
	c.sessionID = uuid.NewString()
	c.text = text
	c.cursor = 0
	c.op = ""

	_, c.span = c.tracer.Start(ctx, "parse.session", trace.WithAttributes(
		attribute.String("parsedbg.session_id", c.sessionID),
		attribute.Int("parsedbg.text_length", len(text)),
	))

	c.logger.Debug("Parse session started",
		slog.String(internallog.SessionIDKey, c.sessionID),
		slog.Int("text_length", len(text)))
	c.emitLocked(EventSessionStarted, "Parse session started")

	if c.config.StopOnEntry {
		return c.suspendLocked(ctx, ReasonEntry, PositionEntry, nil, nil, nil)
	}
	return nil
}

// PreAttempt records the start of an attempt of op at index and suspends
// when a breakpoint matches or a pending step lands here.
func (c *Controller) PreAttempt(ctx context.Context, text string, index int, op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame := c.stack.Push(op, index)
	c.text = text
	c.cursor = index
	c.op = op

	if c.aborted {
		return nil
	}

	// A breakpoint wins over a step that lands on the same attempt.
	if bp := c.registry.Match(text, index, op); bp != nil {
		if hit := c.registry.recordHit(bp.ID); hit != nil {
			bp = hit
		}
		return c.suspendLocked(ctx, ReasonBreakpoint, PositionEnter, bp, &frame, nil)
	}

	switch c.mode {
	case ModeStepInto:
		return c.suspendLocked(ctx, ReasonStep, PositionEnter, nil, &frame, nil)
	case ModeStepOver:
		if c.target.frameID == 0 && frame.Depth <= c.target.depth {
			return c.suspendLocked(ctx, ReasonStep, PositionEnter, nil, &frame, nil)
		}
	}
	return nil
}

// PostAttempt records the end of the attempt of op that began at start.
// A pending step-over or step-out suspends here before the frame is popped.
func (c *Controller) PostAttempt(ctx context.Context, text string, start int, op string, m *Match) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	top, ok := c.stack.Top()
	if !ok || top.Operation != op || top.Start != start {
		_, err := c.stack.Pop(op, start)
		c.violationLocked(err)
		return err
	}

	c.text = text
	c.cursor = start
	if m != nil {
		c.cursor = m.End
	}
	c.op = op

	var err error
	if !c.aborted && c.stepCompletesAt(top) {
		var match *Match
		if m != nil {
			cp := *m
			match = &cp
		}
		err = c.suspendLocked(ctx, ReasonStep, PositionExit, nil, &top, match)
	}

	if _, popErr := c.stack.Pop(op, start); popErr != nil {
		c.violationLocked(popErr)
		return popErr
	}
	return err
}

// stepCompletesAt reports whether leaving frame f completes the pending
// step-over or step-out. Leaving an ancestor of the target also counts.
func (c *Controller) stepCompletesAt(f Frame) bool {
	if c.mode != ModeStepOver && c.mode != ModeStepOut {
		return false
	}
	return f.ID == c.target.frameID || f.Depth < c.target.depth
}

// End closes a session whose parse completed.
func (c *Controller) End(ctx context.Context, text string, matches []Match) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = text
	if !c.active {
		return nil
	}
	c.closeSessionLocked(EventSessionEnded, "ended", nil)
	return nil
}

// Fail closes a session whose parse failed.
func (c *Controller) Fail(ctx context.Context, text string, matches []Match, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.text = text
	if !c.active {
		return nil
	}
	c.closeSessionLocked(EventSessionFailed, "failed", cause)
	return nil
}

// suspendLocked blocks the calling parser goroutine until a command, the
// suspend timeout, or ctx releases it. Caller holds c.mu.
func (c *Controller) suspendLocked(ctx context.Context, reason Reason, pos Position, bp *Breakpoint, frame *Frame, m *Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.seq++
	seq := c.seq
	susp := &Suspension{
		Seq:        seq,
		Reason:     reason,
		Position:   pos,
		Breakpoint: bp.clone(),
		Frame:      frame,
		Match:      m,
		Since:      time.Now(),
	}
	c.mode = ModeSuspended
	c.target = stepTarget{}
	c.suspension = susp
	c.resumeReason = ""

	attrs := []any{
		slog.String(internallog.SessionIDKey, c.sessionID),
		slog.String(internallog.ReasonKey, string(reason)),
		slog.String(internallog.OperationKey, c.op),
		slog.Int(internallog.CursorKey, c.cursor),
		slog.Int(internallog.DepthKey, c.stack.Depth()),
	}
	if bp != nil {
		attrs = append(attrs, slog.Int(internallog.BreakpointIDKey, bp.ID))
	}
	c.logger.Info("Parser suspended", attrs...)

	recordSuspend(reason)
	c.span.AddEvent("suspended", trace.WithAttributes(
		attribute.String("parsedbg.reason", string(reason)),
		attribute.String("parsedbg.operation", c.op),
		attribute.Int("parsedbg.cursor", c.cursor),
	))
	c.emitLocked(EventPaused, fmt.Sprintf("Suspended at %s (%s)", c.op, reason))
	c.cond.Broadcast()

	var timer *time.Timer
	if c.config.SuspendTimeout > 0 {
		timer = time.AfterFunc(c.config.SuspendTimeout, func() {
			c.forceResume(seq, ResumeTimeout)
		})
	}
	stop := context.AfterFunc(ctx, func() {
		c.forceResume(seq, ResumeCancelled)
	})

	for c.mode == ModeSuspended {
		c.cond.Wait()
	}

	stop()
	if timer != nil {
		timer.Stop()
	}

	why := c.resumeReason
	c.suspension = nil
	c.lastResume = why
	recordResume(why, time.Since(susp.Since).Seconds())
	c.span.AddEvent("resumed", trace.WithAttributes(
		attribute.String("parsedbg.resume", string(why)),
	))
	c.logger.Debug("Parser resumed",
		slog.String(internallog.SessionIDKey, c.sessionID),
		slog.String("resume", string(why)),
		slog.String("mode", c.mode.String()))

	ev := c.newEventLocked(EventResumed, fmt.Sprintf("Resumed (%s)", why))
	ev.Resume = why
	c.sendLocked(ev)

	if why == ResumeCancelled {
		return ctx.Err()
	}
	return nil
}

// forceResume releases suspension seq if it is still the current one.
func (c *Controller) forceResume(seq uint64, why ResumeReason) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeSuspended || c.seq != seq {
		return
	}
	if why == ResumeTimeout {
		c.logger.Warn("Suspend timeout elapsed, resuming parser",
			slog.String(internallog.SessionIDKey, c.sessionID),
			slog.Duration("timeout", c.config.SuspendTimeout))
	}
	c.releaseLocked(ModeRunning, why)
}

// releaseLocked sets the next mode and wakes the parser. Caller holds c.mu.
func (c *Controller) releaseLocked(mode Mode, why ResumeReason) {
	c.mode = mode
	c.resumeReason = why
	c.cond.Broadcast()
}

// violationLocked tears the session down after a nesting violation.
func (c *Controller) violationLocked(err error) {
	c.stack.Reset()
	if !c.active {
		c.logger.Debug("Ignoring event after session teardown", slog.Any("error", err))
		return
	}
	c.logger.Error("Instrumentation protocol violation; tearing down session",
		slog.String(internallog.SessionIDKey, c.sessionID),
		slog.Any("error", err))
	c.aborted = true
	c.closeSessionLocked(EventProtocolViolation, "violation", err)
}

// closeSessionLocked clears suspension state, discards any step target and
// releases every waiter. Caller holds c.mu.
func (c *Controller) closeSessionLocked(evType EventType, outcome string, err error) {
	if c.mode == ModeSuspended {
		c.releaseLocked(ModeRunning, ResumeSessionClosed)
	}
	c.mode = ModeRunning
	c.target = stepTarget{}
	c.active = false
	c.sessionGen++
	c.cond.Broadcast()

	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	}
	c.span.SetAttributes(attribute.String("parsedbg.outcome", outcome))
	c.span.End()

	recordSession(outcome)
	c.logger.Debug("Parse session closed",
		slog.String(internallog.SessionIDKey, c.sessionID),
		slog.String("outcome", outcome))

	ev := c.newEventLocked(evType, fmt.Sprintf("Parse session %s", outcome))
	ev.Err = err
	c.sendLocked(ev)
}

// Resume releases the parser until the next breakpoint.
func (c *Controller) Resume() error {
	return c.Execute(Command{Type: CommandContinue})
}

// StepInto releases the parser until the next attempt at any depth.
func (c *Controller) StepInto() error {
	return c.Execute(Command{Type: CommandStepInto})
}

// StepOver releases the parser until the current attempt completes.
func (c *Controller) StepOver() error {
	return c.Execute(Command{Type: CommandStepOver})
}

// StepOut releases the parser until the enclosing attempt completes. At the
// root it behaves like Resume.
func (c *Controller) StepOut() error {
	return c.Execute(Command{Type: CommandStepOut})
}

// Abort releases the parser and disables further suspensions for the rest
// of the session. The parse itself runs to completion or failure.
func (c *Controller) Abort() error {
	return c.Execute(Command{Type: CommandAbort})
}

// Execute applies a command. Commands other than abort are only valid
// while the parser is suspended; otherwise an *InvalidStateError is
// returned and nothing changes. A command with a non-zero Seq only applies
// to that suspension; aimed at any other it fails with a
// *StaleCommandError.
func (c *Controller) Execute(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cmd.Type == CommandAbort && c.active && c.mode != ModeSuspended {
		c.logger.Info("Aborting session", slog.String(internallog.SessionIDKey, c.sessionID))
		c.aborted = true
		c.mode = ModeRunning
		c.target = stepTarget{}
		return nil
	}

	if c.mode != ModeSuspended {
		return &InvalidStateError{Command: cmd.Type, Mode: c.mode}
	}

	s := c.suspension
	if cmd.Seq != 0 && cmd.Type != CommandAbort && cmd.Seq != s.Seq {
		return &StaleCommandError{Command: cmd.Type, Seq: cmd.Seq, Current: s.Seq}
	}

	switch cmd.Type {
	case CommandContinue:
		c.releaseLocked(ModeRunning, ResumeCommand)

	case CommandStepInto:
		c.releaseLocked(ModeStepInto, ResumeCommand)

	case CommandStepOver:
		switch {
		case s.Frame == nil:
			c.releaseLocked(ModeStepInto, ResumeCommand)
		case s.Position == PositionExit:
			c.target = stepTarget{depth: s.Frame.Depth}
			c.releaseLocked(ModeStepOver, ResumeCommand)
		default:
			c.target = stepTarget{frameID: s.Frame.ID, depth: s.Frame.Depth}
			c.releaseLocked(ModeStepOver, ResumeCommand)
		}

	case CommandStepOut:
		parent, ok := c.stack.Parent()
		if s.Frame == nil || !ok {
			c.releaseLocked(ModeRunning, ResumeCommand)
			break
		}
		c.target = stepTarget{frameID: parent.ID, depth: parent.Depth}
		c.releaseLocked(ModeStepOut, ResumeCommand)

	case CommandAbort:
		c.logger.Info("Aborting session", slog.String(internallog.SessionIDKey, c.sessionID))
		c.aborted = true
		c.releaseLocked(ModeRunning, ResumeAborted)

	default:
		return fmt.Errorf("unknown command: %s", cmd.Type)
	}

	c.logger.Debug("Command accepted", slog.String("command", string(cmd.Type)))
	return nil
}

// WaitSuspended blocks until the parser is suspended and returns the state
// at that moment. It returns ErrSessionClosed if the active session closes
// first, or straight away when the last session has already closed or the
// controller is closed. Before the first session it waits for one.
func (c *Controller) WaitSuspended(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeSuspended && (c.closed || (!c.active && c.sessionGen > 0)) {
		return c.snapshotLocked(), ErrSessionClosed
	}

	gen := c.sessionGen
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer stop()

	for {
		if c.mode == ModeSuspended {
			return c.snapshotLocked(), nil
		}
		if c.sessionGen != gen || c.closed {
			return c.snapshotLocked(), ErrSessionClosed
		}
		if err := ctx.Err(); err != nil {
			return c.snapshotLocked(), err
		}
		c.cond.Wait()
	}
}

// Snapshot returns a consistent copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:  c.sessionID,
		Text:       c.text,
		Cursor:     c.cursor,
		Operation:  c.op,
		Stack:      c.stack.Frames(),
		Mode:       c.mode,
		Suspended:  c.mode == ModeSuspended,
		LastResume: c.lastResume,
		Active:     c.active,
		Aborted:    c.aborted,
	}
	if s := c.suspension; s != nil {
		cp := *s
		cp.Breakpoint = s.Breakpoint.clone()
		snap.Suspension = &cp
	}
	return snap
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Suspended reports whether the parser is currently suspended.
func (c *Controller) Suspended() bool {
	return c.Mode() == ModeSuspended
}

// Stack returns a copy of the call stack, root first.
func (c *Controller) Stack() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stack.Frames()
}

// LastResume returns how the most recent suspension ended.
func (c *Controller) LastResume() ResumeReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResume
}

// AddBreakpoint compiles and registers a breakpoint.
func (c *Controller) AddBreakpoint(def Definition) (*Breakpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.catalog.Validate([]Definition{def}); err != nil {
		return nil, err
	}
	bp, err := c.registry.Add(def)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Breakpoint added",
		slog.Int(internallog.BreakpointIDKey, bp.ID),
		slog.String("definition", def.String()))
	return bp, nil
}

// RemoveBreakpoint removes a breakpoint by ID.
func (c *Controller) RemoveBreakpoint(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Remove(id)
}

// SetBreakpointEnabled enables or disables a breakpoint by ID.
func (c *Controller) SetBreakpointEnabled(id int, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.SetEnabled(id, enabled)
}

// Breakpoints returns the registered breakpoints in insertion order.
func (c *Controller) Breakpoints() []Breakpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.List()
}

// ReplaceBreakpoints swaps all breakpoints for defs, or none on error.
func (c *Controller) ReplaceBreakpoints(defs []Definition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.catalog.Validate(defs); err != nil {
		return err
	}
	if err := c.registry.Replace(defs); err != nil {
		return err
	}
	c.logger.Info("Breakpoints replaced", slog.Int("count", len(defs)))
	return nil
}

// newEventLocked builds an event carrying the current state.
func (c *Controller) newEventLocked(t EventType, msg string) *Event {
	return &Event{
		Type:      t,
		SessionID: c.sessionID,
		Snapshot:  c.snapshotLocked(),
		Timestamp: time.Now(),
		Message:   msg,
	}
}

func (c *Controller) emitLocked(t EventType, msg string) {
	c.sendLocked(c.newEventLocked(t, msg))
}

// sendLocked sends a debug event without blocking the parser. When the
// channel is full, ordinary events are dropped, while pauses and session
// closes evict the oldest buffered event: front ends release the parser in
// response to them, so losing one would leave the parser suspended.
func (c *Controller) sendLocked(event *Event) {
	if c.closed {
		return
	}
	select {
	case c.events <- event:
		return
	default:
	}

	if !event.Type.mustDeliver() {
		c.logger.Warn("Debug event channel full, dropping event", slog.String(internallog.EventKey, string(event.Type)))
		return
	}

	// Only the controller sends, and only under c.mu, so one receive
	// always makes room.
	select {
	case old := <-c.events:
		c.logger.Warn("Debug event channel full, dropping oldest event",
			slog.String(internallog.EventKey, string(old.Type)),
			slog.String("kept", string(event.Type)))
	default:
	}
	select {
	case c.events <- event:
	default:
		c.logger.Warn("Debug event channel full, dropping event", slog.String(internallog.EventKey, string(event.Type)))
	}
}

// Close releases a suspended parser, disables further suspensions and
// closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.aborted = true
	if c.mode == ModeSuspended {
		c.releaseLocked(ModeRunning, ResumeAborted)
	}
	c.closed = true
	c.cond.Broadcast()
	close(c.events)
}
