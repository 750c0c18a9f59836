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

// Package run implements the run command, which parses an input under
// the debug controller.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tombee/parsedbg/internal/commands/shared"
	"github.com/tombee/parsedbg/internal/config"
	"github.com/tombee/parsedbg/internal/debug"
	"github.com/tombee/parsedbg/internal/grammar"
	internallog "github.com/tombee/parsedbg/internal/log"
	"github.com/tombee/parsedbg/internal/tracing"
)

// shutdownTimeout bounds flushing spans and stopping the metrics server.
const shutdownTimeout = 5 * time.Second

type options struct {
	grammarPath string
	example     string
	text        string
	input       string
	breaks      shared.BreakpointsFlag

	stopOnEntry    bool
	suspendTimeout time.Duration
	watch          bool

	trace         bool
	traceEndpoint string
	traceProtocol string
	traceInsecure bool
	traceSample   float64
	metricsAddr   string

	interactive    bool
	nonInteractive bool
}

// Response is the JSON output of the run command.
type Response struct {
	shared.JSONResponse
	SessionID   string             `json:"session_id,omitempty"`
	Start       string             `json:"start"`
	Length      int                `json:"length"`
	Matches     int                `json:"matches"`
	Suspensions []Stop             `json:"suspensions"`
	Errors      []shared.JSONError `json:"errors,omitempty"`
}

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Parse input under the debugger",
		Long: `Parse an input text with a grammar, suspending at breakpoints.

In a terminal, suspensions open a prompt (type 'help' for commands). In CI,
with --non-interactive, --json or when stdin is not a terminal, every
suspension is reported and resumed automatically.

Breakpoints come from the session file and from repeated --break flags.`,
		Example: `  # Debug the arithmetic grammar, stopping on every term after "1+"
  parsedbg run -t '1+(2+3)' -b 'term,pre=1\+'

  # Stop before the first attempt and single-step
  parsedbg run -t '1+2' --stop-on-entry

  # Report suspensions as JSON
  parsedbg run -e json -i doc.json -b member --json

  # Reload session breakpoints while debugging
  parsedbg run -t '1+2+3' --config session.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.grammarPath, "grammar", "g", "", "Grammar file (YAML)")
	f.StringVarP(&opts.example, "example", "e", "", "Bundled grammar name (default: arithmetic)")
	f.StringVarP(&opts.text, "text", "t", "", "Text to parse")
	f.StringVarP(&opts.input, "input", "i", "", "File to parse (- for stdin)")
	f.VarP(&opts.breaks, "break", "b", "Breakpoint: [op][,pre=<re>][,post=<re>][,enabled=<bool>] (repeatable)")
	f.BoolVar(&opts.stopOnEntry, "stop-on-entry", false, "Suspend before the first attempt")
	f.DurationVar(&opts.suspendTimeout, "suspend-timeout", 0, "Resume a suspended parser after this long (0 waits forever)")
	f.BoolVar(&opts.watch, "watch", false, "Reload session breakpoints when the session file changes")
	f.BoolVar(&opts.trace, "trace", false, "Print a trace span per parse session to stderr")
	f.StringVar(&opts.traceEndpoint, "trace-endpoint", "", "Send trace spans to an OTLP collector at host:port")
	f.StringVar(&opts.traceProtocol, "trace-protocol", "http", "OTLP protocol (http, grpc)")
	f.BoolVar(&opts.traceInsecure, "trace-insecure", false, "Disable TLS for the OTLP collector")
	f.Float64Var(&opts.traceSample, "trace-sample", 1, "Fraction of sessions to trace")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics at this address while running")
	f.BoolVar(&opts.interactive, "interactive", false, "Prompt at suspensions even without a terminal")
	f.BoolVar(&opts.nonInteractive, "non-interactive", false, "Resume every suspension automatically")

	cmd.MarkFlagsMutuallyExclusive("grammar", "example")
	cmd.MarkFlagsMutuallyExclusive("text", "input")
	cmd.MarkFlagsMutuallyExclusive("interactive", "non-interactive")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	g, err := shared.LoadGrammar(opts.grammarPath, opts.example)
	if err != nil {
		return err
	}

	text, err := shared.ReadInput(opts.text, opts.input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	interactive, err := opts.interactiveMode()
	if err != nil {
		return err
	}

	catalog := debug.NewOperationCatalog(g.Operations())
	session, err := shared.LoadSession(catalog, opts.breaks.Definitions)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("stop-on-entry") {
		session.StopOnEntry = opts.stopOnEntry
	}
	if cmd.Flags().Changed("suspend-timeout") {
		if opts.suspendTimeout < 0 {
			return shared.NewInvalidInputError("--suspend-timeout must not be negative", nil)
		}
		session.SuspendTimeout = opts.suspendTimeout
	}

	logger := shared.NewLogger(cmd.ErrOrStderr(), session)

	ctx := cmd.Context()
	if !interactive {
		// The shell turns an interrupt into an abort; without it the
		// parse is cancelled.
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	ctrlOpts := []debug.Option{debug.WithCatalog(catalog)}

	if opts.traceProtocol != "http" && opts.traceProtocol != "grpc" {
		return shared.NewInvalidInputError(fmt.Sprintf("invalid --trace-protocol %q (must be http or grpc)", opts.traceProtocol), nil)
	}
	if opts.tracingEnabled() {
		provider, err := tracing.NewProvider(ctx, opts.tracingConfig(cmd.ErrOrStderr()))
		if err != nil {
			return shared.NewInvalidInputError("failed to set up tracing", err)
		}
		defer shutdown(logger, "tracer provider", provider.Shutdown)
		ctrlOpts = append(ctrlOpts, debug.WithTracer(provider.Tracer("github.com/tombee/parsedbg")))
	}

	if opts.metricsAddr != "" {
		srv, err := tracing.StartMetricsServer(opts.metricsAddr, logger)
		if err != nil {
			return shared.NewInvalidInputError("failed to serve metrics", err)
		}
		defer shutdown(logger, "metrics server", srv.Shutdown)
	}

	ctrl, err := debug.NewController(session.DebugConfig(), logger, ctrlOpts...)
	if err != nil {
		return shared.NewInvalidInputError("invalid debug configuration", err)
	}

	if opts.watch {
		stopWatch, err := watchSession(ctx, ctrl, logger)
		if err != nil {
			return err
		}
		defer stopWatch()
	}

	out := cmd.OutOrStdout()
	jsonOutput := shared.GetJSON()

	var auto *autoResumer
	consume := func(ctx context.Context) error {
		return debug.NewShell(ctrl, cmd.InOrStdin(), out).Run(ctx)
	}
	if !interactive {
		auto = newAutoResumer(ctrl, out, jsonOutput)
		consume = auto.Run
	}

	var (
		result   *grammar.Result
		parseErr error
	)
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		err := consume(gctx)
		// Nobody is left to resume the parser.
		_ = ctrl.Abort()
		return err
	})
	grp.Go(func() error {
		defer ctrl.Close()
		result, parseErr = g.Parse(gctx, text, ctrl)
		return nil
	})
	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if parseErr != nil && ctx.Err() != nil {
		parseErr = shared.NewInterruptedError(parseErr)
	} else if parseErr != nil {
		parseErr = shared.NewParseError("parse failed", parseErr)
	}

	if jsonOutput {
		return emitResponse(out, g, text, result, auto, parseErr)
	}

	if parseErr == nil && auto != nil {
		fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("Parsed %d bytes with %s (%d suspensions)",
			len(text), g.Start, len(auto.stops))))
	}
	return parseErr
}

func emitResponse(w io.Writer, g *grammar.Grammar, text string, result *grammar.Result, auto *autoResumer, parseErr error) error {
	resp := Response{
		JSONResponse: shared.NewJSONResponse("run", parseErr == nil),
		SessionID:    auto.sessionID,
		Start:        g.Start,
		Length:       len(text),
		Suspensions:  auto.stops,
	}
	if resp.Suspensions == nil {
		resp.Suspensions = []Stop{}
	}
	if result != nil {
		resp.Matches = len(result.Matches)
	}
	if parseErr != nil {
		resp.Errors = []shared.JSONError{shared.ToJSONError(parseErr)}
	}

	if err := shared.EmitJSON(w, resp); err != nil {
		return err
	}
	return parseErr
}

// interactiveMode decides whether suspensions open the shell.
func (o *options) interactiveMode() (bool, error) {
	switch {
	case o.interactive && o.input == "-":
		return false, shared.NewInvalidInputError("--interactive cannot be used with --input -",
			errors.New("stdin is needed for debugger commands"))
	case o.interactive && shared.GetJSON():
		return false, shared.NewInvalidInputError("--interactive cannot be used with --json", nil)
	case o.interactive:
		return true, nil
	case o.nonInteractive, shared.GetJSON(), o.input == "-":
		return false, nil
	default:
		return !shared.IsNonInteractive(), nil
	}
}

func (o *options) tracingEnabled() bool {
	return o.trace || o.traceEndpoint != ""
}

func (o *options) tracingConfig(stderr io.Writer) tracing.Config {
	version, _, _ := shared.GetVersion()
	cfg := tracing.DefaultConfig(version)
	cfg.SetGlobal = false
	cfg.SampleRate = o.traceSample
	cfg.Console.Writer = stderr

	if o.traceEndpoint != "" {
		cfg.Exporter = tracing.ExporterOTLPHTTP
		if o.traceProtocol == "grpc" {
			cfg.Exporter = tracing.ExporterOTLPGRPC
		}
		cfg.OTLP = tracing.OTLPConfig{
			Endpoint: o.traceEndpoint,
			Insecure: o.traceInsecure,
		}
	}
	return cfg
}

// watchSession reloads breakpoints from the session file on change.
func watchSession(ctx context.Context, ctrl *debug.Controller, logger *slog.Logger) (func(), error) {
	path := shared.SessionPath()
	if path == "" {
		logger.Warn("--watch given without a session file; nothing to watch")
		return func() {}, nil
	}

	w, err := config.NewWatcher(path, ctrl, logger)
	if err != nil {
		return nil, shared.NewInvalidInputError("failed to watch session", err)
	}
	w.Start(ctx)
	return func() {
		if err := w.Stop(); err != nil {
			logger.Warn("Failed to stop session watcher", internallog.Error(err))
		}
	}, nil
}

func shutdown(logger *slog.Logger, what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("Shutdown failed", slog.String("component", what), internallog.Error(err))
	}
}
