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

// Package breakpoints implements the breakpoints command, which manages
// the breakpoints kept in a session file.
package breakpoints

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/tombee/parsedbg/internal/commands/shared"
	"github.com/tombee/parsedbg/internal/config"
	"github.com/tombee/parsedbg/internal/debug"
)

// NewCommand creates the breakpoints command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "breakpoints",
		Aliases: []string{"bp"},
		Short:   "Manage session breakpoints",
		Long: `List, validate and add the breakpoints stored in a session file.

The session file is --config, or ~/.config/parsedbg/session.yaml.`,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newAddCmd())

	return cmd
}

type grammarFlags struct {
	path    string
	example string
}

func (g *grammarFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&g.path, "grammar", "g", "", "Grammar whose operations filters are checked against")
	cmd.Flags().StringVarP(&g.example, "example", "e", "", "Bundled grammar to check against (default: arithmetic)")
	cmd.MarkFlagsMutuallyExclusive("grammar", "example")
}

func (g *grammarFlags) catalog() (*debug.OperationCatalog, error) {
	gr, err := shared.LoadGrammar(g.path, g.example)
	if err != nil {
		return nil, err
	}
	return debug.NewOperationCatalog(gr.Operations()), nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List session breakpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := shared.SessionPath()
			var defs []debug.Definition
			if path != "" {
				cfg, err := config.Load(path)
				if err != nil {
					return shared.NewInvalidInputError("failed to load session", err)
				}
				defs = cfg.Definitions()
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				type listResponse struct {
					shared.JSONResponse
					Path        string             `json:"path,omitempty"`
					Breakpoints []debug.Definition `json:"breakpoints"`
				}
				if defs == nil {
					defs = []debug.Definition{}
				}
				return shared.EmitJSON(out, listResponse{
					JSONResponse: shared.NewJSONResponse("breakpoints list", true),
					Path:         path,
					Breakpoints:  defs,
				})
			}

			if len(defs) == 0 {
				fmt.Fprintln(out, "No breakpoints.")
				return nil
			}

			fmt.Fprintln(out, shared.RenderLabel(path))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tSTATE\tOPERATION\tPRE\tPOST")
			for i, def := range defs {
				state := "on"
				if !def.Enabled {
					state = "off"
				}
				op := def.Operation
				if op == "" {
					op = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%q\t%q\n", i+1, state, op, def.PreCursor, def.PostCursor)
			}
			return w.Flush()
		},
	}
}

func newValidateCmd() *cobra.Command {
	var g grammarFlags

	cmd := &cobra.Command{
		Use:   "validate [file|glob]...",
		Short: "Check session files against a grammar",
		Long: `Check that session files parse, that every breakpoint pattern compiles
and that every operation filter names an operation of the grammar.

Arguments may be glob patterns; ** matches across directories.`,
		Example: `  # Validate the default session file against the arithmetic grammar
  parsedbg breakpoints validate

  # Validate a file against a grammar file
  parsedbg breakpoints validate session.yaml -g my.yaml

  # Validate every session file in a tree
  parsedbg breakpoints validate 'sessions/**/*.yaml' -e json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := resolvePaths(args)
			if err != nil {
				return err
			}

			catalog, err := g.catalog()
			if err != nil {
				return err
			}

			type fileResult struct {
				Path  string            `json:"path"`
				Valid bool              `json:"valid"`
				Error *shared.JSONError `json:"error,omitempty"`
			}
			results := make([]fileResult, 0, len(paths))
			var failed []string
			for _, path := range paths {
				res := fileResult{Path: path, Valid: true}
				if err := validateFile(path, catalog); err != nil {
					je := shared.ToJSONError(err)
					res.Valid = false
					res.Error = &je
					failed = append(failed, path)
				}
				results = append(results, res)
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				type validateResponse struct {
					shared.JSONResponse
					Files []fileResult `json:"files"`
				}
				if err := shared.EmitJSON(out, validateResponse{
					JSONResponse: shared.NewJSONResponse("breakpoints validate", len(failed) == 0),
					Files:        results,
				}); err != nil {
					return err
				}
			} else {
				for _, res := range results {
					if res.Valid {
						fmt.Fprintln(out, shared.RenderOK(res.Path+" is valid"))
					} else {
						fmt.Fprintln(out, shared.RenderError(fmt.Sprintf("%s: %s", res.Path, res.Error.Message)))
					}
				}
			}

			if len(failed) > 0 {
				return &shared.ExitError{
					Code:    shared.ExitInvalidInput,
					Message: fmt.Sprintf("%d of %d session file(s) invalid", len(failed), len(paths)),
				}
			}
			return nil
		},
	}

	g.register(cmd)
	return cmd
}

// resolvePaths expands glob arguments. Plain paths are kept even when
// they do not exist so that validation reports them.
func resolvePaths(args []string) ([]string, error) {
	if len(args) == 0 {
		path := shared.SessionPath()
		if path == "" {
			return nil, shared.NewInvalidInputError("no session file", errors.New("pass a file or --config"))
		}
		return []string{path}, nil
	}

	var paths []string
	for _, arg := range args {
		if !hasMeta(arg) {
			paths = append(paths, arg)
			continue
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(arg)) {
			return nil, shared.NewInvalidInputError(fmt.Sprintf("invalid pattern %q", arg), doublestar.ErrBadPattern)
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, shared.NewInvalidInputError(fmt.Sprintf("invalid pattern %q", arg), err)
		}
		if len(matches) == 0 {
			return nil, shared.NewInvalidInputError(fmt.Sprintf("no files match %q", arg), fs.ErrNotExist)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func validateFile(path string, catalog *debug.OperationCatalog) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return &config.Error{Key: "config_file", Reason: "failed to parse", Cause: err}
	}
	return cfg.Validate(catalog)
}

func newAddCmd() *cobra.Command {
	var g grammarFlags

	cmd := &cobra.Command{
		Use:   "add [breakpoint]...",
		Short: "Add breakpoints to the session file",
		Long: `Add breakpoints to the session file, creating it if needed.

Breakpoints use the --break syntax: an optional operation name followed by
comma-separated key=value fields (op, pre, post, enabled). Without
arguments an interactive form asks for one breakpoint.`,
		Example: `  # Break when term is attempted right after "1+"
  parsedbg breakpoints add 'term,pre=.*1\+'

  # Break on every expression, disabled for now
  parsedbg breakpoints add expression,enabled=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := g.catalog()
			if err != nil {
				return err
			}

			var defs []debug.Definition
			if len(args) == 0 {
				if shared.IsNonInteractive() {
					return shared.NewInvalidInputError("no breakpoints given",
						errors.New("the interactive form requires a terminal; pass breakpoints as arguments"))
				}
				def, err := promptDefinition(catalog)
				if err != nil {
					return err
				}
				defs = append(defs, def)
			}
			for _, arg := range args {
				def, err := shared.ParseBreakpointFlag(arg)
				if err != nil {
					return shared.NewInvalidInputError(fmt.Sprintf("invalid breakpoint %q", arg), err)
				}
				defs = append(defs, def)
			}

			path, err := sessionTarget()
			if err != nil {
				return err
			}

			cfg := config.Default()
			data, err := os.ReadFile(path)
			switch {
			case err == nil:
				if cfg, err = config.Parse(data); err != nil {
					return shared.NewInvalidInputError("failed to load session", err)
				}
			case !errors.Is(err, fs.ErrNotExist):
				return shared.NewInvalidInputError("failed to read session", err)
			}

			for _, def := range defs {
				enabled := def.Enabled
				cfg.Breakpoints = append(cfg.Breakpoints, config.Breakpoint{
					Operation:  def.Operation,
					PreCursor:  def.PreCursor,
					PostCursor: def.PostCursor,
					Enabled:    &enabled,
				})
			}

			if err := cfg.Validate(catalog); err != nil {
				return shared.NewInvalidInputError("invalid breakpoints", err)
			}

			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create session directory: %w", err)
			}
			if err := os.WriteFile(path, out, 0o644); err != nil {
				return fmt.Errorf("failed to write session: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(fmt.Sprintf("Added %d breakpoint(s) to %s", len(defs), path)))
			return nil
		},
	}

	g.register(cmd)
	return cmd
}

func sessionTarget() (string, error) {
	if path := shared.SessionPath(); path != "" {
		return path, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "session.yaml"), nil
}
