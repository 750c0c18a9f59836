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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/parsedbg/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for parsedbg
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parsedbg",
		Short: "parsedbg - step through a recursive-descent parse",
		Long: `parsedbg runs a grammar over an input text and lets you pause the parser
at breakpoints, inspect the call stack, and step into, over and out of
rule attempts.

Breakpoints match on the text before and after the cursor and on the
operation being attempted. They can be given with --break or kept in a
session file (default: ~/.config/parsedbg/session.yaml).

Run 'parsedbg examples list' to see the bundled grammars.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	flags := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(flags.Verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(flags.JSON, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(flags.Config, "config", "", "Path to session file (default: ~/.config/parsedbg/session.yaml)")
	cmd.PersistentFlags().StringVar(flags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(flags.LogFormat, "log-format", "", "Log format (text, json)")
	cmd.PersistentFlags().StringVar(flags.JQ, "jq", "", "Filter JSON output through a jq expression (implies --json)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return shared.NewInvalidInputError("invalid flag", err)
	})

	cmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if cmd.Flags().Changed("jq") {
			*flags.JSON = true
		}
	}

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
