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

/*
Package cli provides the root command for parsedbg.

This package creates the Cobra root command and handles global concerns like
version information, persistent flags and exit codes. Subcommands live in
the internal/commands subpackages and are attached in main.go.

# Command Tree

	parsedbg
	├── run           Parse input under the debugger
	├── ops           List the operations of a grammar
	├── breakpoints   List, validate and add session breakpoints
	├── examples      List, show and copy bundled grammars
	├── schema        Print JSON Schemas for session files and grammars
	├── version       Show version
	└── help          Show help

# Usage

From main.go:

	cli.SetVersion(version, commit, date)
	rootCmd := cli.NewRootCommand()
	rootCmd.AddCommand(run.NewCommand())
	if err := rootCmd.Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Global Flags

	--verbose, -v    Enable debug logging
	--json           Output in JSON format
	--config         Path to session file
	--log-level      Log level
	--log-format     Log format
	--jq             Filter JSON output through a jq expression

# Exit Codes

  - Exit 0: Success
  - Exit 1: The grammar rejected the input
  - Exit 2: Invalid grammar, session file, breakpoint or flag
  - Exit 130: Interrupted
*/
package cli
