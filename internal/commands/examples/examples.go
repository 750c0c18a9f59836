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

// Package examples implements the examples command.
package examples

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/parsedbg/internal/commands/shared"
	"github.com/tombee/parsedbg/internal/examples"
)

// NewCommand creates the examples command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "examples",
		Short: "Manage bundled grammars",
		Long: `Browse, view and copy the grammars bundled with parsedbg.

Bundled grammars can be debugged directly with 'parsedbg run --example <name>'
or copied to disk as a starting point for your own.`,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newCopyCmd())

	// Default to list if no subcommand specified
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return newListCmd().RunE(cmd, args)
	}

	return cmd
}

func completeNames(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	list, err := examples.List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var names []string
	for _, ex := range list {
		if strings.HasPrefix(ex.Name, toComplete) {
			names = append(names, ex.Name+"\t"+ex.Description)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bundled grammars",
		Example: `  # List all grammars
  parsedbg examples list

  # Extract grammar names for scripting
  parsedbg examples list --json | jq -r '.examples[].name'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := examples.List()
			if err != nil {
				return fmt.Errorf("failed to list examples: %w", err)
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				type listResponse struct {
					shared.JSONResponse
					Examples []examples.Example `json:"examples"`
				}
				return shared.EmitJSON(out, listResponse{
					JSONResponse: shared.NewJSONResponse("examples list", true),
					Examples:     list,
				})
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			fmt.Fprintln(w, "────\t───────────")
			for _, ex := range list {
				fmt.Fprintf(w, "%s\t%s\n", ex.Name, ex.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Use 'parsedbg examples show <name>' to view a grammar")
			fmt.Fprintln(out, "Use 'parsedbg run --example <name> --text <input>' to debug it")
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Display a bundled grammar",
		Example: `  # View the arithmetic grammar
  parsedbg examples show arithmetic

  # Save it for editing
  parsedbg examples show json > my-json.yaml`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			content, err := examples.Get(name)
			if err != nil {
				return shared.NewInvalidInputError("failed to get example", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# Example: %s\n\n%s", name, content)
			return nil
		},
	}
}

func newCopyCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "copy <name> [dest]",
		Short: "Copy a bundled grammar to the filesystem",
		Long: `Copy a bundled grammar to the local filesystem.

If no destination is specified, the grammar is copied to the current
directory as '<name>.yaml'.`,
		Example: `  # Copy to current directory
  parsedbg examples copy arithmetic

  # Copy into a directory, then debug the copy
  parsedbg examples copy json ./grammars/ && parsedbg run -g grammars/json.yaml -t '[1]'`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !examples.Exists(name) {
				return shared.NewInvalidInputError(fmt.Sprintf("example %q not found", name),
					fmt.Errorf("use 'parsedbg examples list' to see available examples"))
			}

			destPath := name + ".yaml"
			if len(args) > 1 {
				destPath = args[1]
			}
			if stat, err := os.Stat(destPath); err == nil && stat.IsDir() {
				destPath = filepath.Join(destPath, name+".yaml")
			}

			out := cmd.OutOrStdout()
			if _, err := os.Stat(destPath); err == nil && !force {
				fmt.Fprintf(out, "File %s already exists. Overwrite? [y/N] ", destPath)
				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				response = strings.TrimSpace(response)
				if response != "y" && response != "Y" {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			if err := examples.CopyTo(name, destPath); err != nil {
				return err
			}

			fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("Copied example %q to %s", name, destPath)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite the destination without asking")

	return cmd
}
