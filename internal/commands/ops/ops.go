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

// Package ops implements the ops command, which prints the operation
// catalog of a grammar: the names breakpoint filters may use.
package ops

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/parsedbg/internal/commands/shared"
)

// Operation is one grammar rule in JSON output.
type Operation struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
	Start      bool   `json:"start,omitempty"`
}

// NewCommand creates the ops command
func NewCommand() *cobra.Command {
	var grammarPath, example string

	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List the operations of a grammar",
		Long: `List the operations a grammar can attempt. These are the names accepted
by breakpoint operation filters.`,
		Example: `  # Operations of the default grammar
  parsedbg ops

  # Operations of a grammar file, as JSON
  parsedbg ops -g my.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := shared.LoadGrammar(grammarPath, example)
			if err != nil {
				return err
			}

			ops := make([]Operation, 0, len(g.Rules))
			for _, name := range g.Operations() {
				ops = append(ops, Operation{
					Name:       name,
					Definition: g.Rules[name].String(),
					Start:      name == g.Start,
				})
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				type opsResponse struct {
					shared.JSONResponse
					Operations []Operation `json:"operations"`
				}
				return shared.EmitJSON(out, opsResponse{
					JSONResponse: shared.NewJSONResponse("ops", true),
					Operations:   ops,
				})
			}

			fmt.Fprintln(out, shared.Header.Render(fmt.Sprintf("Operations (%d)", len(ops))))
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, op := range ops {
				marker := " "
				if op.Start {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s\t%s\n", marker, op.Name, shared.RenderLabel(op.Definition))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&grammarPath, "grammar", "g", "", "Grammar file (YAML)")
	cmd.Flags().StringVarP(&example, "example", "e", "", "Bundled grammar name (default: arithmetic)")
	cmd.MarkFlagsMutuallyExclusive("grammar", "example")

	return cmd
}
