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

// Package schema implements the schema command, which prints the embedded
// JSON Schemas for session files and grammars.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/parsedbg/internal/commands/shared"
	"github.com/tombee/parsedbg/schemas"
)

// NewCommand creates the schema command
func NewCommand() *cobra.Command {
	var (
		outputFormat string
		writeDir     string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "schema <session|grammar>",
		Short: "Print the JSON Schema for a session file or grammar",
		Long: `Print the embedded JSON Schema for parsedbg session files or grammars.

Point your editor's YAML language server at the schema for autocompletion
and inline validation.`,
		Example: `  # Session file schema as JSON
  parsedbg schema session

  # Grammar schema as YAML
  parsedbg schema grammar -o yaml

  # Write the session schema to ./schemas/session.schema.json
  parsedbg schema session --write ./schemas`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: schemas.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			schemaBytes, err := schemas.Get(name)
			if err != nil {
				return shared.NewInvalidInputError(err.Error(), nil)
			}

			var schemaObj interface{}
			if err := json.Unmarshal(schemaBytes, &schemaObj); err != nil {
				return fmt.Errorf("failed to parse embedded schema: %w", err)
			}

			var output []byte
			switch outputFormat {
			case "json":
				output, err = json.MarshalIndent(schemaObj, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format JSON: %w", err)
				}
			case "yaml":
				output, err = yaml.Marshal(schemaObj)
				if err != nil {
					return fmt.Errorf("failed to convert to YAML: %w", err)
				}
			default:
				return shared.NewInvalidInputError(
					fmt.Sprintf("invalid output format: %s (must be 'json' or 'yaml')", outputFormat), nil)
			}

			if writeDir != "" {
				destPath := filepath.Join(writeDir, name+".schema.json")
				if _, err := os.Stat(destPath); err == nil && !force {
					return shared.NewInvalidInputError(
						fmt.Sprintf("file already exists: %s (use --force to overwrite)", destPath), nil)
				}
				if err := os.MkdirAll(writeDir, 0755); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", writeDir, err)
				}
				// Always JSON on disk; editors expect the .json file.
				if err := os.WriteFile(destPath, schemaBytes, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", destPath, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK("Schema written to "+destPath))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "json", "Output format: json, yaml")
	cmd.Flags().StringVarP(&writeDir, "write", "w", "", "Write the schema into this directory instead of printing it")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (only with --write)")

	return cmd
}
