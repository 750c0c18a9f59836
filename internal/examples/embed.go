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

// Package examples embeds the sample grammars shipped with parsedbg.
package examples

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tombee/parsedbg/internal/grammar"
)

// Embed example grammars into the binary for offline availability
//
//go:embed *.yaml
var embeddedFS embed.FS

// Example describes an embedded grammar.
type Example struct {
	Name        string
	Description string
	FilePath    string
}

// List returns all embedded grammars.
func List() ([]Example, error) {
	entries, err := embeddedFS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded examples: %w", err)
	}

	var examples []Example
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".yaml")
		examples = append(examples, Example{
			Name:        name,
			Description: getDescription(name),
			FilePath:    entry.Name(),
		})
	}

	return examples, nil
}

// Get returns the YAML source of a grammar by name.
func Get(name string) ([]byte, error) {
	content, err := embeddedFS.ReadFile(name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("example %q not found: %w", name, err)
	}
	return content, nil
}

// Exists checks if a grammar with the given name is embedded.
func Exists(name string) bool {
	_, err := embeddedFS.ReadFile(name + ".yaml")
	return err == nil
}

// Grammar loads and compiles an embedded grammar.
func Grammar(name string) (*grammar.Grammar, error) {
	content, err := Get(name)
	if err != nil {
		return nil, err
	}
	g, err := grammar.Load(content)
	if err != nil {
		return nil, fmt.Errorf("example %q: %w", name, err)
	}
	return g, nil
}

// CopyTo writes a grammar to destPath so it can be edited.
func CopyTo(name string, destPath string) error {
	content, err := Get(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err := os.WriteFile(destPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write example file: %w", err)
	}

	return nil
}

func getDescription(name string) string {
	descriptions := map[string]string{
		"arithmetic": "Integer sums with parentheses: statement, expression, term",
		"json":       "JSON documents",
	}

	if desc, ok := descriptions[name]; ok {
		return desc
	}
	return "Example grammar"
}
