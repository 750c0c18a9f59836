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

package breakpoints

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/tombee/parsedbg/internal/commands/shared"
	"github.com/tombee/parsedbg/internal/debug"
)

// anyOperation is the select value for a breakpoint without an operation
// filter.
const anyOperation = "*"

// promptDefinition asks for one breakpoint with a terminal form.
func promptDefinition(catalog *debug.OperationCatalog) (debug.Definition, error) {
	def := debug.Definition{Enabled: true}
	op := anyOperation

	options := []huh.Option[string]{huh.NewOption("any operation", anyOperation)}
	for _, name := range catalog.Names() {
		options = append(options, huh.NewOption(name, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Operation").
				Description("Suspend only when this operation is attempted").
				Options(options...).
				Value(&op),
			huh.NewInput().
				Title("Before cursor").
				Description("Regex the whole text before the cursor must match (empty: anything)").
				Validate(patternValidator("pre_cursor")).
				Value(&def.PreCursor),
			huh.NewInput().
				Title("After cursor").
				Description("Regex the whole text after the cursor must match (empty: anything)").
				Validate(patternValidator("post_cursor")).
				Value(&def.PostCursor),
			huh.NewConfirm().
				Title("Enabled").
				Value(&def.Enabled),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return def, shared.NewInterruptedError(err)
		}
		return def, fmt.Errorf("form cancelled: %w", err)
	}

	if op != anyOperation {
		def.Operation = op
	}
	return def, nil
}

// patternValidator rejects patterns that would fail at breakpoint creation.
func patternValidator(field string) func(string) error {
	return func(pattern string) error {
		def := debug.Definition{}
		if field == "pre_cursor" {
			def.PreCursor = pattern
		} else {
			def.PostCursor = pattern
		}
		_, err := debug.NewBreakpoint(def)
		return err
	}
}
