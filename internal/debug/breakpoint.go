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
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Definition is the serializable shape of a breakpoint. It round-trips
// through YAML and JSON unchanged.
type Definition struct {
	// PreCursor is a regular expression the whole text before the cursor
	// must match. Empty matches anything.
	PreCursor string `yaml:"pre_cursor,omitempty" json:"pre_cursor,omitempty"`

	// PostCursor is a regular expression the whole text from the cursor to
	// the end must match. Empty matches anything.
	PostCursor string `yaml:"post_cursor,omitempty" json:"post_cursor,omitempty"`

	// Operation restricts the breakpoint to one grammar operation.
	// Empty matches any operation.
	Operation string `yaml:"operation,omitempty" json:"operation,omitempty"`

	// Enabled indicates whether the breakpoint is evaluated.
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// String returns a compact human-readable form of the definition.
func (d Definition) String() string {
	op := d.Operation
	if op == "" {
		op = "*"
	}
	return fmt.Sprintf("op=%s pre=%q post=%q", op, d.PreCursor, d.PostCursor)
}

// ParseDefinition parses the compact form used by the shell and the CLI:
// an optional leading operation name ("*" for any) followed by
// whitespace-separated key=value fields op, pre, post and enabled.
//
//	expression pre=1 post=\+.*
//	op=term enabled=false
//
// Patterns are not compiled here; NewBreakpoint does that.
func ParseDefinition(spec string) (Definition, error) {
	def := Definition{Enabled: true}
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return def, fmt.Errorf("empty breakpoint definition")
	}

	for i, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			if i != 0 {
				return def, fmt.Errorf("breakpoint field %q is not key=value", field)
			}
			key, value = "op", field
		}

		switch key {
		case "op", "operation":
			if value != "*" {
				def.Operation = value
			}
		case "pre", "pre_cursor":
			def.PreCursor = value
		case "post", "post_cursor":
			def.PostCursor = value
		case "enabled":
			enabled, err := strconv.ParseBool(value)
			if err != nil {
				return def, fmt.Errorf("invalid enabled value %q: %w", value, err)
			}
			def.Enabled = enabled
		default:
			return def, fmt.Errorf("unknown breakpoint field %q", key)
		}
	}
	return def, nil
}

// Breakpoint is a compiled pause condition. Its patterns are fixed once
// created; only the registry toggles Enabled and counts hits.
type Breakpoint struct {
	// ID is assigned by the Registry when the breakpoint is added.
	ID int

	PreCursor  string
	PostCursor string
	Operation  string
	Enabled    bool

	// HitCount is the number of suspensions this breakpoint has caused.
	HitCount int

	pre  *regexp.Regexp
	post *regexp.Regexp
}

// NewBreakpoint compiles a definition into a breakpoint. Malformed patterns
// fail here with an *InvalidPatternError.
func NewBreakpoint(def Definition) (*Breakpoint, error) {
	pre, err := compileAnchored("pre_cursor", def.PreCursor)
	if err != nil {
		return nil, err
	}
	post, err := compileAnchored("post_cursor", def.PostCursor)
	if err != nil {
		return nil, err
	}

	return &Breakpoint{
		PreCursor:  def.PreCursor,
		PostCursor: def.PostCursor,
		Operation:  def.Operation,
		Enabled:    def.Enabled,
		pre:        pre,
		post:       post,
	}, nil
}

// compileAnchored compiles pattern so that it only matches a whole string.
// An empty pattern yields nil, meaning "always matches".
func compileAnchored(field, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	// Validate the raw pattern first so the error position refers to the
	// user's text rather than the anchored wrapper.
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, &InvalidPatternError{Field: field, Pattern: pattern, Cause: err}
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, &InvalidPatternError{Field: field, Pattern: pattern, Cause: err}
	}
	return re, nil
}

// Definition returns the serializable shape of the breakpoint.
func (b *Breakpoint) Definition() Definition {
	return Definition{
		PreCursor:  b.PreCursor,
		PostCursor: b.PostCursor,
		Operation:  b.Operation,
		Enabled:    b.Enabled,
	}
}

// Matches reports whether the breakpoint's filters accept an attempt of op
// at cursor within text. The enabled flag is not consulted.
func (b *Breakpoint) Matches(text string, cursor int, op string) bool {
	if b.Operation != "" && b.Operation != op {
		return false
	}
	cursor = clampCursor(text, cursor)
	if b.pre != nil && !b.pre.MatchString(text[:cursor]) {
		return false
	}
	if b.post != nil && !b.post.MatchString(text[cursor:]) {
		return false
	}
	return true
}

// clone returns a copy safe to hand to another goroutine.
func (b *Breakpoint) clone() *Breakpoint {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func clampCursor(text string, cursor int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > len(text) {
		return len(text)
	}
	return cursor
}
