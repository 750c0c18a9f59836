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

package shared

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/tombee/parsedbg/internal/debug"
)

var _ pflag.Value = (*BreakpointsFlag)(nil)

var breakpointKeys = []string{"op=", "operation=", "pre=", "pre_cursor=", "post=", "post_cursor=", "enabled="}

// BreakpointsFlag collects repeated --break values. Each value is a
// comma-separated list of key=value fields with an optional leading
// operation name:
//
//	--break term,pre=1\+
//	--break 'op=expression,post=\)'
//
// A comma followed by text that is not a known key belongs to the previous
// pattern, so repetition counts such as {1,3} survive.
type BreakpointsFlag struct {
	Definitions []debug.Definition
}

// String implements pflag.Value.
func (f *BreakpointsFlag) String() string {
	parts := make([]string, len(f.Definitions))
	for i, def := range f.Definitions {
		parts[i] = def.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

// Set implements pflag.Value. The patterns are compiled so that a bad
// regex fails flag parsing.
func (f *BreakpointsFlag) Set(value string) error {
	def, err := ParseBreakpointFlag(value)
	if err != nil {
		return err
	}
	if _, err := debug.NewBreakpoint(def); err != nil {
		return err
	}
	f.Definitions = append(f.Definitions, def)
	return nil
}

// Type implements pflag.Value.
func (f *BreakpointsFlag) Type() string {
	return "breakpoint"
}

// ParseBreakpointFlag parses one --break value into a definition.
func ParseBreakpointFlag(value string) (debug.Definition, error) {
	if strings.TrimSpace(value) == "" {
		return debug.Definition{}, fmt.Errorf("empty breakpoint definition")
	}

	var fields []string
	for i, piece := range strings.Split(value, ",") {
		if i > 0 && !hasBreakpointKey(piece) && len(fields) > 0 && strings.Contains(fields[len(fields)-1], "=") {
			fields[len(fields)-1] += "," + piece
			continue
		}
		fields = append(fields, piece)
	}

	def := debug.Definition{Enabled: true}
	for i, field := range fields {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			if i != 0 {
				return def, fmt.Errorf("breakpoint field %q is not key=value", field)
			}
			key, val = "op", field
		}

		switch key {
		case "op", "operation":
			if val != "*" {
				def.Operation = val
			}
		case "pre", "pre_cursor":
			def.PreCursor = val
		case "post", "post_cursor":
			def.PostCursor = val
		case "enabled":
			switch val {
			case "true", "1", "yes":
				def.Enabled = true
			case "false", "0", "no":
				def.Enabled = false
			default:
				return def, fmt.Errorf("invalid enabled value %q", val)
			}
		default:
			return def, fmt.Errorf("unknown breakpoint field %q", key)
		}
	}
	return def, nil
}

func hasBreakpointKey(piece string) bool {
	for _, key := range breakpointKeys {
		if strings.HasPrefix(piece, key) {
			return true
		}
	}
	return false
}
