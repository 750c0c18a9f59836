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
	"time"
)

// DefaultEventBuffer is the event channel capacity used when Config leaves
// EventBuffer unset.
const DefaultEventBuffer = 64

// Config holds debugging configuration for a parse session.
type Config struct {
	// Breakpoints are installed in the registry when the controller is created.
	Breakpoints []Definition

	// SuspendTimeout forcibly resumes a suspension after this long.
	// Zero waits forever.
	SuspendTimeout time.Duration

	// StopOnEntry suspends the parser in Start, before any attempt.
	StopOnEntry bool

	// EventBuffer is the capacity of the event channel.
	EventBuffer int
}

// New creates a new debug configuration.
func New(breakpoints []Definition) *Config {
	return &Config{
		Breakpoints: breakpoints,
		EventBuffer: DefaultEventBuffer,
	}
}

// Validate checks that every breakpoint compiles and, when a catalog is
// given, references a known operation.
func (c *Config) Validate(catalog *OperationCatalog) error {
	if c.SuspendTimeout < 0 {
		return fmt.Errorf("suspend timeout must not be negative: %v", c.SuspendTimeout)
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("event buffer must not be negative: %d", c.EventBuffer)
	}

	for i, def := range c.Breakpoints {
		if _, err := NewBreakpoint(def); err != nil {
			return fmt.Errorf("breakpoint %d: %w", i+1, err)
		}
	}

	return catalog.Validate(c.Breakpoints)
}

// AddBreakpoint appends a breakpoint definition.
func (c *Config) AddBreakpoint(def Definition) {
	c.Breakpoints = append(c.Breakpoints, def)
}

// ClearBreakpoints removes all breakpoint definitions.
func (c *Config) ClearBreakpoints() {
	c.Breakpoints = nil
}
