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

// Package config loads parsedbg session files: the breakpoints and
// suspension settings applied to a debug.Controller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tombee/parsedbg/internal/debug"
)

// Environment variables that override file settings.
const (
	EnvSuspendTimeout = "PARSEDBG_SUSPEND_TIMEOUT"
	EnvStopOnEntry    = "PARSEDBG_STOP_ON_ENTRY"
)

// Config is a parsedbg session file.
type Config struct {
	// StopOnEntry suspends the parser as soon as a session starts.
	StopOnEntry bool `yaml:"stop_on_entry"`

	// SuspendTimeout resumes a suspended parser after this long. Zero
	// waits forever.
	// Environment: PARSEDBG_SUSPEND_TIMEOUT
	SuspendTimeout time.Duration `yaml:"suspend_timeout,omitempty"`

	// EventBuffer is the capacity of the controller event channel.
	// Default: 64
	EventBuffer int `yaml:"event_buffer,omitempty"`

	// LogLevel is the log level (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`

	// LogFormat is the log format (text, json).
	LogFormat string `yaml:"log_format,omitempty"`

	Breakpoints []Breakpoint `yaml:"breakpoints,omitempty"`
}

// Breakpoint is a breakpoint entry in a session file. Enabled defaults to
// true when omitted.
type Breakpoint struct {
	Operation  string `yaml:"operation,omitempty"`
	PreCursor  string `yaml:"pre_cursor,omitempty"`
	PostCursor string `yaml:"post_cursor,omitempty"`
	Enabled    *bool  `yaml:"enabled,omitempty"`
}

// Definition converts the entry to a debug.Definition.
func (b Breakpoint) Definition() debug.Definition {
	enabled := true
	if b.Enabled != nil {
		enabled = *b.Enabled
	}
	return debug.Definition{
		Operation:  b.Operation,
		PreCursor:  b.PreCursor,
		PostCursor: b.PostCursor,
		Enabled:    enabled,
	}
}

// Default returns the configuration used when no session file is given.
func Default() *Config {
	return &Config{
		EventBuffer: debug.DefaultEventBuffer,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load reads the session file at path, applies environment overrides and
// validates the result. An empty path loads defaults and the environment
// only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, &Error{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", path),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(nil); err != nil {
		return nil, &Error{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// Parse decodes a session file. Unknown keys are rejected. Defaults are
// applied but environment overrides are not.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return c.decode(data)
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// applyDefaults fills in zero values so minimal files work.
func (c *Config) applyDefaults() {
	defaults := Default()
	if c.EventBuffer == 0 {
		c.EventBuffer = defaults.EventBuffer
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}
}

// loadFromEnv applies environment variable overrides.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv(EnvSuspendTimeout); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return &Error{Key: EnvSuspendTimeout, Reason: "invalid duration", Cause: err}
		}
		c.SuspendTimeout = d
	}
	if val := os.Getenv(EnvStopOnEntry); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return &Error{Key: EnvStopOnEntry, Reason: "invalid boolean", Cause: err}
		}
		c.StopOnEntry = b
	}
	return nil
}

// Definitions returns the breakpoint definitions in file order.
func (c *Config) Definitions() []debug.Definition {
	defs := make([]debug.Definition, len(c.Breakpoints))
	for i, bp := range c.Breakpoints {
		defs[i] = bp.Definition()
	}
	return defs
}

// DebugConfig converts the file to a controller configuration.
func (c *Config) DebugConfig() *debug.Config {
	cfg := debug.New(c.Definitions())
	cfg.SuspendTimeout = c.SuspendTimeout
	cfg.StopOnEntry = c.StopOnEntry
	cfg.EventBuffer = c.EventBuffer
	return cfg
}

// Validate compiles every breakpoint pattern and, when catalog is not nil,
// checks operation names against it.
func (c *Config) Validate(catalog *debug.OperationCatalog) error {
	var errs []error

	switch strings.ToLower(c.LogLevel) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of trace, debug, info, warn, error (got %q)", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json (got %q)", c.LogFormat))
	}

	if err := c.DebugConfig().Validate(catalog); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
