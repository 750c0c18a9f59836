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
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tombee/parsedbg/internal/config"
	"github.com/tombee/parsedbg/internal/debug"
	"github.com/tombee/parsedbg/internal/examples"
	"github.com/tombee/parsedbg/internal/grammar"
	internallog "github.com/tombee/parsedbg/internal/log"
)

// DefaultExample is the embedded grammar used when neither --grammar nor
// --example is given.
const DefaultExample = "arithmetic"

// LoadGrammar loads a grammar file, or the named embedded example when
// path is empty.
func LoadGrammar(path, example string) (*grammar.Grammar, error) {
	if path != "" {
		data, err := os.ReadFile(expandHome(path))
		if err != nil {
			return nil, NewInvalidInputError("failed to read grammar", err)
		}
		g, err := grammar.Load(data)
		if err != nil {
			return nil, NewInvalidInputError(fmt.Sprintf("invalid grammar %s", path), err)
		}
		return g, nil
	}

	if example == "" {
		example = DefaultExample
	}
	if !examples.Exists(example) {
		return nil, NewInvalidInputError(fmt.Sprintf("example %q not found", example),
			fmt.Errorf("run 'parsedbg examples list' to see available examples"))
	}
	g, err := examples.Grammar(example)
	if err != nil {
		return nil, NewInvalidInputError(fmt.Sprintf("invalid example %s", example), err)
	}
	return g, nil
}

// LoadSession loads the session file named by --config, falling back to
// the default location, and appends extra breakpoints. The result is
// validated against catalog.
func LoadSession(catalog *debug.OperationCatalog, extra []debug.Definition) (*config.Config, error) {
	path := GetConfigPath()
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, NewInvalidInputError("failed to load session", err)
	}

	for _, def := range extra {
		enabled := def.Enabled
		cfg.Breakpoints = append(cfg.Breakpoints, config.Breakpoint{
			Operation:  def.Operation,
			PreCursor:  def.PreCursor,
			PostCursor: def.PostCursor,
			Enabled:    &enabled,
		})
	}

	if err := cfg.Validate(catalog); err != nil {
		return nil, NewInvalidInputError("invalid breakpoints", err)
	}
	return cfg, nil
}

// SessionPath returns the session file that LoadSession reads, or "".
func SessionPath() string {
	if path := GetConfigPath(); path != "" {
		return expandHome(path)
	}
	return config.DefaultPath()
}

// ReadInput returns the text to parse: text when set, otherwise the
// contents of file ("-" reads stdin).
func ReadInput(text, file string, stdin io.Reader) (string, error) {
	switch {
	case text != "" && file != "":
		return "", NewInvalidInputError("--text and --input are mutually exclusive", nil)
	case text != "":
		return text, nil
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", NewInvalidInputError("failed to read stdin", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	case file != "":
		data, err := os.ReadFile(expandHome(file))
		if err != nil {
			return "", NewInvalidInputError("failed to read input", err)
		}
		return string(data), nil
	default:
		return "", NewInvalidInputError("no input: use --text or --input", nil)
	}
}

// NewLogger builds the command logger. The --log-level and --log-format
// flags win over the environment, which wins over the session file.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	logCfg := internallog.FromEnv()
	logCfg.Output = w

	if cfg != nil {
		if os.Getenv("PARSEDBG_LOG_LEVEL") == "" && os.Getenv("LOG_LEVEL") == "" && os.Getenv("PARSEDBG_DEBUG") == "" && cfg.LogLevel != "" {
			logCfg.Level = cfg.LogLevel
		}
		if os.Getenv("LOG_FORMAT") == "" && cfg.LogFormat != "" {
			logCfg.Format = internallog.Format(cfg.LogFormat)
		}
	}

	if level := GetLogLevel(); level != "" {
		logCfg.Level = strings.ToLower(level)
	} else if GetVerbose() {
		logCfg.Level = "debug"
	}
	if format := GetLogFormat(); format != "" {
		logCfg.Format = internallog.Format(strings.ToLower(format))
	}

	return internallog.New(logCfg)
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}
