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
	"encoding/json"
	"errors"
	"io"
	"io/fs"

	"github.com/tombee/parsedbg/internal/config"
	"github.com/tombee/parsedbg/internal/debug"
	"github.com/tombee/parsedbg/internal/grammar"
)

// Error codes for structured JSON output
const (
	ErrorCodeInvalidYAML      = "E002" // Invalid YAML syntax or unknown key
	ErrorCodeInvalidPattern   = "E005" // Breakpoint regex does not compile
	ErrorCodeUnknownOperation = "E006" // Breakpoint names an operation the grammar lacks
	ErrorCodeSyntax           = "E104" // Input rejected by the grammar
	ErrorCodeInvalidConfig    = "E202" // Invalid session file
	ErrorCodeFileNotFound     = "E303" // File not found
	ErrorCodeInternal         = "E402" // Internal error
)

// JSONResponse is the base envelope for all JSON output
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// JSONError represents a structured error with code, message and location
type JSONError struct {
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Location *JSONLocation `json:"location,omitempty"`
}

// JSONLocation represents a position in the parsed input
type JSONLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// NewJSONResponse builds the envelope for command.
func NewJSONResponse(command string, success bool) JSONResponse {
	return JSONResponse{Version: "1.0", Command: command, Success: success}
}

// EmitJSON writes v as indented JSON, filtered through --jq when set.
func EmitJSON(w io.Writer, v any) error {
	if filter := GetJQ(); filter != "" {
		return emitFiltered(w, filter, v)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// EmitJSONError writes an error envelope for command.
func EmitJSONError(w io.Writer, command string, errs []JSONError) error {
	type errorResponse struct {
		JSONResponse
		Errors []JSONError `json:"errors"`
	}
	return EmitJSON(w, errorResponse{
		JSONResponse: NewJSONResponse(command, false),
		Errors:       errs,
	})
}

// ToJSONError classifies err for JSON output.
func ToJSONError(err error) JSONError {
	je := JSONError{Code: ErrorCodeInternal, Message: err.Error()}

	var (
		syntaxErr  *grammar.SyntaxError
		patternErr *debug.InvalidPatternError
		opErr      *debug.UnknownOperationError
		configErr  *config.Error
	)
	switch {
	case errors.As(err, &syntaxErr):
		je.Code = ErrorCodeSyntax
		je.Location = &JSONLocation{Line: syntaxErr.Line, Column: syntaxErr.Column, Offset: syntaxErr.Offset}
	case errors.As(err, &patternErr):
		je.Code = ErrorCodeInvalidPattern
	case errors.As(err, &opErr):
		je.Code = ErrorCodeUnknownOperation
	case errors.Is(err, fs.ErrNotExist):
		je.Code = ErrorCodeFileNotFound
	case errors.As(err, &configErr):
		je.Code = ErrorCodeInvalidConfig
		if configErr.Key == "config_file" {
			je.Code = ErrorCodeInvalidYAML
		}
	}
	return je
}
