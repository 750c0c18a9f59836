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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/itchyny/gojq"
)

// jqTimeout bounds a --jq filter run.
const jqTimeout = time.Second

// CompileJQ parses and compiles a jq filter.
func CompileJQ(filter string) (*gojq.Code, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, NewInvalidInputError("invalid --jq filter", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, NewInvalidInputError("invalid --jq filter", err)
	}
	return code, nil
}

// emitFiltered runs filter over v and writes each result as compact JSON
// on its own line.
func emitFiltered(w io.Writer, filter string, v any) error {
	code, err := CompileJQ(filter)
	if err != nil {
		return err
	}

	// gojq only accepts the generic types encoding/json produces.
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to decode output: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), jqTimeout)
	defer cancel()

	encoder := json.NewEncoder(w)
	iter := code.RunWithContext(ctx, input)
	for {
		result, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := result.(error); isErr {
			return fmt.Errorf("jq: %w", err)
		}
		if err := encoder.Encode(result); err != nil {
			return err
		}
	}
}
