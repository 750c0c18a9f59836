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

// Package schemas embeds the JSON Schemas for parsedbg's YAML inputs.
//
// The schemas support editor autocompletion and early validation of
// session files and grammars.
package schemas

import (
	_ "embed"
	"fmt"
	"sort"
)

//go:embed session.schema.json
var sessionSchema []byte

//go:embed grammar.schema.json
var grammarSchema []byte

var byName = map[string][]byte{
	"session": sessionSchema,
	"grammar": grammarSchema,
}

// GetSessionSchema returns the embedded session file schema.
func GetSessionSchema() []byte {
	return sessionSchema
}

// GetGrammarSchema returns the embedded grammar schema.
func GetGrammarSchema() []byte {
	return grammarSchema
}

// Get returns the schema with the given name.
func Get(name string) ([]byte, error) {
	s, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q (available: %v)", name, Names())
	}
	return s, nil
}

// Names lists the embedded schemas in sorted order.
func Names() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
