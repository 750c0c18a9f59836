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

package schemas

import (
	"encoding/json"
	"testing"
)

func TestEmbeddedSchemas(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			schema, err := Get(name)
			if err != nil {
				t.Fatalf("Get(%q) failed: %v", name, err)
			}
			if len(schema) == 0 {
				t.Fatal("embedded schema is empty")
			}

			var schemaMap map[string]interface{}
			if err := json.Unmarshal(schema, &schemaMap); err != nil {
				t.Fatalf("embedded schema is not valid JSON: %v", err)
			}

			if _, ok := schemaMap["$schema"]; !ok {
				t.Error("schema missing $schema field")
			}
			if _, ok := schemaMap["$id"]; !ok {
				t.Error("schema missing $id field")
			}
			if title, ok := schemaMap["title"].(string); !ok || title == "" {
				t.Error("schema missing or empty title field")
			}
		})
	}
}

func TestGetters(t *testing.T) {
	s, _ := Get("session")
	if string(s) != string(GetSessionSchema()) {
		t.Error("Get(session) and GetSessionSchema do not match")
	}
	g, _ := Get("grammar")
	if string(g) != string(GetGrammarSchema()) {
		t.Error("Get(grammar) and GetGrammarSchema do not match")
	}
}

func TestGetUnknown(t *testing.T) {
	if _, err := Get("workflow"); err == nil {
		t.Error("expected error for unknown schema")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 2 || names[0] != "grammar" || names[1] != "session" {
		t.Errorf("Names() = %v, want [grammar session]", names)
	}
}
