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

package examples

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestList(t *testing.T) {
	examples, err := List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	if len(examples) == 0 {
		t.Fatal("List() returned no examples")
	}

	// Check that arithmetic example is present
	found := false
	for _, ex := range examples {
		if ex.Name == "arithmetic" {
			found = true
			if ex.Description == "" {
				t.Error("arithmetic example has no description")
			}
			break
		}
	}

	if !found {
		t.Error("arithmetic example not found in list")
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"arithmetic", false},
		{"nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := Get(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Error("Get() expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Get() unexpected error: %v", err)
				}
				if len(content) == 0 {
					t.Error("Get() returned empty content")
				}
			}
		})
	}
}

func TestGrammar(t *testing.T) {
	for _, name := range []string{"arithmetic", "json"} {
		t.Run(name, func(t *testing.T) {
			g, err := Grammar(name)
			if err != nil {
				t.Fatalf("Grammar(%q) error = %v", name, err)
			}
			if len(g.Operations()) == 0 {
				t.Errorf("Grammar(%q) has no operations", name)
			}
		})
	}

	if _, err := Grammar("nonexistent"); err == nil {
		t.Error("Grammar() expected error for a missing example")
	}
}

func TestExists(t *testing.T) {
	tests := []struct {
		name   string
		expect bool
	}{
		{"arithmetic", true},
		{"nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Exists(tt.name)
			if result != tt.expect {
				t.Errorf("Exists(%q) = %v, want %v", tt.name, result, tt.expect)
			}
		})
	}
}

func TestCopyTo(t *testing.T) {
	// Create a temporary directory
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		destPath string
		wantErr  bool
	}{
		{
			name:     "arithmetic",
			destPath: filepath.Join(tmpDir, "test.yaml"),
			wantErr:  false,
		},
		{
			name:     "nonexistent",
			destPath: filepath.Join(tmpDir, "nonexistent.yaml"),
			wantErr:  true,
		},
		{
			name:     "arithmetic",
			destPath: filepath.Join(tmpDir, "subdir", "nested.yaml"),
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+"_to_"+filepath.Base(tt.destPath), func(t *testing.T) {
			err := CopyTo(tt.name, tt.destPath)
			if tt.wantErr {
				if err == nil {
					t.Error("CopyTo() expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("CopyTo() unexpected error: %v", err)
				}

				// Verify file was created
				if _, err := os.Stat(tt.destPath); os.IsNotExist(err) {
					t.Errorf("CopyTo() did not create file at %s", tt.destPath)
				}

				// Verify content matches
				content, err := os.ReadFile(tt.destPath)
				if err != nil {
					t.Errorf("Failed to read copied file: %v", err)
				}

				original, err := Get(tt.name)
				if err != nil {
					t.Errorf("Failed to get original content: %v", err)
				}

				if string(content) != string(original) {
					t.Error("Copied content does not match original")
				}
			}
		})
	}
}

func TestJSONGrammar(t *testing.T) {
	g, err := Grammar("json")
	if err != nil {
		t.Fatalf("Grammar(json) error = %v", err)
	}

	tests := []struct {
		input   string
		wantErr bool
	}{
		{`{"a": [1, -2.5e3, true, null], "b": {}}`, false},
		{` [ "x\"y" , [] ] `, false},
		{`{"a":}`, true},
		{`[1,]`, true},
		{`01`, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := g.Parse(context.Background(), tt.input, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestArithmeticGrammar(t *testing.T) {
	g, err := Grammar("arithmetic")
	if err != nil {
		t.Fatalf("Grammar(arithmetic) error = %v", err)
	}

	want := []string{"expression", "statement", "term"}
	got := g.Operations()
	if len(got) != len(want) {
		t.Fatalf("Operations() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Operations() = %v, want %v", got, want)
		}
	}

	if _, err := g.Parse(context.Background(), "1+(2+3)", nil); err != nil {
		t.Errorf("Parse() error = %v", err)
	}
	if _, err := g.Parse(context.Background(), "1+(2+3", nil); err == nil {
		t.Error("Parse() expected error for unbalanced parentheses")
	}
}
