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

package ops

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/parsedbg/internal/cli"
	"github.com/tombee/parsedbg/internal/commands/shared"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(shared.ResetFlagsForTest)

	root := cli.NewRootCommand()
	root.AddCommand(NewCommand())

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestOps(t *testing.T) {
	out, err := execute(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "Operations (3)")
	assert.Contains(t, out, "* statement")
	assert.Contains(t, out, `term ("+" term)*`)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[1], "expression")
}

func TestOpsJSON(t *testing.T) {
	out, err := execute(t, "ops", "--example", "json", "--json")
	require.NoError(t, err)

	var resp struct {
		Success    bool        `json:"success"`
		Operations []Operation `json:"operations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)

	var names []string
	for _, op := range resp.Operations {
		names = append(names, op.Name)
		if op.Name == "document" {
			assert.True(t, op.Start)
		}
	}
	assert.Contains(t, names, "object")
	assert.Contains(t, names, "value")
}

func TestOpsUnknownExample(t *testing.T) {
	_, err := execute(t, "ops", "-e", "cobol")
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCode(err))
}

func TestOpsJQ(t *testing.T) {
	out, err := execute(t, "ops", "--jq", ".operations[].name")
	require.NoError(t, err)
	assert.Equal(t, "\"expression\"\n\"statement\"\n\"term\"\n", out)
}
