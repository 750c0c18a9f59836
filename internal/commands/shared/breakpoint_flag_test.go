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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/parsedbg/internal/debug"
)

func TestParseBreakpointFlag(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    debug.Definition
		wantErr bool
	}{
		{
			name:  "bare operation",
			value: "term",
			want:  debug.Definition{Operation: "term", Enabled: true},
		},
		{
			name:  "operation with patterns",
			value: `term,pre=1\+,post=2.*`,
			want:  debug.Definition{Operation: "term", PreCursor: `1\+`, PostCursor: "2.*", Enabled: true},
		},
		{
			name:  "any operation",
			value: "*,pre=1",
			want:  debug.Definition{PreCursor: "1", Enabled: true},
		},
		{
			name:  "long keys",
			value: "operation=expression,pre_cursor=a,post_cursor=b,enabled=false",
			want:  debug.Definition{Operation: "expression", PreCursor: "a", PostCursor: "b"},
		},
		{
			name:  "comma inside repetition",
			value: `pre=\d{1,3},op=term`,
			want:  debug.Definition{Operation: "term", PreCursor: `\d{1,3}`, Enabled: true},
		},
		{
			name:    "empty",
			value:   "  ",
			wantErr: true,
		},
		{
			name:    "unknown key",
			value:   "term,depth=3",
			wantErr: true,
		},
		{
			name:    "second field without key",
			value:   "term,expression",
			wantErr: true,
		},
		{
			name:    "bad enabled",
			value:   "term,enabled=maybe",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBreakpointFlag(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBreakpointsFlag_Set(t *testing.T) {
	var f BreakpointsFlag

	require.NoError(t, f.Set("term"))
	require.NoError(t, f.Set(`expression,post=\)`))
	assert.Len(t, f.Definitions, 2)
	assert.Equal(t, "breakpoint", f.Type())
	assert.Contains(t, f.String(), "op=term")

	err := f.Set("term,pre=(")
	var patternErr *debug.InvalidPatternError
	require.ErrorAs(t, err, &patternErr)
	assert.Equal(t, "pre_cursor", patternErr.Field)
	assert.Len(t, f.Definitions, 2)
}
