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

package grammar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/parsedbg/internal/debug"
	internallog "github.com/tombee/parsedbg/internal/log"
)

const sums = `
start: statement
rules:
  statement:
    ref: expression
  expression:
    seq:
      - ref: term
      - many:
          seq:
            - lit: "+"
            - ref: term
  term:
    re: "[0-9]+"
`

// recorder logs instrumentation calls as strings.
type recorder struct {
	mu     sync.Mutex
	calls  []string
	failOn string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) Start(_ context.Context, text string) error {
	r.add("start %q", text)
	return nil
}

func (r *recorder) PreAttempt(_ context.Context, _ string, index int, op string) error {
	r.add("pre %s@%d", op, index)
	if op == r.failOn {
		return errors.New("instrumentation failed")
	}
	return nil
}

func (r *recorder) PostAttempt(_ context.Context, _ string, start int, op string, m *debug.Match) error {
	if m == nil {
		r.add("post %s@%d fail", op, start)
	} else {
		r.add("post %s@%d..%d", op, start, m.End)
	}
	return nil
}

func (r *recorder) End(_ context.Context, _ string, matches []debug.Match) error {
	r.add("end %d", len(matches))
	return nil
}

func (r *recorder) Fail(_ context.Context, _ string, _ []debug.Match, cause error) error {
	r.add("fail %v", cause)
	return nil
}

func mustLoad(t *testing.T, src string) *Grammar {
	t.Helper()
	g, err := Load([]byte(src))
	require.NoError(t, err)
	return g
}

func TestParse_ReportsEveryAttempt(t *testing.T) {
	g := mustLoad(t, sums)
	rec := &recorder{}

	res, err := g.Parse(context.Background(), "1+2", rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		`start "1+2"`,
		"pre statement@0",
		"pre expression@0",
		"pre term@0",
		"post term@0..1",
		"pre term@2",
		"post term@2..3",
		"post expression@0..3",
		"post statement@0..3",
		"end 4",
	}, rec.calls)

	assert.Equal(t, []debug.Match{
		{Operation: "term", Start: 0, End: 1},
		{Operation: "term", Start: 2, End: 3},
		{Operation: "expression", Start: 0, End: 3},
		{Operation: "statement", Start: 0, End: 3},
	}, res.Matches)
}

func TestParse_FailedAttemptsAreReportedAndDropped(t *testing.T) {
	g := mustLoad(t, sums)
	rec := &recorder{}

	_, err := g.Parse(context.Background(), "1+", rec)
	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)

	assert.Contains(t, rec.calls, "post term@2 fail")
	assert.Equal(t, "fail "+serr.Error(), rec.calls[len(rec.calls)-1])
}

func TestParse_SyntaxErrors(t *testing.T) {
	g := mustLoad(t, sums)

	tests := []struct {
		input    string
		offset   int
		line     int
		column   int
		expected []string
		consumed int
	}{
		{input: "1+", offset: 2, line: 1, column: 3, expected: []string{"/[0-9]+/"}, consumed: 1},
		{input: "1x", offset: 1, line: 1, column: 2, expected: []string{`"+"`}, consumed: 1},
		{input: "", offset: 0, line: 1, column: 1, expected: []string{"/[0-9]+/"}, consumed: 0},
		{input: "1+2\n+", offset: 3, line: 1, column: 4, expected: []string{`"+"`}, consumed: 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			_, err := g.Parse(context.Background(), tt.input, nil)
			var serr *SyntaxError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.offset, serr.Offset)
			assert.Equal(t, tt.line, serr.Line)
			assert.Equal(t, tt.column, serr.Column)
			assert.Equal(t, tt.expected, serr.Expected)
			assert.Equal(t, tt.consumed, serr.Consumed)
		})
	}
}

func TestParse_InstrumentationErrorAborts(t *testing.T) {
	g := mustLoad(t, sums)
	rec := &recorder{failOn: "term"}

	_, err := g.Parse(context.Background(), "1+2", rec)
	require.EqualError(t, err, "instrumentation failed")
	assert.Equal(t, "fail instrumentation failed", rec.calls[len(rec.calls)-1])
	assert.NotContains(t, rec.calls, "pre term@2")
}

func TestParse_LeftRecursion(t *testing.T) {
	g := mustLoad(t, `
start: a
rules:
  a:
    alt:
      - seq: [{ref: a}, {lit: x}]
      - lit: x
`)
	_, err := g.Parse(context.Background(), "xx", nil)
	var depthErr *DepthError
	require.ErrorAs(t, err, &depthErr)
	assert.Equal(t, "a", depthErr.Rule)
}

func TestParse_OptAndEmptyMany(t *testing.T) {
	g := mustLoad(t, `
start: list
rules:
  list:
    seq:
      - opt: {lit: "-"}
      - many: {re: "[a-z]*"}
`)
	_, err := g.Parse(context.Background(), "-abc", nil)
	require.NoError(t, err)
	_, err = g.Parse(context.Background(), "", nil)
	require.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		errText string
	}{
		{name: "no rules", src: "start: a\n", errText: "grammar has no rules"},
		{name: "no start", src: "rules: {a: {lit: x}}\n", errText: "no start rule"},
		{name: "unknown start", src: "start: b\nrules: {a: {lit: x}}\n", errText: `start rule "b" is not defined`},
		{name: "undefined ref", src: "start: a\nrules: {a: {ref: b}}\n", errText: `rule a: reference to undefined rule "b"`},
		{name: "two kinds", src: "start: a\nrules: {a: {lit: x, re: y}}\n", errText: "exactly one of"},
		{name: "empty expression", src: "start: a\nrules: {a: {}}\n", errText: "exactly one of"},
		{name: "bad pattern", src: "start: a\nrules: {a: {re: \"(\"}}\n", errText: "invalid pattern"},
		{name: "bad yaml", src: "start: [\n", errText: "failed to parse grammar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestOperations(t *testing.T) {
	g := mustLoad(t, sums)
	assert.Equal(t, []string{"expression", "statement", "term"}, g.Operations())
}

func TestExprString(t *testing.T) {
	g := mustLoad(t, sums)
	assert.Equal(t, `term ("+" term)*`, g.Rules["expression"].String())
	assert.Equal(t, "/[0-9]+/", g.Rules["term"].String())
}

func TestParse_WithController(t *testing.T) {
	g := mustLoad(t, sums)
	ctrl, err := debug.NewController(
		debug.New([]debug.Definition{{Operation: "term", PreCursor: `1\+`, Enabled: true}}),
		internallog.Discard(),
		debug.WithCatalog(debug.NewOperationCatalog(g.Operations())),
	)
	require.NoError(t, err)
	defer ctrl.Close()

	done := make(chan error, 1)
	go func() {
		_, err := g.Parse(context.Background(), "1+2", ctrl)
		done <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := ctrl.WaitSuspended(ctx)
	require.NoError(t, err)
	assert.Equal(t, "term", snap.Operation)
	assert.Equal(t, 2, snap.Cursor)
	assert.Equal(t, []string{"statement", "expression", "term"}, snap.Operations())

	require.NoError(t, ctrl.StepOut())
	snap, err = ctrl.WaitSuspended(ctx)
	require.NoError(t, err)
	assert.Equal(t, debug.PositionExit, snap.Suspension.Position)
	assert.Equal(t, "expression", snap.Suspension.Frame.Operation)

	require.NoError(t, ctrl.Resume())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("parse did not finish")
	}
}
