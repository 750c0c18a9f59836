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

package debug

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	internallog "github.com/tombee/parsedbg/internal/log"
)

// arithParser is a minimal instrumented recursive-descent parser:
//
//	statement  = expression
//	expression = term ("+" term)*
//	term       = digit
type arithParser struct {
	inst Instrumentation
	text string
}

func (p *arithParser) parse(ctx context.Context) error {
	if err := p.inst.Start(ctx, p.text); err != nil {
		return err
	}
	end, err := p.rule(ctx, "statement", 0, p.statement)
	if err != nil {
		_ = p.inst.Fail(ctx, p.text, nil, err)
		return err
	}
	if end != len(p.text) {
		return p.inst.Fail(ctx, p.text, nil, nil)
	}
	return p.inst.End(ctx, p.text, []Match{{Operation: "statement", Start: 0, End: end}})
}

func (p *arithParser) rule(ctx context.Context, op string, pos int, body func(context.Context, int) (int, error)) (int, error) {
	if err := p.inst.PreAttempt(ctx, p.text, pos, op); err != nil {
		return -1, err
	}
	end, err := body(ctx, pos)
	if err != nil {
		return -1, err
	}
	var m *Match
	if end >= 0 {
		m = &Match{Operation: op, Start: pos, End: end}
	}
	if err := p.inst.PostAttempt(ctx, p.text, pos, op, m); err != nil {
		return -1, err
	}
	return end, nil
}

func (p *arithParser) statement(ctx context.Context, pos int) (int, error) {
	return p.rule(ctx, "expression", pos, p.expression)
}

func (p *arithParser) expression(ctx context.Context, pos int) (int, error) {
	end, err := p.rule(ctx, "term", pos, p.term)
	if err != nil || end < 0 {
		return end, err
	}
	for end < len(p.text) && p.text[end] == '+' {
		next, err := p.rule(ctx, "term", end+1, p.term)
		if err != nil {
			return -1, err
		}
		if next < 0 {
			return end, nil
		}
		end = next
	}
	return end, nil
}

func (p *arithParser) term(_ context.Context, pos int) (int, error) {
	if pos < len(p.text) && p.text[pos] >= '0' && p.text[pos] <= '9' {
		return pos + 1, nil
	}
	return -1, nil
}

// startParse runs the arith parser on its own goroutine.
func startParse(ctx context.Context, inst Instrumentation, text string) <-chan error {
	done := make(chan error, 1)
	go func() {
		p := &arithParser{inst: inst, text: text}
		done <- p.parse(ctx)
	}()
	return done
}

func newTestController(t *testing.T, cfg *Config, opts ...Option) *Controller {
	t.Helper()
	c, err := NewController(cfg, internallog.Discard(), opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func waitSuspended(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := c.WaitSuspended(ctx)
	require.NoError(t, err, "expected the parser to suspend")
	require.True(t, snap.Suspended)
	require.NotNil(t, snap.Suspension)
	return snap
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("parser did not finish")
		return nil
	}
}
