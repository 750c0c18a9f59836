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
	"fmt"
	"slices"
	"strings"

	"github.com/tombee/parsedbg/internal/debug"
)

// MaxDepth bounds rule nesting. Left-recursive grammars hit it instead of
// overflowing the stack.
const MaxDepth = 1000

// Result is a successful parse.
type Result struct {
	// Matches lists every successful rule attempt that is part of the
	// parse, in completion order. The start rule is last.
	Matches []debug.Match
}

// SyntaxError reports input the grammar does not accept.
type SyntaxError struct {
	// Offset is the furthest position any terminal was tried at.
	Offset int
	Line   int
	Column int

	// Expected lists the terminals tried at Offset.
	Expected []string

	// Consumed is how far the start rule matched.
	Consumed int
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column)
	if len(e.Expected) > 0 {
		msg += ": expected " + strings.Join(e.Expected, " or ")
	}
	return msg
}

// ErrorType returns the error category.
func (e *SyntaxError) ErrorType() string {
	return "syntax"
}

// DepthError is returned when rule nesting exceeds MaxDepth.
type DepthError struct {
	Rule   string
	Offset int
}

// Error implements the error interface.
func (e *DepthError) Error() string {
	return fmt.Sprintf("rule nesting exceeds %d at %s@%d (left recursion?)", MaxDepth, e.Rule, e.Offset)
}

// Parse parses text starting at the grammar's start rule and reports
// every rule attempt to inst. A nil inst disables instrumentation. An
// error returned by inst aborts the parse and is returned as is.
func (g *Grammar) Parse(ctx context.Context, text string, inst debug.Instrumentation) (*Result, error) {
	if inst == nil {
		inst = debug.Nop{}
	}
	p := &parser{ctx: ctx, g: g, text: text, inst: inst, furthest: -1}

	if err := inst.Start(ctx, text); err != nil {
		return nil, err
	}

	end, err := p.rule(g.Start, 0)
	if err != nil {
		_ = inst.Fail(ctx, text, p.matches, err)
		return nil, err
	}

	if end != len(text) {
		serr := p.syntaxError(end)
		if err := inst.Fail(ctx, text, p.matches, serr); err != nil {
			return nil, err
		}
		return nil, serr
	}

	if err := inst.End(ctx, text, p.matches); err != nil {
		return nil, err
	}
	return &Result{Matches: p.matches}, nil
}

type parser struct {
	ctx     context.Context
	g       *Grammar
	text    string
	inst    debug.Instrumentation
	matches []debug.Match
	depth   int

	furthest int
	expected []string
}

// rule attempts the named rule at pos. It returns the end offset, or -1
// when the rule does not match.
func (p *parser) rule(name string, pos int) (int, error) {
	if p.depth >= MaxDepth {
		return -1, &DepthError{Rule: name, Offset: pos}
	}
	if err := p.inst.PreAttempt(p.ctx, p.text, pos, name); err != nil {
		return -1, err
	}

	p.depth++
	mark := len(p.matches)
	end, err := p.eval(p.g.Rules[name], pos)
	p.depth--
	if err != nil {
		return -1, err
	}

	var m *debug.Match
	if end >= 0 {
		m = &debug.Match{Operation: name, Start: pos, End: end}
	} else {
		p.matches = p.matches[:mark]
	}
	if err := p.inst.PostAttempt(p.ctx, p.text, pos, name, m); err != nil {
		return -1, err
	}
	if m != nil {
		p.matches = append(p.matches, *m)
	}
	return end, nil
}

func (p *parser) eval(e *Expr, pos int) (int, error) {
	switch {
	case e.Lit != "":
		if strings.HasPrefix(p.text[pos:], e.Lit) {
			return pos + len(e.Lit), nil
		}
		p.fail(pos, fmt.Sprintf("%q", e.Lit))
		return -1, nil

	case e.re != nil:
		if loc := e.re.FindStringIndex(p.text[pos:]); loc != nil {
			return pos + loc[1], nil
		}
		p.fail(pos, "/"+e.Re+"/")
		return -1, nil

	case e.Ref != "":
		return p.rule(e.Ref, pos)

	case e.Seq != nil:
		mark := len(p.matches)
		cur := pos
		for _, sub := range e.Seq {
			next, err := p.eval(sub, cur)
			if err != nil {
				return -1, err
			}
			if next < 0 {
				p.matches = p.matches[:mark]
				return -1, nil
			}
			cur = next
		}
		return cur, nil

	case e.Alt != nil:
		for _, sub := range e.Alt {
			next, err := p.eval(sub, pos)
			if err != nil || next >= 0 {
				return next, err
			}
		}
		return -1, nil

	case e.Opt != nil:
		next, err := p.eval(e.Opt, pos)
		if err != nil {
			return -1, err
		}
		if next < 0 {
			return pos, nil
		}
		return next, nil

	case e.Many != nil:
		cur := pos
		for {
			next, err := p.eval(e.Many, cur)
			if err != nil {
				return -1, err
			}
			// Stop on failure or on an empty match that would loop forever.
			if next <= cur {
				return cur, nil
			}
			cur = next
		}
	}
	return -1, fmt.Errorf("uncompiled expression %s", e)
}

// fail records a terminal failure for error reporting.
func (p *parser) fail(pos int, expected string) {
	switch {
	case pos > p.furthest:
		p.furthest = pos
		p.expected = []string{expected}
	case pos == p.furthest && !slices.Contains(p.expected, expected):
		p.expected = append(p.expected, expected)
	}
}

func (p *parser) syntaxError(consumed int) *SyntaxError {
	offset := max(p.furthest, consumed)
	expected := p.expected
	if offset != p.furthest {
		expected = []string{"end of input"}
	}
	offset = max(offset, 0)
	consumed = max(consumed, 0)
	line, col := position(p.text, offset)
	return &SyntaxError{
		Offset:   offset,
		Line:     line,
		Column:   col,
		Expected: expected,
		Consumed: consumed,
	}
}

// position converts a byte offset to a 1-based line and column.
func position(text string, offset int) (int, int) {
	offset = min(max(offset, 0), len(text))
	before := text[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return line, col
}
