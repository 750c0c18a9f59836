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

// Package grammar interprets small PEG-style grammars written in YAML and
// parses text with them by recursive descent. Every rule reference is
// reported to a debug.Instrumentation as an operation attempt, which makes
// the interpreter a convenient target for the debugger.
//
// A grammar names a start rule and maps rule names to expressions:
//
//	start: statement
//	rules:
//	  statement:
//	    ref: expression
//	  expression:
//	    seq:
//	      - ref: term
//	      - many:
//	          seq: [{lit: "+"}, {ref: term}]
//	  term:
//	    re: "[0-9]+"
//
// Each expression sets exactly one of lit, re, seq, alt, ref, opt or many.
// Alternatives are ordered and the first match wins.
package grammar

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Grammar is a compiled grammar.
type Grammar struct {
	// Start is the rule a parse begins with.
	Start string `yaml:"start"`

	// Rules maps rule names to their expressions.
	Rules map[string]*Expr `yaml:"rules"`
}

// Expr is a grammar expression.
type Expr struct {
	Lit  string  `yaml:"lit,omitempty"`
	Re   string  `yaml:"re,omitempty"`
	Seq  []*Expr `yaml:"seq,omitempty"`
	Alt  []*Expr `yaml:"alt,omitempty"`
	Ref  string  `yaml:"ref,omitempty"`
	Opt  *Expr   `yaml:"opt,omitempty"`
	Many *Expr   `yaml:"many,omitempty"`

	re *regexp.Regexp
}

// Load parses and compiles a YAML grammar.
func Load(data []byte) (*Grammar, error) {
	var g Grammar
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse grammar: %w", err)
	}
	if err := g.Compile(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Compile validates the grammar and compiles its regular expressions.
// Load calls it; grammars built in code must call it before parsing.
func (g *Grammar) Compile() error {
	if len(g.Rules) == 0 {
		return fmt.Errorf("grammar has no rules")
	}
	if g.Start == "" {
		return fmt.Errorf("grammar has no start rule")
	}
	if _, ok := g.Rules[g.Start]; !ok {
		return fmt.Errorf("start rule %q is not defined", g.Start)
	}

	for _, name := range g.Operations() {
		if err := g.compileExpr(g.Rules[name]); err != nil {
			return fmt.Errorf("rule %s: %w", name, err)
		}
	}
	return nil
}

func (g *Grammar) compileExpr(e *Expr) error {
	if e == nil {
		return fmt.Errorf("empty expression")
	}
	if n := e.kinds(); n != 1 {
		return fmt.Errorf("expression must set exactly one of lit, re, seq, alt, ref, opt, many (got %d)", n)
	}

	switch {
	case e.Re != "":
		re, err := regexp.Compile(`\A(?:` + e.Re + `)`)
		if err != nil {
			if _, rawErr := regexp.Compile(e.Re); rawErr != nil {
				err = rawErr
			}
			return fmt.Errorf("invalid pattern %q: %w", e.Re, err)
		}
		e.re = re
	case e.Ref != "":
		if _, ok := g.Rules[e.Ref]; !ok {
			return fmt.Errorf("reference to undefined rule %q", e.Ref)
		}
	case e.Seq != nil:
		for _, sub := range e.Seq {
			if err := g.compileExpr(sub); err != nil {
				return err
			}
		}
	case e.Alt != nil:
		for _, sub := range e.Alt {
			if err := g.compileExpr(sub); err != nil {
				return err
			}
		}
	case e.Opt != nil:
		return g.compileExpr(e.Opt)
	case e.Many != nil:
		return g.compileExpr(e.Many)
	}
	return nil
}

func (e *Expr) kinds() int {
	n := 0
	for _, set := range []bool{
		e.Lit != "", e.Re != "", e.Seq != nil, e.Alt != nil,
		e.Ref != "", e.Opt != nil, e.Many != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Operations returns the rule names, sorted. They are the operations the
// parser reports and the catalog breakpoints are validated against.
func (g *Grammar) Operations() []string {
	names := make([]string, 0, len(g.Rules))
	for name := range g.Rules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// String renders an expression in a compact PEG-like notation.
func (e *Expr) String() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Lit != "":
		return fmt.Sprintf("%q", e.Lit)
	case e.Re != "":
		return "/" + e.Re + "/"
	case e.Ref != "":
		return e.Ref
	case e.Opt != nil:
		return e.Opt.group() + "?"
	case e.Many != nil:
		return e.Many.group() + "*"
	case e.Seq != nil:
		return join(e.Seq, " ")
	case e.Alt != nil:
		return join(e.Alt, " / ")
	}
	return ""
}

func (e *Expr) group() string {
	if len(e.Seq) > 1 || len(e.Alt) > 1 {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func join(exprs []*Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, sub := range exprs {
		parts[i] = sub.group()
	}
	return strings.Join(parts, sep)
}
