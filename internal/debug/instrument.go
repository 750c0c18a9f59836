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

import "context"

// Match describes a successful operation attempt.
type Match struct {
	Operation string `json:"operation"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// Instrumentation is the set of events a parser reports while parsing.
//
// Events for one session arrive on a single goroutine: Start once, any
// number of properly nested PreAttempt/PostAttempt pairs, then exactly one
// of End or Fail. Each call may block while the session is suspended and
// returns only once the suspension resolves. A non-nil error means the
// parser should stop parsing.
type Instrumentation interface {
	Start(ctx context.Context, text string) error
	PreAttempt(ctx context.Context, text string, index int, op string) error
	PostAttempt(ctx context.Context, text string, start int, op string, m *Match) error
	End(ctx context.Context, text string, matches []Match) error
	Fail(ctx context.Context, text string, matches []Match, cause error) error
}

// Nop is an Instrumentation that ignores every event.
type Nop struct{}

func (Nop) Start(context.Context, string) error                            { return nil }
func (Nop) PreAttempt(context.Context, string, int, string) error          { return nil }
func (Nop) PostAttempt(context.Context, string, int, string, *Match) error { return nil }
func (Nop) End(context.Context, string, []Match) error                     { return nil }
func (Nop) Fail(context.Context, string, []Match, error) error             { return nil }

var (
	_ Instrumentation = Nop{}
	_ Instrumentation = (*Controller)(nil)
)
