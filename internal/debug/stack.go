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

// Frame is one in-progress operation attempt on the call stack.
type Frame struct {
	// ID identifies the frame within a session. Sibling attempts of the
	// same operation at the same depth have different IDs.
	ID int64 `json:"id"`

	// Operation is the grammar operation being attempted.
	Operation string `json:"operation"`

	// Start is the cursor position at entry.
	Start int `json:"start"`

	// Depth is the nesting depth; the root attempt has depth 0.
	Depth int `json:"depth"`
}

// CallStack tracks nested operation attempts as the parser recurses.
// It is not safe for concurrent use; the Controller guards it.
type CallStack struct {
	frames []Frame
	nextID int64
}

// Push records a new attempt of op starting at start and returns its frame.
func (s *CallStack) Push(op string, start int) Frame {
	s.nextID++
	f := Frame{
		ID:        s.nextID,
		Operation: op,
		Start:     start,
		Depth:     len(s.frames),
	}
	s.frames = append(s.frames, f)
	return f
}

// Pop removes the top frame, which must be the attempt of op at start.
// On mismatch the stack is left unchanged and a *ProtocolViolationError is
// returned.
func (s *CallStack) Pop(op string, start int) (Frame, error) {
	top, ok := s.Top()
	if !ok {
		return Frame{}, &ProtocolViolationError{Operation: op, Start: start}
	}
	if top.Operation != op || top.Start != start {
		return Frame{}, &ProtocolViolationError{Expected: &top, Operation: op, Start: start}
	}
	s.frames = s.frames[:len(s.frames)-1]
	return top, nil
}

// Top returns the innermost frame.
func (s *CallStack) Top() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Parent returns the frame enclosing the innermost one.
func (s *CallStack) Parent() (Frame, bool) {
	if len(s.frames) < 2 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-2], true
}

// Depth returns the number of frames on the stack.
func (s *CallStack) Depth() int {
	return len(s.frames)
}

// Contains reports whether the frame with the given ID is still live.
func (s *CallStack) Contains(id int64) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].ID == id {
			return true
		}
	}
	return false
}

// Frames returns a copy of the stack, root first.
func (s *CallStack) Frames() []Frame {
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Reset empties the stack and restarts frame numbering.
func (s *CallStack) Reset() {
	s.frames = nil
	s.nextID = 0
}
