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
	"sync"
)

// Registry is an ordered collection of breakpoints. Insertion order decides
// which breakpoint is reported when several match the same attempt.
type Registry struct {
	mu          sync.RWMutex
	breakpoints []*Breakpoint
	nextID      int
}

// NewRegistry creates an empty breakpoint registry.
func NewRegistry() *Registry {
	return &Registry{nextID: 1}
}

// Add compiles def and appends it to the registry. Nothing is added when a
// pattern fails to compile.
func (r *Registry) Add(def Definition) (*Breakpoint, error) {
	bp, err := NewBreakpoint(def)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bp.ID = r.allocateID()
	r.breakpoints = append(r.breakpoints, bp)
	return bp.clone(), nil
}

// allocateID allocates a new breakpoint ID. Caller holds r.mu.
func (r *Registry) allocateID() int {
	if r.nextID == 0 {
		r.nextID = 1
	}
	id := r.nextID
	r.nextID++
	return id
}

// Remove deletes the breakpoint with the given ID.
func (r *Registry) Remove(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, bp := range r.breakpoints {
		if bp.ID == id {
			r.breakpoints = append(r.breakpoints[:i:i], r.breakpoints[i+1:]...)
			return nil
		}
	}
	return &NotFoundError{ID: id}
}

// SetEnabled enables or disables the breakpoint with the given ID.
func (r *Registry) SetEnabled(id int, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bp := r.find(id)
	if bp == nil {
		return &NotFoundError{ID: id}
	}
	bp.Enabled = enabled
	return nil
}

// Get returns a copy of the breakpoint with the given ID.
func (r *Registry) Get(id int) (*Breakpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bp := r.find(id)
	if bp == nil {
		return nil, false
	}
	return bp.clone(), true
}

func (r *Registry) find(id int) *Breakpoint {
	for _, bp := range r.breakpoints {
		if bp.ID == id {
			return bp
		}
	}
	return nil
}

// List returns copies of all breakpoints in insertion order.
func (r *Registry) List() []Breakpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Breakpoint, 0, len(r.breakpoints))
	for _, bp := range r.breakpoints {
		out = append(out, *bp)
	}
	return out
}

// Len returns the number of registered breakpoints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.breakpoints)
}

// Clear removes all breakpoints. IDs are not reused.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.breakpoints = nil
	r.mu.Unlock()
}

// Replace swaps the whole registry content for defs. Either every
// definition compiles and the registry is replaced, or it is left as is.
func (r *Registry) Replace(defs []Definition) error {
	compiled := make([]*Breakpoint, 0, len(defs))
	for _, def := range defs {
		bp, err := NewBreakpoint(def)
		if err != nil {
			return err
		}
		compiled = append(compiled, bp)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bp := range compiled {
		bp.ID = r.allocateID()
	}
	r.breakpoints = compiled
	return nil
}

// Match returns a copy of the first enabled breakpoint accepting an attempt
// of op at cursor within text, or nil when none does.
func (r *Registry) Match(text string, cursor int, op string) *Breakpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.match(text, cursor, op).clone()
}

func (r *Registry) match(text string, cursor int, op string) *Breakpoint {
	for _, bp := range r.breakpoints {
		if !bp.Enabled {
			continue
		}
		if bp.Matches(text, cursor, op) {
			return bp
		}
	}
	return nil
}

// recordHit increments the hit count of the breakpoint with the given ID and
// returns a copy of it.
func (r *Registry) recordHit(id int) *Breakpoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	bp := r.find(id)
	if bp == nil {
		return nil
	}
	bp.HitCount++
	return bp.clone()
}
