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
	"slices"
)

// OperationCatalog is a read-only snapshot of the operation names a parser
// knows about. It populates operation-filter choices and validates them.
type OperationCatalog struct {
	names []string
}

// NewOperationCatalog builds a sorted, de-duplicated catalog.
func NewOperationCatalog(names []string) *OperationCatalog {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	return &OperationCatalog{names: slices.Compact(sorted)}
}

// Names returns the operation names in sorted order.
func (c *OperationCatalog) Names() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.names)
}

// Contains reports whether op is a known operation.
func (c *OperationCatalog) Contains(op string) bool {
	if c == nil {
		return false
	}
	_, found := slices.BinarySearch(c.names, op)
	return found
}

// Len returns the number of operations in the catalog.
func (c *OperationCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Validate checks that every operation filter in defs names a known
// operation. A nil catalog accepts everything.
func (c *OperationCatalog) Validate(defs []Definition) error {
	if c == nil {
		return nil
	}

	var unknown []string
	for _, def := range defs {
		if def.Operation != "" && !c.Contains(def.Operation) {
			unknown = append(unknown, def.Operation)
		}
	}

	if len(unknown) > 0 {
		return &UnknownOperationError{Operations: unknown}
	}
	return nil
}
