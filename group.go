// Copyright 2025 Agentic World, LLC (Sherin Thomas)
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

package htmlentity

import "fmt"

// GroupSpec describes a group before it is built. Every method returns an
// updated copy.
type GroupSpec struct {
	start        Filter
	end          Filter
	excludeStart bool
	includeEnd   bool
	parent       *Group
}

// StartAt begins a group specification whose span opens at elements matching
// start. The start element is inclusive unless ExcludeStart is used.
//
// Without EndAt the span covers the start element's subtree only.
func StartAt(start Filter) GroupSpec {
	return GroupSpec{start: start}
}

// EndAt closes the span at the next element matching end. The end element is
// exclusive unless IncludeEnd is used.
func (s GroupSpec) EndAt(end Filter) GroupSpec {
	s.end = end
	return s
}

// ExcludeStart hides the start element itself while keeping its descendants
// inside the span.
func (s GroupSpec) ExcludeStart() GroupSpec {
	s.excludeStart = true
	return s
}

// IncludeEnd keeps the end element and its subtree inside the span.
func (s GroupSpec) IncludeEnd() GroupSpec {
	s.includeEnd = true
	return s
}

// Inside nests the group in parent. The group only sees elements visible to
// parent.
func (s GroupSpec) Inside(parent *Group) GroupSpec {
	s.parent = parent
	return s
}

// Build validates the specification and returns the immutable group.
func (s GroupSpec) Build() (*Group, error) {
	if s.start.IsZero() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, ErrMissingStart)
	}
	if err := s.start.validate(); err != nil {
		return nil, err
	}
	if !s.end.IsZero() {
		if err := s.end.validate(); err != nil {
			return nil, err
		}
	} else if s.includeEnd {
		return nil, configError("group includes an end element but has none")
	}
	depth := 0
	if s.parent != nil {
		depth = s.parent.depth + 1
	}
	return &Group{spec: s, depth: depth}, nil
}

// Group restricts the elements visible to the paths registered against it.
// A Group is immutable and may be shared by any number of paths and entities.
type Group struct {
	spec  GroupSpec
	depth int
}

// Parent returns the enclosing group, if any.
func (g *Group) Parent() *Group {
	return g.spec.parent
}

// groupState tracks one group's span during a single traversal.
type groupState struct {
	open bool
	// scope is the start element of a group without end; the span closes
	// when traversal leaves it
	scope *Element
	// closeAfter is an inclusive end element; the span closes when traversal
	// leaves it
	closeAfter *Element
}

func (st *groupState) reset() {
	st.open = false
	st.scope = nil
	st.closeAfter = nil
}

// groupTracker evaluates group spans in pre-order. Groups are ordered parents
// first so that a parent's visibility is known before its children update.
type groupTracker struct {
	groups  []*Group
	state   map[*Group]*groupState
	visible map[*Group]bool
}

func newGroupTracker(groups []*Group) *groupTracker {
	t := &groupTracker{
		state:   make(map[*Group]*groupState),
		visible: make(map[*Group]bool),
	}
	for _, g := range groups {
		t.add(g)
	}
	// stable insertion sort by depth keeps registration order within a level
	for i := 1; i < len(t.groups); i++ {
		for j := i; j > 0 && t.groups[j].depth < t.groups[j-1].depth; j-- {
			t.groups[j], t.groups[j-1] = t.groups[j-1], t.groups[j]
		}
	}
	return t
}

func (t *groupTracker) add(g *Group) {
	for ; g != nil; g = g.spec.parent {
		if _, ok := t.state[g]; ok {
			return
		}
		t.state[g] = &groupState{}
		t.groups = append(t.groups, g)
	}
}

// enter updates every group for e and records whether e is inside its span.
func (t *groupTracker) enter(e *Element) {
	for _, g := range t.groups {
		st := t.state[g]
		if p := g.spec.parent; p != nil && !t.visible[p] {
			st.reset()
			t.visible[g] = false
			continue
		}

		vis := st.open
		if st.open && st.closeAfter == nil && !g.spec.end.IsZero() && g.spec.end.matches(e) {
			if g.spec.includeEnd {
				st.closeAfter = e
			} else {
				st.open = false
				vis = false
			}
		}
		if !st.open && g.spec.start.matches(e) {
			st.open = true
			vis = !g.spec.excludeStart
			if g.spec.end.IsZero() {
				st.scope = e
			}
		}
		t.visible[g] = vis
	}
}

// exit closes spans bounded by e's subtree. Closing a span also closes the
// spans of every group nested inside it.
func (t *groupTracker) exit(e *Element) {
	var closed map[*Group]bool
	for _, g := range t.groups {
		st := t.state[g]
		if st.scope == e || st.closeAfter == e || closed[g.spec.parent] {
			st.reset()
			if closed == nil {
				closed = make(map[*Group]bool)
			}
			closed[g] = true
		}
	}
}

// isVisible reports whether the element last entered lies within g and all
// of its enclosing groups.
func (t *groupTracker) isVisible(g *Group) bool {
	for ; g != nil; g = g.spec.parent {
		if !t.visible[g] {
			return false
		}
	}
	return true
}
