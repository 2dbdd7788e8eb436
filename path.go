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

import (
	"github.com/antchfx/xpath"
)

// Path locates the elements a field reads its values from. It is an ordered
// sequence of element filters from an outer element down to the target,
// plus the content reader and transforms applied to each match.
//
// Paths are immutable: every method returns an updated copy, so a partial
// path can be reused as the prefix of several fields.
type Path struct {
	steps      []Filter
	group      *Group
	reader     contentReader
	transforms []Transform
	filters    []StringFilter
	after      []string
}

// Match starts a path at any element named tag that satisfies preds.
func Match(tag string, preds ...Predicate) Path {
	return MatchFilter(Tag(tag, preds...))
}

// MatchFilter starts a path at any element accepted by f.
func MatchFilter(f Filter) Path {
	return Path{steps: []Filter{f}}
}

func (p Path) clone() Path {
	p.steps = append([]Filter(nil), p.steps...)
	p.transforms = append([]Transform(nil), p.transforms...)
	p.filters = append([]StringFilter(nil), p.filters...)
	p.after = append([]string(nil), p.after...)
	return p
}

// Then adds a step matching descendants of the previous step at any depth.
func (p Path) Then(tag string, preds ...Predicate) Path {
	out := p.clone()
	f := Tag(tag, preds...)
	f.rel = relDescendant
	out.steps = append(out.steps, f)
	return out
}

// Child adds a step matching only direct children of the previous step.
func (p Path) Child(tag string, preds ...Predicate) Path {
	out := p.clone()
	f := Tag(tag, preds...)
	f.rel = relChild
	out.steps = append(out.steps, f)
	return out
}

// Within restricts the path to the span of g.
func (p Path) Within(g *Group) Path {
	out := p.clone()
	out.group = g
	return out
}

// ReadText reads the whitespace-normalized text of the matched element.
// This is the default.
func (p Path) ReadText() Path {
	return p.withReader(contentReader{kind: readText})
}

// ReadOwnText reads only the direct text children of the matched element.
func (p Path) ReadOwnText() Path {
	return p.withReader(contentReader{kind: readOwnText})
}

// ReadAttr reads attribute name of the matched element. Elements without the
// attribute produce no value.
func (p Path) ReadAttr(name string) Path {
	return p.withReader(contentReader{kind: readAttr, arg: name})
}

// ReadHTML reads the inner HTML of the matched element.
func (p Path) ReadHTML() Path {
	return p.withReader(contentReader{kind: readHTML})
}

// ReadOuterHTML reads the HTML of the matched element including its tag.
func (p Path) ReadOuterHTML() Path {
	return p.withReader(contentReader{kind: readOuterHTML})
}

// ReadXPath evaluates expr relative to the matched element and reads the text
// of every resulting node.
func (p Path) ReadXPath(expr string) Path {
	compiled, err := xpath.Compile(expr)
	return p.withReader(contentReader{kind: readXPath, arg: expr, expr: compiled, err: err})
}

// ReadMainText reads only the main content text inside the matched element,
// skipping navigation, sidebars and other boilerplate.
func (p Path) ReadMainText() Path {
	return p.withReader(contentReader{kind: readMainText})
}

func (p Path) withReader(r contentReader) Path {
	out := p.clone()
	out.reader = r
	return out
}

// Transform appends transformation steps.
func (p Path) Transform(ts ...Transform) Path {
	out := p.clone()
	out.transforms = append(out.transforms, ts...)
	return out
}

// Filter drops values rejected by f. Filters run after all transforms.
func (p Path) Filter(f StringFilter) Path {
	out := p.clone()
	out.filters = append(out.filters, f)
	return out
}

// After makes the path match only once every named field of the same
// entity holds a value in the row being assembled. Silent fields are the
// usual anchors.
func (p Path) After(fields ...string) Path {
	out := p.clone()
	out.after = append(out.after, fields...)
	return out
}

// Group returns the group the path is restricted to, or nil.
func (p Path) Group() *Group {
	return p.group
}

// validate rejects paths that cannot be evaluated. known holds the fields
// already registered on the owning entity.
func (p Path) validate(known map[string]*Field) error {
	if len(p.steps) == 0 {
		return configError("path has no element filter")
	}
	for _, f := range p.steps {
		if err := f.validate(); err != nil {
			return err
		}
	}
	if p.reader.err != nil {
		return configError("xpath %q: %v", p.reader.arg, p.reader.err)
	}
	if p.reader.kind == readAttr && p.reader.arg == "" {
		return configError("attribute reader without attribute name")
	}
	for _, t := range p.transforms {
		if t.err != nil {
			return configError("%s transform: %v", t.name, t.err)
		}
		if t.apply == nil {
			return configError("%s transform has no function", t.name)
		}
	}
	for _, f := range p.filters {
		if f == nil {
			return configError("nil value filter")
		}
	}
	for _, name := range p.after {
		if f, ok := known[name]; !ok || f.Kind == Constant {
			return configError("path gated on unknown field %q", name)
		}
	}
	return nil
}

// matches reports whether the filter sequence ends at e, given e's element
// ancestors from the root down.
func (p Path) matches(e *Element, ancestors []*Element) bool {
	last := p.steps[len(p.steps)-1]
	if !last.matches(e) {
		return false
	}
	return matchAncestors(p.steps[:len(p.steps)-1], last.rel, ancestors)
}

// matchAncestors matches the remaining steps bottom-up against ancestors.
// rel is the relation between the step just matched and the next one up.
func matchAncestors(steps []Filter, rel relation, ancestors []*Element) bool {
	if len(steps) == 0 {
		return true
	}
	step := steps[len(steps)-1]
	rest := steps[:len(steps)-1]
	if rel == relChild {
		n := len(ancestors)
		return n > 0 && step.matches(ancestors[n-1]) && matchAncestors(rest, step.rel, ancestors[:n-1])
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		if step.matches(ancestors[i]) && matchAncestors(rest, step.rel, ancestors[:i]) {
			return true
		}
	}
	return false
}

// extract reads the values of a matched element through the path's pipeline.
func (p Path) extract(e *Element) []string {
	values := applyTransforms(p.reader.read(e), p.transforms)
	if len(p.filters) == 0 {
		return values
	}
	out := values[:0]
next:
	for _, v := range values {
		for _, f := range p.filters {
			if !f(v) {
				continue next
			}
		}
		out = append(out, v)
	}
	return out
}
