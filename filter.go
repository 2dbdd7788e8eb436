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
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
)

type predicateKind int

const (
	predAttrEquals predicateKind = iota
	predAttrPresent
	predAttrAbsent
	predAttrContains
	predAttrPrefix
	predAttrSuffix
	predAttrMatches
	predClass
	predTextEquals
	predTextContains
	predTextMatches
	predSelector
	predNth
)

// Predicate is a single attribute or content condition an element must
// satisfy. Predicates are immutable and built with the functions below;
// invalid arguments are reported when the owning path is registered.
type Predicate struct {
	kind  predicateKind
	name  string
	value string
	index int
	re    *regexp.Regexp
	sel   cascadia.Sel
	err   error
}

// Attr requires attribute name to equal value.
func Attr(name, value string) Predicate {
	return Predicate{kind: predAttrEquals, name: strings.ToLower(name), value: value}
}

// HasAttr requires attribute name to be present.
func HasAttr(name string) Predicate {
	return Predicate{kind: predAttrPresent, name: strings.ToLower(name)}
}

// NoAttr requires attribute name to be absent.
func NoAttr(name string) Predicate {
	return Predicate{kind: predAttrAbsent, name: strings.ToLower(name)}
}

// AttrContains requires attribute name to contain value.
func AttrContains(name, value string) Predicate {
	return Predicate{kind: predAttrContains, name: strings.ToLower(name), value: value}
}

// AttrStartsWith requires attribute name to start with value.
func AttrStartsWith(name, value string) Predicate {
	return Predicate{kind: predAttrPrefix, name: strings.ToLower(name), value: value}
}

// AttrEndsWith requires attribute name to end with value.
func AttrEndsWith(name, value string) Predicate {
	return Predicate{kind: predAttrSuffix, name: strings.ToLower(name), value: value}
}

// AttrMatches requires attribute name to match the regular expression pattern.
func AttrMatches(name, pattern string) Predicate {
	re, err := regexp.Compile(pattern)
	return Predicate{kind: predAttrMatches, name: strings.ToLower(name), value: pattern, re: re, err: err}
}

// ID requires the id attribute to equal id.
func ID(id string) Predicate {
	return Attr("id", id)
}

// Class requires class to be one of the element's classes.
func Class(class string) Predicate {
	return Predicate{kind: predClass, name: "class", value: class}
}

// TextEquals requires the element's normalized text to equal text.
func TextEquals(text string) Predicate {
	return Predicate{kind: predTextEquals, value: text}
}

// TextContains requires the element's text to contain text.
func TextContains(text string) Predicate {
	return Predicate{kind: predTextContains, value: text}
}

// TextMatches requires the element's text to match the regular expression pattern.
func TextMatches(pattern string) Predicate {
	re, err := regexp.Compile(pattern)
	return Predicate{kind: predTextMatches, value: pattern, re: re, err: err}
}

// Selector requires the element to match a CSS selector.
func Selector(css string) Predicate {
	sel, err := cascadia.Parse(css)
	return Predicate{kind: predSelector, value: css, sel: sel, err: err}
}

// Nth requires the element to be the n-th (1-based) of its siblings with the
// same tag name.
func Nth(n int) Predicate {
	return Predicate{kind: predNth, index: n}
}

func (p Predicate) matches(e *Element) bool {
	switch p.kind {
	case predAttrEquals:
		v, ok := e.Attrs[p.name]
		return ok && v == p.value
	case predAttrPresent:
		_, ok := e.Attrs[p.name]
		return ok
	case predAttrAbsent:
		_, ok := e.Attrs[p.name]
		return !ok
	case predAttrContains:
		v, ok := e.Attrs[p.name]
		return ok && strings.Contains(v, p.value)
	case predAttrPrefix:
		v, ok := e.Attrs[p.name]
		return ok && strings.HasPrefix(v, p.value)
	case predAttrSuffix:
		v, ok := e.Attrs[p.name]
		return ok && strings.HasSuffix(v, p.value)
	case predAttrMatches:
		v, ok := e.Attrs[p.name]
		return ok && p.re.MatchString(v)
	case predClass:
		for _, c := range strings.Fields(e.Attrs["class"]) {
			if c == p.value {
				return true
			}
		}
		return false
	case predTextEquals:
		return e.Text() == p.value
	case predTextContains:
		return strings.Contains(e.Text(), p.value)
	case predTextMatches:
		return p.re.MatchString(e.Text())
	case predSelector:
		return e.node != nil && p.sel.Match(e.node)
	case predNth:
		return e.Index == p.index
	}
	return false
}

type relation int

const (
	// relDescendant matches at any depth below the previous step
	relDescendant relation = iota
	// relChild matches only direct children of the previous step
	relChild
)

// Filter selects elements by tag name and predicates. The tag "*" matches
// any element.
type Filter struct {
	tag   string
	preds []Predicate
	rel   relation
}

// Tag returns a filter for elements named tag satisfying every predicate.
func Tag(tag string, preds ...Predicate) Filter {
	return Filter{tag: strings.ToLower(strings.TrimSpace(tag)), preds: append([]Predicate(nil), preds...)}
}

// With returns a copy of f with extra predicates.
func (f Filter) With(preds ...Predicate) Filter {
	out := f
	out.preds = append(append([]Predicate(nil), f.preds...), preds...)
	return out
}

// IsZero reports whether f was never set.
func (f Filter) IsZero() bool {
	return f.tag == "" && len(f.preds) == 0
}

func (f Filter) matches(e *Element) bool {
	if e.Kind != ElementNode {
		return false
	}
	if f.tag != "*" && f.tag != e.Tag {
		return false
	}
	for _, p := range f.preds {
		if !p.matches(e) {
			return false
		}
	}
	return true
}

// validate rejects filters that cannot be evaluated or can never match.
func (f Filter) validate() error {
	if f.tag == "" {
		return configError("element filter without tag name")
	}

	equals := make(map[string]string)
	present := make(map[string]bool)
	absent := make(map[string]bool)
	var text *string
	nth := 0

	for _, p := range f.preds {
		if p.err != nil {
			return configError("<%s> predicate %q: %v", f.tag, p.value, p.err)
		}
		switch p.kind {
		case predAttrEquals, predAttrPresent, predAttrAbsent, predAttrContains,
			predAttrPrefix, predAttrSuffix, predAttrMatches:
			if p.name == "" {
				return configError("<%s> attribute predicate without attribute name", f.tag)
			}
		case predClass:
			if p.value == "" || strings.ContainsAny(p.value, " \t\n") {
				return configError("<%s> invalid class name %q", f.tag, p.value)
			}
		case predNth:
			if p.index < 1 {
				return configError("<%s> position must be positive, got %d", f.tag, p.index)
			}
		}

		switch p.kind {
		case predAttrEquals:
			if prev, ok := equals[p.name]; ok && prev != p.value {
				return configError("<%s> attribute %q cannot equal both %q and %q", f.tag, p.name, prev, p.value)
			}
			equals[p.name] = p.value
			present[p.name] = true
		case predAttrAbsent:
			absent[p.name] = true
		case predClass:
			present["class"] = true
		case predTextEquals:
			if text != nil && *text != p.value {
				return configError("<%s> text cannot equal both %q and %q", f.tag, *text, p.value)
			}
			v := p.value
			text = &v
		case predNth:
			if nth != 0 && nth != p.index {
				return configError("<%s> cannot be at positions %d and %d", f.tag, nth, p.index)
			}
			nth = p.index
		default:
			if p.name != "" {
				present[p.name] = true
			}
		}
	}

	for name := range absent {
		if present[name] {
			return configError("<%s> attribute %q required both present and absent", f.tag, name)
		}
	}
	for _, p := range f.preds {
		v, ok := equals[p.name]
		if !ok {
			continue
		}
		if p.kind == predAttrMatches && !p.re.MatchString(v) {
			return configError("<%s> attribute %q = %q never matches %q", f.tag, p.name, v, p.value)
		}
		if (p.kind == predAttrContains && !strings.Contains(v, p.value)) ||
			(p.kind == predAttrPrefix && !strings.HasPrefix(v, p.value)) ||
			(p.kind == predAttrSuffix && !strings.HasSuffix(v, p.value)) {
			return configError("<%s> attribute %q = %q contradicts %q", f.tag, p.name, v, p.value)
		}
	}
	return nil
}
