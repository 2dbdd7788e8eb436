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
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/microcosm-cc/bluemonday"
)

type readerKind int

const (
	readText readerKind = iota
	readOwnText
	readAttr
	readHTML
	readOuterHTML
	readXPath
	readMainText
)

// contentReader pulls the raw value out of a matched element.
type contentReader struct {
	kind readerKind
	arg  string
	expr *xpath.Expr
	err  error
}

func (r contentReader) read(e *Element) []string {
	switch r.kind {
	case readOwnText:
		return []string{e.OwnText()}
	case readAttr:
		if v, ok := e.Attr(r.arg); ok {
			return []string{v}
		}
		return nil
	case readHTML:
		return []string{e.HTML()}
	case readOuterHTML:
		return []string{e.OuterHTML()}
	case readMainText:
		return []string{e.MainText()}
	case readXPath:
		var out []string
		for _, n := range htmlquery.QuerySelectorAll(e.node, r.expr) {
			out = append(out, normalizeWhitespace(htmlquery.InnerText(n)))
		}
		return out
	default:
		return []string{e.Text()}
	}
}

// Transform is one step of a field's string transformation chain. A step may
// rewrite a value, split it into several, or drop it by returning nothing.
type Transform struct {
	name  string
	apply func(string) []string
	err   error
}

// TransformFunc adapts a plain string function into a Transform.
func TransformFunc(name string, fn func(string) string) Transform {
	return Transform{name: name, apply: func(s string) []string { return []string{fn(s)} }}
}

// Trim removes leading and trailing whitespace.
func Trim() Transform {
	return TransformFunc("trim", strings.TrimSpace)
}

// Lower lower-cases the value.
func Lower() Transform {
	return TransformFunc("lower", strings.ToLower)
}

// Upper upper-cases the value.
func Upper() Transform {
	return TransformFunc("upper", strings.ToUpper)
}

// Prefix prepends prefix.
func Prefix(prefix string) Transform {
	return TransformFunc("prefix", func(s string) string { return prefix + s })
}

// Suffix appends suffix.
func Suffix(suffix string) Transform {
	return TransformFunc("suffix", func(s string) string { return s + suffix })
}

// Replace replaces every match of pattern with repl. repl may reference
// capture groups as in regexp.ReplaceAllString.
func Replace(pattern, repl string) Transform {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Transform{name: "replace", err: err}
	}
	return TransformFunc("replace", func(s string) string { return re.ReplaceAllString(s, repl) })
}

// Regex keeps the first capture group of pattern, or the whole match when the
// pattern has no groups. Values that do not match are dropped.
func Regex(pattern string) Transform {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Transform{name: "regex", err: err}
	}
	return Transform{name: "regex", apply: func(s string) []string {
		m := re.FindStringSubmatch(s)
		switch {
		case m == nil:
			return nil
		case len(m) > 1:
			return []string{m[1]}
		default:
			return []string{m[0]}
		}
	}}
}

// Split splits a value on sep into several trimmed values.
func Split(sep string) Transform {
	return Transform{name: "split", apply: func(s string) []string {
		parts := strings.Split(s, sep)
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}}
}

var strictPolicy = bluemonday.StrictPolicy()

// Sanitize strips every HTML tag from the value, leaving plain text.
func Sanitize() Transform {
	return TransformFunc("sanitize", func(s string) string {
		return normalizeWhitespace(html.UnescapeString(strictPolicy.Sanitize(s)))
	})
}

// applyTransforms runs values through ts in order. Empty results are dropped.
func applyTransforms(values []string, ts []Transform) []string {
	for _, t := range ts {
		next := make([]string, 0, len(values))
		for _, v := range values {
			next = append(next, t.apply(v)...)
		}
		values = next
	}
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// StringFilter is a predicate over arbitrary text. It is used to select
// resources before they are fetched and to drop field values.
type StringFilter func(string) bool

// AcceptAll accepts every string.
func AcceptAll(string) bool {
	return true
}

// Not inverts f.
func Not(f StringFilter) StringFilter {
	return func(s string) bool { return !f(s) }
}

// RegexFilter accepts strings matching pattern.
func RegexFilter(pattern string) (StringFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, configError("filter pattern %q: %v", pattern, err)
	}
	return re.MatchString, nil
}

// GlobFilter accepts URLs or paths whose path matches any of the doublestar
// patterns, e.g. "**/*.png". For URLs only the path is matched, without its
// leading slash.
func GlobFilter(patterns ...string) (StringFilter, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, configError("invalid glob pattern %q", p)
		}
	}
	return func(s string) bool {
		name := s
		if u, err := url.Parse(s); err == nil && u.Scheme != "" {
			name = u.Path
		}
		name = strings.TrimPrefix(name, "/")
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, name); ok {
				return true
			}
		}
		return false
	}, nil
}
