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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const filterHTML = `<ul>
<li class="item first" data-id="a-1"><a href="/one.html" rel="nofollow">One</a></li>
<li class="item" data-id="b-2"><a href="https://other.org/two.pdf">Two</a></li>
<li class="other"><a>Three</a></li>
</ul>`

func elementsByTag(t *testing.T, src, tag string) []*Element {
	t.Helper()
	root, err := ParseHTML(strings.NewReader(src))
	require.NoError(t, err)
	var out []*Element
	var walk func(*Element)
	walk = func(e *Element) {
		if e.Tag == tag {
			out = append(out, e)
		}
		for _, c := range e.Children {
			walk(c)
		}
	}
	walk(root)
	return out
}

func matching(f Filter, elems []*Element) []int {
	var idx []int
	for i, e := range elems {
		if f.matches(e) {
			idx = append(idx, i)
		}
	}
	return idx
}

func TestFilterPredicates(t *testing.T) {
	items := elementsByTag(t, filterHTML, "li")
	links := elementsByTag(t, filterHTML, "a")
	require.Len(t, items, 3)
	require.Len(t, links, 3)

	tests := []struct {
		name   string
		filter Filter
		elems  []*Element
		want   []int
	}{
		{"tag only", Tag("li"), items, []int{0, 1, 2}},
		{"wildcard", Tag("*", Class("item")), items, []int{0, 1}},
		{"upper case tag", Tag("LI", Class("other")), items, []int{2}},
		{"class", Tag("li", Class("first")), items, []int{0}},
		{"attr equals", Tag("li", Attr("data-id", "b-2")), items, []int{1}},
		{"has attr", Tag("a", HasAttr("href")), links, []int{0, 1}},
		{"no attr", Tag("a", NoAttr("href")), links, []int{2}},
		{"attr contains", Tag("a", AttrContains("href", "two")), links, []int{1}},
		{"attr prefix", Tag("a", AttrStartsWith("href", "https://")), links, []int{1}},
		{"attr suffix", Tag("a", AttrEndsWith("href", ".html")), links, []int{0}},
		{"attr regexp", Tag("li", AttrMatches("data-id", `^[ab]-\d$`)), items, []int{0, 1}},
		{"text equals", Tag("a", TextEquals("Three")), links, []int{2}},
		{"text contains", Tag("li", TextContains("w")), items, []int{1}},
		{"text regexp", Tag("a", TextMatches(`^T`)), links, []int{1, 2}},
		{"css selector", Tag("a", Selector(`li.item > a[rel~=nofollow]`)), links, []int{0}},
		{"nth", Tag("li", Nth(2)), items, []int{1}},
		{"several predicates", Tag("li", Class("item"), Nth(1)), items, []int{0}},
		{"with", Tag("li").With(Class("item"), AttrEndsWith("data-id", "2")), items, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.filter.validate())
			assert.Equal(t, tt.want, matching(tt.filter, tt.elems))
		})
	}
}

func TestFilterWithDoesNotShareState(t *testing.T) {
	base := Tag("li", Class("item"))
	a := base.With(Nth(1))
	b := base.With(Nth(2))

	items := elementsByTag(t, filterHTML, "li")
	assert.Equal(t, []int{0}, matching(a, items))
	assert.Equal(t, []int{1}, matching(b, items))
	assert.Equal(t, []int{0, 1}, matching(base, items))
}

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
	}{
		{"no tag", Tag("")},
		{"conflicting attr values", Tag("a", Attr("href", "/x"), Attr("href", "/y"))},
		{"present and absent", Tag("a", HasAttr("href"), NoAttr("href"))},
		{"equal and absent", Tag("a", Attr("rel", "x"), NoAttr("rel"))},
		{"class and no class", Tag("a", Class("x"), NoAttr("class"))},
		{"conflicting text", Tag("a", TextEquals("a"), TextEquals("b"))},
		{"conflicting positions", Tag("li", Nth(1), Nth(2))},
		{"zero position", Tag("li", Nth(0))},
		{"bad class", Tag("li", Class("a b"))},
		{"prefix contradicts value", Tag("a", Attr("href", "/x"), AttrStartsWith("href", "http"))},
		{"regexp contradicts value", Tag("a", Attr("href", "/x"), AttrMatches("href", `^http`))},
		{"value contradicts earlier regexp", Tag("a", AttrMatches("href", `^x`), Attr("href", "y"))},
		{"suffix before contradicting value", Tag("a", AttrEndsWith("href", ".html"), Attr("href", "/x"))},
		{"invalid regexp", Tag("a", TextMatches(`(`))},
		{"invalid selector", Tag("a", Selector(`a[`))},
		{"no attribute name", Tag("a", HasAttr(""))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.filter.validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, Tag("a", Attr("href", "/x.html"), AttrEndsWith("href", ".html"), HasAttr("href")).validate())
	assert.NoError(t, Tag("a", AttrMatches("href", `^/x`), Attr("href", "/x.html")).validate())
}
