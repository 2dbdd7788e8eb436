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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupValues(t *testing.T, g *Group, path Path, src string) []string {
	t.Helper()
	list := NewEntityList()
	require.NoError(t, list.Entity("item").AddField("value", path.Within(g)))
	res := parseString(t, newTestParser(t, list, nil), src)
	return firstValues(res, "item", "value")
}

func TestGroupStartEnd(t *testing.T) {
	src := `<p>outside</p>
<h3>Start</h3>
<p>a</p>
<div><p>b</p></div>
<h3>End</h3>
<p>after</p>
<h3>Start</h3>
<p>c</p>`

	g, err := StartAt(Tag("h3", TextEquals("Start"))).EndAt(Tag("h3", TextEquals("End"))).Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, groupValues(t, g, Match("p"), src))

	// the start element is part of the span unless excluded
	assert.Equal(t, []string{"Start", "Start"}, groupValues(t, g, Match("h3"), src))

	excl, err := StartAt(Tag("h3", TextEquals("Start"))).EndAt(Tag("h3", TextEquals("End"))).ExcludeStart().Build()
	require.NoError(t, err)
	assert.Empty(t, groupValues(t, excl, Match("h3"), src))
	assert.Equal(t, []string{"a", "b", "c"}, groupValues(t, excl, Match("p"), src))
}

func TestGroupIncludeEnd(t *testing.T) {
	src := `<h3>Start</h3>
<p>a</p>
<div class="end"><p>b</p></div>
<p>c</p>`

	g, err := StartAt(Tag("h3")).EndAt(Tag("div", Class("end"))).IncludeEnd().Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, groupValues(t, g, Match("p"), src))

	g, err = StartAt(Tag("h3")).EndAt(Tag("div", Class("end"))).Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, groupValues(t, g, Match("p"), src))
}

func TestGroupSubtreeSpan(t *testing.T) {
	src := `<span>out1</span>
<div id="box"><span>in1</span><p><span>in2</span></p></div>
<span>out2</span>`

	g, err := StartAt(Tag("div", ID("box"))).Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"in1", "in2"}, groupValues(t, g, Match("span"), src))
}

func TestNestedGroup(t *testing.T) {
	src := `<h4>x</h4><em>outside parent</em><hr>
<div id="box"><em>before</em><h4>t</h4><em>in</em><hr><em>after</em></div>
<h4>y</h4><em>outside again</em>`

	parent, err := StartAt(Tag("div", ID("box"))).Build()
	require.NoError(t, err)
	child, err := StartAt(Tag("h4")).EndAt(Tag("hr")).Inside(parent).Build()
	require.NoError(t, err)
	assert.Same(t, parent, child.Parent())

	assert.Equal(t, []string{"in"}, groupValues(t, child, Match("em"), src))
	assert.Equal(t, []string{"before", "in", "after"}, groupValues(t, parent, Match("em"), src))
}

func TestNestedGroupClosesWithParent(t *testing.T) {
	parent, err := StartAt(Tag("section")).Build()
	require.NoError(t, err)
	child, err := StartAt(Tag("h3")).EndAt(Tag("hr")).Inside(parent).Build()
	require.NoError(t, err)

	for name, src := range map[string]string{
		"adjacent sections":  `<section><h3>t</h3><p>a</p></section><section><p>b</p></section>`,
		"separated sections": `<section><h3>t</h3><p>a</p></section><div></div><section><p>b</p></section>`,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, []string{"a"}, groupValues(t, child, Match("p"), src))
		})
	}
}

func TestGroupIsolationAcrossFields(t *testing.T) {
	src := `<section class="a"><b>a1</b></section>
<section class="b"><b>b1</b></section>`

	ga, err := StartAt(Tag("section", Class("a"))).Build()
	require.NoError(t, err)
	gb, err := StartAt(Tag("section", Class("b"))).Build()
	require.NoError(t, err)

	list := NewEntityList()
	require.NoError(t, list.Entity("a").AddField("v", Match("b").Within(ga)))
	require.NoError(t, list.Entity("b").AddField("v", Match("b").Within(gb)))
	res := parseString(t, newTestParser(t, list, nil), src)

	assert.Equal(t, []string{"a1"}, firstValues(res, "a", "v"))
	assert.Equal(t, []string{"b1"}, firstValues(res, "b", "v"))
}

func TestGroupBuildErrors(t *testing.T) {
	_, err := StartAt(Filter{}).Build()
	assert.ErrorIs(t, err, ErrMissingStart)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = StartAt(Tag("div")).IncludeEnd().Build()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = StartAt(Tag("div", Nth(0))).Build()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = StartAt(Tag("div")).EndAt(Tag("p", TextMatches("("))).Build()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
