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

const contentHTML = `<div id="x" class="card">
  Own <b>bold</b> text
  <span>  first  </span>
  <span>second</span>
  <a href="/img/photo.PNG">Photo</a>
</div>`

// extractAll returns every value of every row produced by path on src.
func extractAll(t *testing.T, path Path, src string) []string {
	t.Helper()
	list := NewEntityList()
	require.NoError(t, list.Entity("e").AddField("v", path))
	res := parseString(t, newTestParser(t, list, nil), src)
	var out []string
	for _, rec := range res.Rows("e") {
		out = append(out, rec.GetAll("v")...)
	}
	return out
}

func TestContentReaders(t *testing.T) {
	div := Match("div", ID("x"))
	tests := []struct {
		name string
		path Path
		want []string
	}{
		{"text", div, []string{"Own bold text first second Photo"}},
		{"own text", div.ReadOwnText(), []string{"Own text"}},
		{"attr", Match("a").ReadAttr("href"), []string{"/img/photo.PNG"}},
		{"missing attr", Match("span").ReadAttr("title"), nil},
		{"inner html", Match("b").ReadHTML(), []string{"bold"}},
		{"outer html", Match("b").ReadOuterHTML(), []string{"<b>bold</b>"}},
		{"xpath", div.ReadXPath(".//span"), []string{"first", "second"}},
		{"xpath attribute", div.ReadXPath(".//a/@href"), []string{"/img/photo.PNG"}},
		{"child step", div.Child("span"), []string{"first", "second"}},
		{"descendant step", Match("body").Then("b"), []string{"bold"}},
		{"child step misses grandchildren", Match("body").Child("b"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAll(t, tt.path, contentHTML))
		})
	}
}

func TestTransforms(t *testing.T) {
	span := Match("span", Nth(1))
	a := Match("a").ReadAttr("href")
	tests := []struct {
		name string
		path Path
		want []string
	}{
		{"lower", a.Transform(Lower()), []string{"/img/photo.png"}},
		{"upper", Match("b").Transform(Upper()), []string{"BOLD"}},
		{"prefix and suffix", Match("b").Transform(Prefix("["), Suffix("]")), []string{"[bold]"}},
		{"replace", a.Transform(Replace(`^/img/`, "https://cdn.example.com/")), []string{"https://cdn.example.com/photo.PNG"}},
		{"replace groups", a.Transform(Replace(`photo\.(\w+)`, "$1")), []string{"/img/PNG"}},
		{"regex group", a.Transform(Regex(`\.(\w+)$`)), []string{"PNG"}},
		{"regex whole match", a.Transform(Regex(`\w+\.\w+`)), []string{"photo.PNG"}},
		{"regex drops", a.Transform(Regex(`\.jpg$`)), nil},
		{"split", a.Transform(Split("/")), []string{"img", "photo.PNG"}},
		{"func", span.Transform(TransformFunc("double", func(s string) string { return s + s })), []string{"firstfirst"}},
		{"chain order", span.Transform(Upper(), Replace("F", "f")), []string{"fIRST"}},
		{"trim", span.ReadHTML().Transform(Trim()), []string{"first"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractAll(t, tt.path, contentHTML))
		})
	}
}

func TestSanitizeTransform(t *testing.T) {
	src := `<div class="bio"><p>Hello <script>alert(1)</script><b>world</b> &amp; friends</p></div>`
	got := extractAll(t, Match("div", Class("bio")).ReadHTML().Transform(Sanitize()), src)
	assert.Equal(t, []string{"Hello world & friends"}, got)
}

func TestValueFilters(t *testing.T) {
	src := `<a href="/a.png">a</a><a href="/b.jpg">b</a><a href="/c/d.png">c</a>`

	pngs, err := GlobFilter("**/*.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.png", "/c/d.png"}, extractAll(t, Match("a").ReadAttr("href").Filter(pngs), src))
	assert.Equal(t, []string{"/b.jpg"}, extractAll(t, Match("a").ReadAttr("href").Filter(Not(pngs)), src))

	re, err := RegexFilter(`^/c/`)
	require.NoError(t, err)
	assert.Equal(t, []string{"/c/d.png"}, extractAll(t, Match("a").ReadAttr("href").Filter(pngs).Filter(re), src))
}

func TestStringFilters(t *testing.T) {
	assert.True(t, AcceptAll(""))
	assert.False(t, Not(AcceptAll)("x"))

	glob, err := GlobFilter("images/**", "*.css")
	require.NoError(t, err)
	assert.True(t, glob("https://example.com/images/a/b.png"))
	assert.True(t, glob("https://example.com/site.css"))
	assert.True(t, glob("/site.css"))
	assert.False(t, glob("https://example.com/static/site.css"))

	_, err = GlobFilter("[")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = RegexFilter("(")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	re, err := RegexFilter(`\.pdf$`)
	require.NoError(t, err)
	assert.True(t, re("https://example.com/doc.pdf"))
	assert.False(t, re("https://example.com/doc.html"))
}

func TestPathIsImmutable(t *testing.T) {
	base := Match("div").Transform(Upper())
	a := base.Transform(Prefix("a:"))
	b := base.Transform(Prefix("b:"))

	src := `<div>x</div>`
	assert.Equal(t, []string{"X"}, extractAll(t, base, src))
	assert.Equal(t, []string{"a:X"}, extractAll(t, a, src))
	assert.Equal(t, []string{"b:X"}, extractAll(t, b, src))
	assert.True(t, strings.HasPrefix(extractAll(t, base.ReadHTML(), src)[0], "x"))
}
