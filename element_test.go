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

const elementHTML = `<!DOCTYPE html>
<html>
<head><title>Doc</title><style>p { color: red }</style></head>
<body>
<!-- comment -->
<div id="main" class="box wide">
  Intro <b>bold</b>   text
  <script>var x = 1;</script>
  <p>one</p>
  <p>two</p>
</div>
</body>
</html>`

func findTag(t *testing.T, root *Element, tag string) *Element {
	t.Helper()
	e := root.Find(func(e *Element) bool { return e.Tag == tag })
	require.NotNil(t, e, "no <%s> element", tag)
	return e
}

func TestParseHTMLTree(t *testing.T) {
	root, err := ParseHTML(strings.NewReader(elementHTML))
	require.NoError(t, err)
	assert.Equal(t, DocumentNode, root.Kind)
	assert.Nil(t, root.Parent)

	div := findTag(t, root, "div")
	assert.True(t, div.IsElement())
	assert.False(t, div.IsText())

	v, ok := div.Attr("ID")
	assert.True(t, ok)
	assert.Equal(t, "main", v)
	_, ok = div.Attr("missing")
	assert.False(t, ok)

	children := div.ElementChildren()
	require.Len(t, children, 4)
	assert.Equal(t, []string{"b", "script", "p", "p"}, []string{children[0].Tag, children[1].Tag, children[2].Tag, children[3].Tag})
	assert.Equal(t, 1, children[2].Index)
	assert.Equal(t, 2, children[3].Index)
	assert.Same(t, div, children[2].Parent)

	for _, c := range div.Children {
		if c.IsText() {
			assert.Empty(t, c.Tag)
		}
	}
}

func TestElementText(t *testing.T) {
	root, err := ParseHTML(strings.NewReader(elementHTML))
	require.NoError(t, err)

	div := findTag(t, root, "div")
	assert.Equal(t, "Intro bold text one two", div.Text())
	assert.Equal(t, "Intro text", div.OwnText())

	head := findTag(t, root, "head")
	assert.Equal(t, "Doc", head.Text())
}

func TestElementHTML(t *testing.T) {
	root, err := ParseHTML(strings.NewReader(`<div id="x"><b>hi</b></div>`))
	require.NoError(t, err)

	div := findTag(t, root, "div")
	assert.Equal(t, "<b>hi</b>", div.HTML())
	assert.Equal(t, `<div id="x"><b>hi</b></div>`, div.OuterHTML())
	assert.NotNil(t, div.Node())
}

func TestNewDocumentBaseURL(t *testing.T) {
	doc, err := ReadDocument(strings.NewReader(`<html><head><base href="/static/"></head></html>`), "http://example.com/a/page.html")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/a/page.html", doc.URL)
	assert.Equal(t, "http://example.com/static/", doc.BaseURL)

	doc, err = ReadDocument(strings.NewReader(`<p>no base</p>`), "http://example.com/a/page.html")
	require.NoError(t, err)
	assert.Equal(t, doc.URL, doc.BaseURL)

	doc, err = ReadDocument(strings.NewReader(`<base href="https://cdn.example.com/">`), "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/", doc.BaseURL)
}
