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

const articlePage = `<html><body>
<nav class="navbar"><a href="/">Home</a> <a href="/about">About</a></nav>
<div class="sidebar"><p>Popular this week</p></div>
<article><h1>Title</h1><p>The story of the day is here.</p></article>
<div id="footer">Copyright</div>
</body></html>`

const prosePage = `<html><body>
<div id="links"><a href="/a">A</a> <a href="/b">B</a> <a href="/c">C</a></div>
<div id="story">
<p>It was the best of times and it was the worst of times for all of us.</p>
<p>We had everything before us and we had nothing before us.</p>
</div>
</body></html>`

func parseBody(t *testing.T, src string) *Element {
	t.Helper()
	root, err := ParseHTML(strings.NewReader(src))
	require.NoError(t, err)
	body := root.Find(func(e *Element) bool { return e.Tag == "body" })
	require.NotNil(t, body)
	return body
}

func TestMainTextPrefersSemanticElements(t *testing.T) {
	body := parseBody(t, articlePage)
	assert.Equal(t, "Title The story of the day is here.", body.MainText())
}

func TestMainTextScoresProse(t *testing.T) {
	body := parseBody(t, prosePage)
	assert.Equal(t,
		"It was the best of times and it was the worst of times for all of us. We had everything before us and we had nothing before us.",
		body.MainText())
}

func TestMainTextLeavesTreeIntact(t *testing.T) {
	body := parseBody(t, articlePage)
	_ = body.MainText()
	assert.Contains(t, body.Text(), "Popular this week")
	assert.Contains(t, body.Text(), "Copyright")
}

func TestMainTextOnArticleItself(t *testing.T) {
	body := parseBody(t, articlePage)
	article := body.Find(func(e *Element) bool { return e.Tag == "article" })
	require.NotNil(t, article)
	assert.Equal(t, "Title The story of the day is here.", article.MainText())
}

func TestReadMainText(t *testing.T) {
	got := extractAll(t, Match("body").ReadMainText(), articlePage)
	assert.Equal(t, []string{"Title The story of the day is here."}, got)
}

func TestCountStopwords(t *testing.T) {
	assert.Equal(t, 0, countStopwords(""))
	assert.Equal(t, 5, countStopwords("The cat sat on the mat, and it purred."))
}
