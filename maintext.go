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

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// contentFilter prunes noise from a detached copy of a subtree.
type contentFilter interface {
	filter(sel *goquery.Selection)
}

type filterChain []contentFilter

func (fc filterChain) apply(sel *goquery.Selection) {
	for _, f := range fc {
		f.filter(sel)
	}
}

var defaultContentFilters = filterChain{
	noisePatternFilter{},
	navigationTextFilter{maxTextLength: 100},
	linkDensityFilter{maxLinkRatio: 0.5, minLinks: 3},
}

// noisePatterns match class and id attributes of elements that rarely hold
// content.
var noisePatterns = regexp.MustCompile(`(?i)` +
	`[Cc]omentario|^side$|^side_|^widget$|[_-]ads?[_-]?|^ad[s]?[ _-]|^banner|` +
	`breadcrumbs|byline|^caption$|carousel|comment|contact|cookie|^date$|` +
	`facebook|figcaption|footnote|foot|footer|header|hidden|menu|` +
	`[Nn]avigation|navbar|^nav[_-]|popup|recommend|related|retweet|rss|` +
	`search[_-]|share[_-]|sidebar|social|sponsor|subscribe|subscription|` +
	`tags|teaser|timestamp|tools|tooltip|twitter|newsletter|follow|` +
	`signin|sign-in|account|settings`)

// keepPatterns override noisePatterns.
var keepPatterns = regexp.MustCompile(`(?i)` +
	`\barticle\b|\bcontent\b|\bstory\b|\bpost\b|\bentry\b|\bmain\b|\bbody\b`)

type noisePatternFilter struct{}

func (noisePatternFilter) filter(sel *goquery.Selection) {
	sel.Find("*").Each(func(_ int, s *goquery.Selection) {
		class, hasClass := s.Attr("class")
		id, hasID := s.Attr("id")
		if (hasClass && keepPatterns.MatchString(class)) || (hasID && keepPatterns.MatchString(id)) {
			return
		}
		if (hasClass && noisePatterns.MatchString(class)) || (hasID && noisePatterns.MatchString(id)) {
			s.Remove()
		}
	})
}

var navigationTextPatterns = []string{
	"sign in", "sign out", "subscribe", "newsletter", "my account",
	"settings", "topics you follow", "live tv", "terms of use",
	"privacy policy", "ad choices", "help center", "close icon",
	"link copied", "see all topics", "min read",
}

// navigationTextFilter removes short blocks whose text reads like a menu.
type navigationTextFilter struct {
	maxTextLength int
}

func (f navigationTextFilter) filter(sel *goquery.Selection) {
	sel.Find("div, span, li, ul").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || len(text) >= f.maxTextLength {
			return
		}
		lower := strings.ToLower(text)
		for _, pattern := range navigationTextPatterns {
			if strings.Contains(lower, pattern) {
				s.Remove()
				return
			}
		}
	})
}

// linkDensityFilter removes blocks where most words sit inside links.
type linkDensityFilter struct {
	maxLinkRatio float64
	minLinks     int
}

func (f linkDensityFilter) filter(sel *goquery.Selection) {
	sel.Find("div, section, aside, ul, ol").Each(func(_ int, s *goquery.Selection) {
		if f.highDensity(s) {
			s.Remove()
		}
	})
}

func (f linkDensityFilter) highDensity(s *goquery.Selection) bool {
	links := s.Find("a")
	if links.Length() < f.minLinks {
		return false
	}
	words := len(strings.Fields(s.Text()))
	if words == 0 {
		return true
	}
	var linkText strings.Builder
	links.Each(func(_ int, a *goquery.Selection) {
		linkText.WriteString(a.Text())
		linkText.WriteByte(' ')
	})
	ratio := float64(len(strings.Fields(linkText.String()))) / float64(words)
	return ratio > f.maxLinkRatio || (links.Length() > 5 && ratio > 0.3)
}

var englishStopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`a about above after again against all also am an and
		another any are as at be because been before being below between both but by can
		could did do does doing down during each even few for from further get had has
		have having he her here hers herself him himself his how i if in into is it its
		itself just like make many me might more most much must my myself never no nor
		not now of off on once only or other our ours ourselves out over own said same
		she should so some still such than that the their theirs them themselves then
		there these they this those through to too under until up upon us very was we
		were what when where which while who whom why will with would you your yours
		yourself yourselves`) {
		englishStopwords[w] = true
	}
}

func countStopwords(text string) int {
	n := 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if englishStopwords[strings.Trim(w, ".,!?;:\"'()[]{}-")] {
			n++
		}
	}
	return n
}

// bestContentNode scores paragraphs by stopword count and length and credits
// the score to the parent, and half of it to the grandparent.
func bestContentNode(sel *goquery.Selection) *goquery.Selection {
	density := linkDensityFilter{maxLinkRatio: 0.5, minLinks: 3}
	scores := make(map[*html.Node]int)
	sel.Find("p, pre, td").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		stop := countStopwords(text)
		if stop < 2 || density.highDensity(s) {
			return
		}
		score := stop
		if len(text) > 100 {
			score += len(text) / 100
		}
		parent := s.Parent()
		if parent.Length() == 0 {
			return
		}
		scores[parent.Get(0)] += score
		if grand := parent.Parent(); grand.Length() > 0 {
			scores[grand.Get(0)] += score / 2
		}
	})
	var best *html.Node
	bestScore := 0
	for n, score := range scores {
		if score > bestScore {
			best, bestScore = n, score
		}
	}
	if best == nil {
		return nil
	}
	return goquery.NewDocumentFromNode(best).Selection
}

var mainSelectors = [3]string{"article", "main", "[role='main']"}

// MainText returns the text of the main content area inside e. Noise such as
// navigation, sidebars and link lists is pruned from a copy of the subtree,
// then the first article, main or [role=main] element is used. Without one,
// the block with the most prose wins. e itself is left untouched.
func (e *Element) MainText() string {
	if e.node == nil {
		return e.Text()
	}
	root := goquery.NewDocumentFromNode(e.node).Selection.Clone()
	root.Find("script, style, noscript").Remove()
	defaultContentFilters.apply(root)

	var content *goquery.Selection
	if root.Is("article, main, [role='main']") {
		content = root
	}
	for _, sel := range mainSelectors {
		if content != nil {
			break
		}
		if found := root.Find(sel).First(); found.Length() > 0 {
			content = found
		}
	}
	if content == nil {
		content = bestContentNode(root)
	}
	if content == nil || content.Length() == 0 {
		content = root
	}
	return spacedText(content)
}

// spacedText joins the text nodes under sel with spaces so adjacent blocks
// do not run together.
func spacedText(sel *goquery.Selection) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return normalizeWhitespace(buf.String())
}
