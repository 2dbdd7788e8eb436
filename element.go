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
	"bytes"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// NodeKind distinguishes tag elements from text-only nodes in an element tree.
type NodeKind int

const (
	// DocumentNode is the root of a parsed document.
	DocumentNode NodeKind = iota
	// ElementNode is a tag element such as <div>.
	ElementNode
	// TextNode holds character data only. Text nodes are never matched but
	// contribute to the text content of their ancestors.
	TextNode
)

// Element is one node of a parsed HTML tree.
//
// Comments, doctypes and other markup are dropped while the tree is built, so
// every node is either the document root, a tag element, or a text node.
type Element struct {
	// Kind tells tag elements and text nodes apart
	Kind NodeKind
	// Tag is the lower-cased tag name. Empty for text and document nodes.
	Tag string
	// Attrs maps lower-cased attribute names to their values
	Attrs map[string]string
	// Parent is nil for the document root
	Parent *Element
	// Children holds element and text children in document order
	Children []*Element
	// Index is the 1-based position of the element among its siblings with
	// the same tag name. Zero for text and document nodes.
	Index int

	data string
	node *html.Node
}

// ParseHTML parses an HTML document and returns the root of its element tree.
func ParseHTML(r io.Reader) (*Element, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return NewElementTree(doc.Nodes[0]), nil
}

// NewElementTree converts an already parsed html.Node into an element tree.
func NewElementTree(n *html.Node) *Element {
	return buildElement(n, nil)
}

func buildElement(n *html.Node, parent *Element) *Element {
	e := &Element{Parent: parent, node: n}
	switch n.Type {
	case html.DocumentNode:
		e.Kind = DocumentNode
	case html.ElementNode:
		e.Kind = ElementNode
		e.Tag = strings.ToLower(n.Data)
		e.Attrs = make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			e.Attrs[strings.ToLower(a.Key)] = a.Val
		}
	case html.TextNode:
		e.Kind = TextNode
		e.data = n.Data
	default:
		return nil
	}

	counts := make(map[string]int)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child := buildElement(c, e)
		if child == nil {
			continue
		}
		if child.Kind == ElementNode {
			counts[child.Tag]++
			child.Index = counts[child.Tag]
		}
		e.Children = append(e.Children, child)
	}
	return e
}

// IsText reports whether e is a text-only node.
func (e *Element) IsText() bool {
	return e.Kind == TextNode
}

// IsElement reports whether e is a tag element.
func (e *Element) IsElement() bool {
	return e.Kind == ElementNode
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[strings.ToLower(name)]
	return v, ok
}

// Node returns the underlying html.Node.
func (e *Element) Node() *html.Node {
	return e.node
}

// ElementChildren returns the tag element children of e, skipping text nodes.
func (e *Element) ElementChildren() []*Element {
	out := make([]*Element, 0, len(e.Children))
	for _, c := range e.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the visible text of e and its descendants with whitespace
// collapsed. Script and style contents are not visible text.
func (e *Element) Text() string {
	var buf strings.Builder
	e.collectText(&buf)
	return normalizeWhitespace(buf.String())
}

func (e *Element) collectText(buf *strings.Builder) {
	if e.Kind == TextNode {
		buf.WriteString(e.data)
		buf.WriteByte(' ')
		return
	}
	if e.Tag == "script" || e.Tag == "style" {
		return
	}
	for _, c := range e.Children {
		c.collectText(buf)
	}
}

// OwnText returns only the text of e's direct text children.
func (e *Element) OwnText() string {
	if e.Kind == TextNode {
		return normalizeWhitespace(e.data)
	}
	var buf strings.Builder
	for _, c := range e.Children {
		if c.Kind == TextNode {
			buf.WriteString(c.data)
			buf.WriteByte(' ')
		}
	}
	return normalizeWhitespace(buf.String())
}

// HTML returns the inner HTML of e.
func (e *Element) HTML() string {
	if e.node == nil {
		return ""
	}
	s, err := goquery.NewDocumentFromNode(e.node).Html()
	if err != nil {
		return ""
	}
	return s
}

// OuterHTML returns the HTML of e including its own tag.
func (e *Element) OuterHTML() string {
	if e.node == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, e.node); err != nil {
		return ""
	}
	return buf.String()
}

// Find returns the first element in e's subtree, e included, for which match
// returns true.
func (e *Element) Find(match func(*Element) bool) *Element {
	if e.Kind == ElementNode && match(e) {
		return e
	}
	for _, c := range e.Children {
		if found := c.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// normalizeWhitespace collapses multiple consecutive whitespace characters
// (spaces, tabs, newlines) into a single space.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Document is a parsed element tree together with the location it was read from.
type Document struct {
	Root *Element
	// URL is the location the document was read from. May be empty for
	// documents parsed from memory.
	URL string
	// BaseURL is used to resolve relative links. A <base href> in the
	// document takes precedence over URL.
	BaseURL string
}

// NewDocument wraps root and computes its base URL.
func NewDocument(root *Element, rawURL string) *Document {
	doc := &Document{Root: root, URL: rawURL, BaseURL: rawURL}
	base := root.Find(func(el *Element) bool {
		_, ok := el.Attrs["href"]
		return el.Tag == "base" && ok
	})
	if base == nil {
		return doc
	}
	href := strings.TrimSpace(base.Attrs["href"])
	if rawURL == "" {
		if abs, err := urlParser.Parse(href); err == nil {
			doc.BaseURL = abs.Href(false)
		}
		return doc
	}
	if abs, err := urlParser.ParseRef(rawURL, href); err == nil {
		doc.BaseURL = abs.Href(false)
	}
	return doc
}

// ReadDocument parses r and returns a Document located at rawURL.
func ReadDocument(r io.Reader, rawURL string) (*Document, error) {
	root, err := ParseHTML(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(root, rawURL), nil
}
