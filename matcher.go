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
	"context"

	"go.uber.org/zap"
)

// run is the state shared by a top-level parse and every nested parse it
// triggers. It is confined to the worker executing the top-level parse.
type run struct {
	ctx       context.Context
	p         *Parser
	cache     map[uint64]*Results
	resources []ResourceResult
}

func newRun(ctx context.Context, p *Parser) *run {
	return &run{ctx: ctx, p: p, cache: make(map[uint64]*Results)}
}

// boundPath is a field path together with the entity it fills.
type boundPath struct {
	entity *EntitySettings
	field  *Field
}

// docParse is the traversal of one document against one entity list.
type docParse struct {
	run       *run
	doc       *Document
	list      *EntityList
	depth     int
	pc        *ParsingContext
	results   *Results
	rows      map[*EntitySettings]*rowBuilder
	paths     []boundPath
	groups    *groupTracker
	ancestors []*Element
	err       error
}

// parse traverses doc once, assembling rows for every entity of list.
// The returned error is set only when the traversal itself was interrupted.
func (r *run) parse(doc *Document, list *EntityList, depth int) (*Results, error) {
	dp := &docParse{
		run:     r,
		doc:     doc,
		list:    list,
		depth:   depth,
		pc:      &ParsingContext{url: doc.URL, baseURL: doc.BaseURL, depth: depth},
		results: newResults(list.Names()),
		rows:    make(map[*EntitySettings]*rowBuilder),
	}

	var groups []*Group
	for _, e := range list.entities {
		dp.rows[e] = newRowBuilder(e)
		for _, f := range e.fields {
			if f.Kind == Constant {
				continue
			}
			dp.paths = append(dp.paths, boundPath{entity: e, field: f})
			if g := f.path.group; g != nil {
				groups = append(groups, g)
			}
		}
	}
	dp.groups = newGroupTracker(groups)

	listener := r.p.listener
	listener.ParsingStarted(dp.pc)
	dp.walk(doc.Root)
	if dp.err == nil {
		for _, e := range list.entities {
			dp.finish(dp.rows[e])
		}
	}
	dp.pc.element = nil
	dp.pc.entity, dp.pc.field = "", ""
	listener.ParsingEnded(dp.pc)

	r.p.metrics.documentParsed(dp.err)
	if dp.err != nil {
		r.p.logger.Warn("parse interrupted", zap.String("url", doc.URL), zap.Int("depth", depth), zap.Error(dp.err))
	}
	return dp.results, dp.err
}

// walk visits element nodes in pre-order. Text nodes never match and have
// no children, so they are skipped.
func (dp *docParse) walk(e *Element) {
	if dp.err != nil {
		return
	}
	isElement := e.Kind == ElementNode
	if isElement {
		dp.enter(e)
		dp.ancestors = append(dp.ancestors, e)
	}
	for _, c := range e.Children {
		if c.Kind != TextNode {
			dp.walk(c)
		}
	}
	if isElement {
		dp.ancestors = dp.ancestors[:len(dp.ancestors)-1]
		dp.groups.exit(e)
	}
}

func (dp *docParse) enter(e *Element) {
	if err := dp.run.ctx.Err(); err != nil {
		dp.err = err
		return
	}
	pc := dp.pc
	pc.visited++
	pc.element = e
	pc.entity, pc.field = "", ""
	dp.run.p.listener.ElementVisited(e, pc)

	dp.groups.enter(e)
	for _, bp := range dp.paths {
		path := bp.field.path
		if g := path.group; g != nil && !dp.groups.isVisible(g) {
			continue
		}
		rb := dp.rows[bp.entity]
		if !rb.has(path.after) {
			continue
		}
		if !path.matches(e, dp.ancestors) {
			continue
		}

		pc.matched++
		pc.entity, pc.field = bp.entity.name, bp.field.Name
		dp.run.p.listener.ElementMatched(e, pc)

		values := path.extract(e)
		if bp.field.behavior == behaviorDownload {
			values = dp.download(bp.field, values)
		}
		dp.add(rb, bp.field, values)
		if dp.err != nil {
			return
		}
	}
}
