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
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// follow parses the documents linked by the values of field f and combines
// their rows with recs according to the follower's nesting. recs holds the
// records built so far for the current row; expansion may multiply them.
func (dp *docParse) follow(recs []*Record, entity string, row map[string][]string, f *Field) ([]*Record, error) {
	lf := f.follower
	opts := lf.opts
	logger := dp.run.p.logger

	var fieldRows []*Record
	others := newResults(nil)
	followed := 0
	for _, value := range row[f.Name] {
		target := value
		if opts.template != "" {
			target = expandTemplate(opts.template, f.Name, value, row)
		}

		nested, err := dp.followOne(lf, target)
		if err != nil {
			lerr := &LinkResolutionError{Entity: entity, Field: f.Name, Value: target, Err: err}
			if opts.ignoreErrors {
				dp.run.p.metrics.link(linkIgnored)
				logger.Warn("link skipped", zap.Int("depth", dp.depth), zap.Error(lerr))
				continue
			}
			dp.run.p.metrics.link(linkFailed)
			return nil, lerr
		}

		followed++
		fieldRows = append(fieldRows, nested.Rows(lf.fields.name)...)
		for _, name := range nested.EntityNames() {
			if name == lf.fields.name {
				continue
			}
			for _, r := range nested.Rows(name) {
				others.add(r)
			}
		}
	}
	if followed == 0 {
		return recs, nil
	}

	switch opts.nesting {
	case NestMerge:
		var warning string
		if len(fieldRows) > 1 {
			warning = fmt.Sprintf("%s: %d linked rows found, only the first was merged", f.Name, len(fieldRows))
			logger.Warn("extra linked rows discarded",
				zap.String("entity", entity),
				zap.String("field", f.Name),
				zap.Int("rows", len(fieldRows)))
		}
		for _, rec := range recs {
			if len(fieldRows) > 0 {
				mergeLinked(rec, f.Name, fieldRows[0])
			}
			if warning != "" {
				rec.Warnings = append(rec.Warnings, warning)
			}
			if others.Len() > 0 {
				rec.setLinkedEntities(f.Name, others)
			}
		}
		return recs, nil

	case NestExpand:
		if len(fieldRows) == 0 {
			if others.Len() > 0 {
				for _, rec := range recs {
					rec.setLinkedEntities(f.Name, others)
				}
			}
			return recs, nil
		}
		out := make([]*Record, 0, len(recs)*len(fieldRows))
		for _, rec := range recs {
			for _, linked := range fieldRows {
				c := rec.clone()
				mergeLinked(c, f.Name, linked)
				if others.Len() > 0 {
					c.setLinkedEntities(f.Name, others)
				}
				out = append(out, c)
			}
		}
		return out, nil

	default:
		collected := newResults([]string{lf.fields.name})
		for _, r := range fieldRows {
			collected.add(r)
		}
		for _, name := range others.EntityNames() {
			for _, r := range others.Rows(name) {
				collected.add(r)
			}
		}
		for _, rec := range recs {
			rec.setLinkedEntities(f.Name, collected)
		}
		return recs, nil
	}
}

// mergeLinked copies the output values of linked into rec's linked field
// data under field. Link data of the linked row moves up one level.
func mergeLinked(rec *Record, field string, linked *Record) {
	values := make(map[string][]string, len(linked.Fields))
	for _, name := range linked.Fields {
		if v := linked.Values[name]; len(v) > 0 {
			values[name] = v
		}
	}
	rec.setLinkedFields(field, values)
	for k, v := range linked.LinkedFields {
		rec.setLinkedFields(k, v)
	}
	for k, v := range linked.LinkedEntities {
		rec.setLinkedEntities(k, v)
	}
	rec.Warnings = append(rec.Warnings, linked.Warnings...)
}

func (dp *docParse) followOne(lf *LinkFollower, target string) (*Results, error) {
	abs, err := ResolveURL(dp.doc.BaseURL, target)
	if err != nil {
		return nil, err
	}
	return dp.run.nested(lf, abs, dp.depth+1)
}

// nested parses the document at rawURL with the follower's entities. Results
// are cached per follower and URL for the lifetime of the run; a nested
// record failure fails the whole nested parse.
func (r *run) nested(lf *LinkFollower, rawURL string, depth int) (*Results, error) {
	key := xxhash.Sum64String(strconv.FormatUint(lf.id, 10) + "\x00" + rawURL)
	if res, ok := r.cache[key]; ok {
		r.p.metrics.link(linkCached)
		return res, nil
	}
	if r.p.reader == nil {
		return nil, ErrNoDocumentReader
	}

	doc, err := r.p.reader.ReadDocument(r.ctx, rawURL)
	if err != nil {
		return nil, err
	}
	res, err := r.parse(doc, lf.entities, depth)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	r.cache[key] = res
	r.p.metrics.link(linkFollowed)
	return res, nil
}
