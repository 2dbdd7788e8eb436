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
	"go.uber.org/zap"
)

// rowBuilder collects the values of the row an entity is currently filling.
// A row is complete when a field that already holds a value matches again,
// or when the document ends.
type rowBuilder struct {
	entity *EntitySettings
	values map[string][]string
	count  int
}

func newRowBuilder(e *EntitySettings) *rowBuilder {
	return &rowBuilder{entity: e, values: make(map[string][]string)}
}

// has reports whether every named field already holds a value.
func (rb *rowBuilder) has(fields []string) bool {
	for _, name := range fields {
		if len(rb.values[name]) == 0 {
			return false
		}
	}
	return true
}

func (dp *docParse) add(rb *rowBuilder, f *Field, values []string) {
	if len(values) == 0 {
		return
	}
	if _, ok := rb.values[f.Name]; ok {
		dp.finish(rb)
	}
	rb.values[f.Name] = values
}

// finish turns the pending row of rb into records. Rows without any
// persistent value are dropped silently; rows whose links fail are dropped
// and reported in Results.Errors.
func (dp *docParse) finish(rb *rowBuilder) {
	row := rb.values
	rb.values = make(map[string][]string)

	entity := rb.entity
	if !hasPersistentValue(entity, row) {
		return
	}
	if err := dp.run.ctx.Err(); err != nil {
		dp.err = err
		return
	}
	index := rb.count
	rb.count++
	dp.pc.rows++

	rec := &Record{
		Entity: entity.name,
		Fields: entity.OutputFields(),
		Values: make(map[string][]string, len(row)),
	}
	for _, f := range entity.fields {
		switch f.Kind {
		case Constant:
			rec.Values[f.Name] = []string{f.value}
		case Persistent:
			if v, ok := row[f.Name]; ok {
				rec.Values[f.Name] = v
			}
		}
	}

	recs := []*Record{rec}
	for _, f := range entity.fields {
		if f.follower == nil || len(row[f.Name]) == 0 {
			continue
		}
		var err error
		recs, err = dp.follow(recs, entity.name, row, f)
		if err != nil {
			dp.results.Errors = append(dp.results.Errors, &RecordError{Entity: entity.name, Row: index, Err: err})
			dp.run.p.metrics.recordFailed(entity.name)
			dp.run.p.logger.Warn("record dropped",
				zap.String("url", dp.doc.URL),
				zap.String("entity", entity.name),
				zap.Int("row", index),
				zap.Error(err))
			return
		}
	}
	for _, r := range recs {
		dp.results.add(r)
		dp.run.p.metrics.recordEmitted(entity.name)
	}
}

func hasPersistentValue(e *EntitySettings, row map[string][]string) bool {
	for _, f := range e.fields {
		if f.Kind == Persistent && len(row[f.Name]) > 0 {
			return true
		}
	}
	return false
}

// download fetches every value of a download field and returns the absolute
// URLs. Values that cannot be resolved are kept as found and reported as
// failed resources.
func (dp *docParse) download(f *Field, values []string) []string {
	base := dp.doc.BaseURL
	if provider := f.download.baseURL; provider != nil {
		if b := provider(dp.pc); b != "" {
			base = b
		}
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		abs, err := ResolveURL(base, v)
		if err != nil {
			dp.run.resources = append(dp.run.resources, ResourceResult{URL: v, Err: err})
			dp.run.p.metrics.resource(ResourceResult{Err: err})
			out = append(out, v)
			continue
		}
		dp.run.resources = append(dp.run.resources, dp.run.p.fetcher.Fetch(dp.run.ctx, abs, base))
		out = append(out, abs)
	}
	return out
}
