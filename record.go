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
	"errors"
	"maps"
)

// Record is one output row of an entity.
type Record struct {
	// Entity is the name of the entity the row belongs to
	Entity string
	// Fields lists the output fields in registration order
	Fields []string
	// Values maps output field names to their values
	Values map[string][]string
	// LinkedFields holds, per follow-link field, the fields merged from the
	// linked row
	LinkedFields map[string]map[string][]string
	// LinkedEntities holds, per follow-link field, the rows parsed from the
	// linked documents
	LinkedEntities map[string]*Results
	// Warnings collects non-fatal problems met while assembling the row
	Warnings []string
}

// Get returns the first value of field, or "".
func (r *Record) Get(field string) string {
	if v := r.Values[field]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// GetAll returns every value of field.
func (r *Record) GetAll(field string) []string {
	return r.Values[field]
}

// LinkedFieldData returns the fields merged from the link followed by field.
func (r *Record) LinkedFieldData(field string) map[string][]string {
	return r.LinkedFields[field]
}

// LinkedEntityData returns the rows parsed from the links followed by field.
func (r *Record) LinkedEntityData(field string) *Results {
	return r.LinkedEntities[field]
}

func (r *Record) clone() *Record {
	out := &Record{
		Entity:   r.Entity,
		Fields:   r.Fields,
		Values:   r.Values,
		Warnings: append([]string(nil), r.Warnings...),
	}
	if r.LinkedFields != nil {
		out.LinkedFields = maps.Clone(r.LinkedFields)
	}
	if r.LinkedEntities != nil {
		out.LinkedEntities = maps.Clone(r.LinkedEntities)
	}
	return out
}

func (r *Record) setLinkedFields(field string, values map[string][]string) {
	if r.LinkedFields == nil {
		r.LinkedFields = make(map[string]map[string][]string)
	}
	r.LinkedFields[field] = values
}

func (r *Record) setLinkedEntities(field string, res *Results) {
	if r.LinkedEntities == nil {
		r.LinkedEntities = make(map[string]*Results)
	}
	r.LinkedEntities[field] = res
}

// Map converts the record into plain maps and slices for encoding. Fields
// with one value become strings; linked data is nested under "_linked".
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.Fields)+1)
	for _, f := range r.Fields {
		v := r.Values[f]
		switch len(v) {
		case 0:
			out[f] = nil
		case 1:
			out[f] = v[0]
		default:
			out[f] = v
		}
	}
	if len(r.LinkedFields) == 0 && len(r.LinkedEntities) == 0 {
		return out
	}
	linked := make(map[string]any)
	for field, values := range r.LinkedFields {
		m := make(map[string]any, len(values))
		for k, v := range values {
			if len(v) == 1 {
				m[k] = v[0]
			} else {
				m[k] = v
			}
		}
		linked[field] = m
	}
	for field, res := range r.LinkedEntities {
		if existing, ok := linked[field].(map[string]any); ok {
			existing["_rows"] = res.Map()
			continue
		}
		linked[field] = res.Map()
	}
	out["_linked"] = linked
	return out
}

// Results holds the rows produced from one document, grouped by entity.
type Results struct {
	entities []string
	rows     map[string][]*Record
	// Resources reports every resource download attempted while producing
	// the rows, nested documents included
	Resources []ResourceResult
	// Errors lists the rows dropped because their processing failed
	Errors []error
}

func newResults(names []string) *Results {
	return &Results{entities: names, rows: make(map[string][]*Record, len(names))}
}

// EntityNames returns the entity names in registration order.
func (r *Results) EntityNames() []string {
	return r.entities
}

// Rows returns the rows of entity in document order.
func (r *Results) Rows(entity string) []*Record {
	return r.rows[entity]
}

// Len returns the number of rows across entities.
func (r *Results) Len() int {
	n := 0
	for _, rows := range r.rows {
		n += len(rows)
	}
	return n
}

// Err joins the record errors, or returns nil.
func (r *Results) Err() error {
	return errors.Join(r.Errors...)
}

func (r *Results) add(rec *Record) {
	if _, ok := r.rows[rec.Entity]; !ok {
		known := false
		for _, name := range r.entities {
			if name == rec.Entity {
				known = true
				break
			}
		}
		if !known {
			r.entities = append(r.entities, rec.Entity)
		}
	}
	r.rows[rec.Entity] = append(r.rows[rec.Entity], rec)
}

// Map converts the results into entity name -> encoded rows.
func (r *Results) Map() map[string][]map[string]any {
	out := make(map[string][]map[string]any, len(r.entities))
	for _, name := range r.entities {
		rows := r.rows[name]
		encoded := make([]map[string]any, len(rows))
		for i, rec := range rows {
			encoded[i] = rec.Map()
		}
		out[name] = encoded
	}
	return out
}
