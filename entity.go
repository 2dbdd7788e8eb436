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
	"strings"
	"sync/atomic"
)

// FieldKind tells whether and how a field appears in output records.
type FieldKind int

const (
	// Persistent fields are matched and always part of the output
	Persistent FieldKind = iota
	// Silent fields are matched but never output. They anchor other paths
	// and feed URL templates.
	Silent
	// Constant fields are not matched; their fixed value is added to every row
	Constant
)

func (k FieldKind) String() string {
	switch k {
	case Silent:
		return "silent"
	case Constant:
		return "constant"
	default:
		return "persistent"
	}
}

type behavior int

const (
	behaviorExtract behavior = iota
	behaviorDownload
	behaviorFollow
)

// Field is one registered field of an entity.
type Field struct {
	Name string
	Kind FieldKind

	path     Path
	value    string
	behavior behavior
	download DownloadOptions
	follower *LinkFollower
}

// Path returns the path the field is matched with. Zero for constant fields.
func (f *Field) Path() Path {
	return f.path
}

// Value returns the value of a constant field.
func (f *Field) Value() string {
	return f.value
}

// Follower returns the link follower of a follow-link field, or nil.
func (f *Field) Follower() *LinkFollower {
	return f.follower
}

// IsDownload reports whether matched values are downloaded as resources.
func (f *Field) IsDownload() bool {
	return f.behavior == behaviorDownload
}

// EntityList is an ordered set of entities parsed from the same documents.
type EntityList struct {
	entities []*EntitySettings
	byName   map[string]*EntitySettings
}

// NewEntityList creates an empty entity list.
func NewEntityList() *EntityList {
	return &EntityList{byName: make(map[string]*EntitySettings)}
}

// Entity returns the entity called name, creating it on first use.
func (l *EntityList) Entity(name string) *EntitySettings {
	name = strings.TrimSpace(name)
	if e, ok := l.byName[name]; ok {
		return e
	}
	e := &EntitySettings{name: name, byName: make(map[string]*Field)}
	l.entities = append(l.entities, e)
	l.byName[name] = e
	return e
}

// Lookup returns an existing entity.
func (l *EntityList) Lookup(name string) (*EntitySettings, bool) {
	e, ok := l.byName[name]
	return e, ok
}

// Entities returns the entities in registration order.
func (l *EntityList) Entities() []*EntitySettings {
	return append([]*EntitySettings(nil), l.entities...)
}

// Names returns the entity names in registration order.
func (l *EntityList) Names() []string {
	names := make([]string, len(l.entities))
	for i, e := range l.entities {
		names[i] = e.name
	}
	return names
}

// Validate checks that the list defines at least one entity and that every
// entity with fields has at least one matched field.
func (l *EntityList) Validate() error {
	defined := 0
	for _, e := range l.entities {
		if e.name == "" {
			return configError("entity without name")
		}
		if len(e.fields) == 0 {
			continue
		}
		defined++
		matched := false
		for _, f := range e.fields {
			if f.Kind != Constant {
				matched = true
			}
			if f.follower != nil {
				if err := f.follower.entities.Validate(); err != nil {
					return fmt.Errorf("follower of %s.%s: %w", e.name, f.Name, err)
				}
			}
		}
		if !matched {
			return configError("entity %q has no matched fields", e.name)
		}
	}
	if defined == 0 {
		return configError("no entities defined")
	}
	return nil
}

// EntitySettings holds the ordered fields of one entity. Fields are
// registered before parsing starts and must not change while a parser uses
// the entity.
type EntitySettings struct {
	name   string
	fields []*Field
	byName map[string]*Field
}

// Name returns the entity name.
func (s *EntitySettings) Name() string {
	return s.name
}

// Fields returns the registered fields in order.
func (s *EntitySettings) Fields() []*Field {
	return append([]*Field(nil), s.fields...)
}

// OutputFields returns the names of the fields that appear in records, in
// registration order.
func (s *EntitySettings) OutputFields() []string {
	var names []string
	for _, f := range s.fields {
		if f.Kind != Silent {
			names = append(names, f.Name)
		}
	}
	return names
}

// AddField registers a persistent field.
func (s *EntitySettings) AddField(name string, path Path) error {
	return s.AddPersistentField(name, path)
}

// AddPersistentField registers a field that is matched and output.
func (s *EntitySettings) AddPersistentField(name string, path Path) error {
	_, err := s.register(&Field{Name: name, Kind: Persistent, path: path})
	return err
}

// AddSilentField registers a field that is matched but never output.
func (s *EntitySettings) AddSilentField(name string, path Path) error {
	_, err := s.register(&Field{Name: name, Kind: Silent, path: path})
	return err
}

// AddConstantField registers a field with a fixed value added to every row.
func (s *EntitySettings) AddConstantField(name, value string) error {
	_, err := s.register(&Field{Name: name, Kind: Constant, value: value})
	return err
}

// AddDownloadField registers a persistent field whose values are resource
// URLs. Every value is downloaded when it is matched and the absolute URL is
// kept as the field value.
func (s *EntitySettings) AddDownloadField(name string, path Path, opts DownloadOptions) error {
	_, err := s.register(&Field{Name: name, Kind: Persistent, path: path, behavior: behaviorDownload, download: opts})
	return err
}

// AddFollowLinkField registers a persistent field whose values are followed
// as links. The returned LinkFollower defines what is parsed from the linked
// documents.
func (s *EntitySettings) AddFollowLinkField(name string, path Path, opts LinkOptions) (*LinkFollower, error) {
	lf := newLinkFollower(name, opts)
	if _, err := s.register(&Field{Name: name, Kind: Persistent, path: path, behavior: behaviorFollow, follower: lf}); err != nil {
		return nil, err
	}
	return lf, nil
}

func (s *EntitySettings) register(f *Field) (*Field, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return nil, configError("entity %q: field without name", s.name)
	}
	if _, ok := s.byName[f.Name]; ok {
		return nil, fmt.Errorf("%w: entity %q: %w %q", ErrInvalidConfig, s.name, ErrDuplicateField, f.Name)
	}
	if f.Kind != Constant {
		if err := f.path.validate(s.byName); err != nil {
			return nil, fmt.Errorf("entity %q field %q: %w", s.name, f.Name, err)
		}
	}
	s.fields = append(s.fields, f)
	s.byName[f.Name] = f
	return f, nil
}

var followerSeq atomic.Uint64

// LinkFollower parses the documents a follow-link field points to. Its own
// fields form an entity named after the follow-link field; additional
// entities can be added with Entity.
type LinkFollower struct {
	id       uint64
	field    string
	opts     LinkOptions
	entities *EntityList
	fields   *EntitySettings
}

func newLinkFollower(field string, opts LinkOptions) *LinkFollower {
	list := NewEntityList()
	return &LinkFollower{
		id:       followerSeq.Add(1),
		field:    strings.TrimSpace(field),
		opts:     opts,
		entities: list,
		fields:   list.Entity(strings.TrimSpace(field)),
	}
}

// Options returns the follower's link options.
func (lf *LinkFollower) Options() LinkOptions {
	return lf.opts
}

// Entities returns the nested entity list parsed from linked documents.
func (lf *LinkFollower) Entities() *EntityList {
	return lf.entities
}

// Entity returns a nested entity of linked documents, creating it on first use.
func (lf *LinkFollower) Entity(name string) *EntitySettings {
	return lf.entities.Entity(name)
}

// FieldEntity returns the implicit entity holding the follower's own fields.
func (lf *LinkFollower) FieldEntity() *EntitySettings {
	return lf.fields
}

// AddField registers a persistent field read from linked documents.
func (lf *LinkFollower) AddField(name string, path Path) error {
	return lf.fields.AddField(name, path)
}

// AddPersistentField registers a persistent field read from linked documents.
func (lf *LinkFollower) AddPersistentField(name string, path Path) error {
	return lf.fields.AddPersistentField(name, path)
}

// AddSilentField registers a silent field read from linked documents.
func (lf *LinkFollower) AddSilentField(name string, path Path) error {
	return lf.fields.AddSilentField(name, path)
}

// AddConstantField adds a fixed value to every linked row.
func (lf *LinkFollower) AddConstantField(name, value string) error {
	return lf.fields.AddConstantField(name, value)
}

// AddDownloadField registers a download field read from linked documents.
func (lf *LinkFollower) AddDownloadField(name string, path Path, opts DownloadOptions) error {
	return lf.fields.AddDownloadField(name, path, opts)
}

// AddFollowLinkField follows links found in linked documents.
func (lf *LinkFollower) AddFollowLinkField(name string, path Path, opts LinkOptions) (*LinkFollower, error) {
	return lf.fields.AddFollowLinkField(name, path, opts)
}
