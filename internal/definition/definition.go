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

// Package definition loads entity lists from YAML documents.
//
// A definition file looks like:
//
//	groups:
//	  products:
//	    start: {tag: ul, class: products}
//	entities:
//	  - name: product
//	    fields:
//	      - name: title
//	        group: products
//	        match: [{tag: li}, {tag: h2, child: true}]
//	      - name: details
//	        match: [{tag: a, class: details}]
//	        read: attr
//	        attr: href
//	        follow:
//	          nesting: merge
//	          fields:
//	            - name: sku
//	              match: [{tag: p, class: sku}]
package definition

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/agentberlin/htmlentity"
	"github.com/goccy/go-yaml"
)

// File is the root of a definition document.
type File struct {
	Groups   map[string]GroupDef `yaml:"groups"`
	Entities []EntityDef         `yaml:"entities"`
}

// GroupDef describes a group span.
type GroupDef struct {
	Start        StepDef  `yaml:"start"`
	End          *StepDef `yaml:"end"`
	ExcludeStart bool     `yaml:"exclude_start"`
	IncludeEnd   bool     `yaml:"include_end"`
	Inside       string   `yaml:"inside"`
}

// EntityDef describes one entity and its ordered fields.
type EntityDef struct {
	Name   string     `yaml:"name"`
	Fields []FieldDef `yaml:"fields"`
}

// StepDef is one element filter of a path.
type StepDef struct {
	Tag string `yaml:"tag"`
	// Child restricts the step to direct children of the previous step
	Child        bool              `yaml:"child"`
	ID           string            `yaml:"id"`
	Class        string            `yaml:"class"`
	Attrs        map[string]string `yaml:"attrs"`
	HasAttr      []string          `yaml:"has_attr"`
	NoAttr       []string          `yaml:"no_attr"`
	AttrContains map[string]string `yaml:"attr_contains"`
	TextEquals   string            `yaml:"text"`
	TextContains string            `yaml:"text_contains"`
	TextMatches  string            `yaml:"text_matches"`
	Selector     string            `yaml:"selector"`
	Nth          int               `yaml:"nth"`
}

// TransformDef is a value transform. Op is one of trim, lower, upper,
// sanitize, prefix, suffix, replace, regex or split.
type TransformDef struct {
	Op   string `yaml:"op"`
	Arg  string `yaml:"arg"`
	With string `yaml:"with"`
}

// FieldDef describes a field. Kind is persistent (default), silent or
// constant.
type FieldDef struct {
	Name       string         `yaml:"name"`
	Kind       string         `yaml:"kind"`
	Value      string         `yaml:"value"`
	Match      []StepDef      `yaml:"match"`
	Group      string         `yaml:"group"`
	Read       string         `yaml:"read"`
	Attr       string         `yaml:"attr"`
	XPath      string         `yaml:"xpath"`
	Transforms []TransformDef `yaml:"transforms"`
	Filter     string         `yaml:"filter"`
	After      []string       `yaml:"after"`
	Download   *DownloadDef   `yaml:"download"`
	Follow     *FollowDef     `yaml:"follow"`
}

// DownloadDef marks a field as a download field.
type DownloadDef struct {
	BaseURL string `yaml:"base_url"`
}

// FollowDef marks a field as a follow-link field.
type FollowDef struct {
	Template     string      `yaml:"template"`
	Nesting      string      `yaml:"nesting"`
	IgnoreErrors bool        `yaml:"ignore_errors"`
	Fields       []FieldDef  `yaml:"fields"`
	Entities     []EntityDef `yaml:"entities"`
}

// Load reads and builds the definition file at path.
func Load(path string) (*htmlentity.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	list, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Parse decodes a YAML definition document and builds its entity list.
// Unknown keys are rejected.
func Parse(data []byte) (*htmlentity.EntityList, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %s", htmlentity.ErrInvalidConfig, yaml.FormatError(err, false, true))
	}
	return f.Build()
}

// Build converts the decoded document into a validated entity list.
func (f *File) Build() (*htmlentity.EntityList, error) {
	b := &builder{defs: f.Groups, groups: make(map[string]*htmlentity.Group)}
	list := htmlentity.NewEntityList()
	if err := b.entities(list, f.Entities); err != nil {
		return nil, err
	}
	if err := list.Validate(); err != nil {
		return nil, err
	}
	return list, nil
}

type builder struct {
	defs     map[string]GroupDef
	groups   map[string]*htmlentity.Group
	building []string
}

func (b *builder) entities(list *htmlentity.EntityList, defs []EntityDef) error {
	for _, ed := range defs {
		if strings.TrimSpace(ed.Name) == "" {
			return fmt.Errorf("%w: entity without name", htmlentity.ErrInvalidConfig)
		}
		settings := list.Entity(ed.Name)
		for _, fd := range ed.Fields {
			if err := b.field(settings, fd); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) field(s *htmlentity.EntitySettings, fd FieldDef) error {
	kind := strings.ToLower(fd.Kind)
	if kind == "constant" {
		return s.AddConstantField(fd.Name, fd.Value)
	}

	path, err := b.path(fd)
	if err != nil {
		return fmt.Errorf("entity %q field %q: %w", s.Name(), fd.Name, err)
	}

	switch {
	case fd.Follow != nil:
		if kind == "silent" {
			return fmt.Errorf("%w: entity %q field %q: silent fields cannot follow links", htmlentity.ErrInvalidConfig, s.Name(), fd.Name)
		}
		return b.follow(s, fd, path)
	case fd.Download != nil:
		if kind == "silent" {
			return fmt.Errorf("%w: entity %q field %q: silent fields cannot download", htmlentity.ErrInvalidConfig, s.Name(), fd.Name)
		}
		opts := htmlentity.Download()
		if fd.Download.BaseURL != "" {
			opts = opts.WithBaseURL(htmlentity.StaticBaseURL(fd.Download.BaseURL))
		}
		return s.AddDownloadField(fd.Name, path, opts)
	}

	switch kind {
	case "", "persistent":
		return s.AddPersistentField(fd.Name, path)
	case "silent":
		return s.AddSilentField(fd.Name, path)
	}
	return fmt.Errorf("%w: entity %q field %q: unknown kind %q", htmlentity.ErrInvalidConfig, s.Name(), fd.Name, fd.Kind)
}

func (b *builder) follow(s *htmlentity.EntitySettings, fd FieldDef, path htmlentity.Path) error {
	nesting, err := htmlentity.ParseNesting(fd.Follow.Nesting)
	if err != nil {
		return fmt.Errorf("entity %q field %q: %w", s.Name(), fd.Name, err)
	}
	opts := htmlentity.FollowLink().
		WithTemplate(fd.Follow.Template).
		WithNesting(nesting).
		IgnoringFollowingErrors(fd.Follow.IgnoreErrors)

	lf, err := s.AddFollowLinkField(fd.Name, path, opts)
	if err != nil {
		return err
	}
	for _, nested := range fd.Follow.Fields {
		if err := b.field(lf.FieldEntity(), nested); err != nil {
			return err
		}
	}
	return b.entities(lf.Entities(), fd.Follow.Entities)
}

func (b *builder) path(fd FieldDef) (htmlentity.Path, error) {
	if len(fd.Match) == 0 {
		return htmlentity.Path{}, fmt.Errorf("%w: no match steps", htmlentity.ErrInvalidConfig)
	}
	var path htmlentity.Path
	for i, step := range fd.Match {
		tag := step.Tag
		if tag == "" {
			tag = "*"
		}
		preds := predicates(step)
		switch {
		case i == 0:
			path = htmlentity.Match(tag, preds...)
		case step.Child:
			path = path.Child(tag, preds...)
		default:
			path = path.Then(tag, preds...)
		}
	}

	if fd.Group != "" {
		g, err := b.group(fd.Group)
		if err != nil {
			return path, err
		}
		path = path.Within(g)
	}

	switch strings.ToLower(fd.Read) {
	case "", "text":
	case "owntext":
		path = path.ReadOwnText()
	case "html":
		path = path.ReadHTML()
	case "outerhtml":
		path = path.ReadOuterHTML()
	case "attr":
		if fd.Attr == "" {
			return path, fmt.Errorf("%w: read attr without attr name", htmlentity.ErrInvalidConfig)
		}
		path = path.ReadAttr(fd.Attr)
	case "xpath":
		path = path.ReadXPath(fd.XPath)
	case "maintext":
		path = path.ReadMainText()
	default:
		return path, fmt.Errorf("%w: unknown reader %q", htmlentity.ErrInvalidConfig, fd.Read)
	}

	transforms := make([]htmlentity.Transform, 0, len(fd.Transforms))
	for _, td := range fd.Transforms {
		t, err := transform(td)
		if err != nil {
			return path, err
		}
		transforms = append(transforms, t)
	}
	if len(transforms) > 0 {
		path = path.Transform(transforms...)
	}

	if fd.Filter != "" {
		filter, err := htmlentity.RegexFilter(fd.Filter)
		if err != nil {
			return path, err
		}
		path = path.Filter(filter)
	}
	if len(fd.After) > 0 {
		path = path.After(fd.After...)
	}
	return path, nil
}

func (b *builder) group(name string) (*htmlentity.Group, error) {
	if g, ok := b.groups[name]; ok {
		return g, nil
	}
	def, ok := b.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown group %q", htmlentity.ErrInvalidConfig, name)
	}
	if slices.Contains(b.building, name) {
		return nil, fmt.Errorf("%w: group cycle through %q", htmlentity.ErrInvalidConfig, name)
	}
	b.building = append(b.building, name)
	defer func() { b.building = b.building[:len(b.building)-1] }()

	spec := htmlentity.StartAt(filter(def.Start))
	if def.End != nil {
		spec = spec.EndAt(filter(*def.End))
	}
	if def.ExcludeStart {
		spec = spec.ExcludeStart()
	}
	if def.IncludeEnd {
		spec = spec.IncludeEnd()
	}
	if def.Inside != "" {
		parent, err := b.group(def.Inside)
		if err != nil {
			return nil, err
		}
		spec = spec.Inside(parent)
	}
	g, err := spec.Build()
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", name, err)
	}
	b.groups[name] = g
	return g, nil
}

func filter(step StepDef) htmlentity.Filter {
	tag := step.Tag
	if tag == "" {
		tag = "*"
	}
	return htmlentity.Tag(tag, predicates(step)...)
}

func predicates(step StepDef) []htmlentity.Predicate {
	var preds []htmlentity.Predicate
	if step.ID != "" {
		preds = append(preds, htmlentity.ID(step.ID))
	}
	if step.Class != "" {
		preds = append(preds, htmlentity.Class(step.Class))
	}
	for _, name := range sortedKeys(step.Attrs) {
		preds = append(preds, htmlentity.Attr(name, step.Attrs[name]))
	}
	for _, name := range step.HasAttr {
		preds = append(preds, htmlentity.HasAttr(name))
	}
	for _, name := range step.NoAttr {
		preds = append(preds, htmlentity.NoAttr(name))
	}
	for _, name := range sortedKeys(step.AttrContains) {
		preds = append(preds, htmlentity.AttrContains(name, step.AttrContains[name]))
	}
	if step.TextEquals != "" {
		preds = append(preds, htmlentity.TextEquals(step.TextEquals))
	}
	if step.TextContains != "" {
		preds = append(preds, htmlentity.TextContains(step.TextContains))
	}
	if step.TextMatches != "" {
		preds = append(preds, htmlentity.TextMatches(step.TextMatches))
	}
	if step.Selector != "" {
		preds = append(preds, htmlentity.Selector(step.Selector))
	}
	if step.Nth > 0 {
		preds = append(preds, htmlentity.Nth(step.Nth))
	}
	return preds
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func transform(td TransformDef) (htmlentity.Transform, error) {
	switch strings.ToLower(td.Op) {
	case "trim":
		return htmlentity.Trim(), nil
	case "lower":
		return htmlentity.Lower(), nil
	case "upper":
		return htmlentity.Upper(), nil
	case "sanitize":
		return htmlentity.Sanitize(), nil
	case "prefix":
		return htmlentity.Prefix(td.Arg), nil
	case "suffix":
		return htmlentity.Suffix(td.Arg), nil
	case "replace":
		return htmlentity.Replace(td.Arg, td.With), nil
	case "regex":
		return htmlentity.Regex(td.Arg), nil
	case "split":
		return htmlentity.Split(td.Arg), nil
	}
	return htmlentity.Transform{}, fmt.Errorf("%w: unknown transform %q", htmlentity.ErrInvalidConfig, td.Op)
}
