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
	"sync"

	"go.uber.org/zap"
)

// ParsingContext describes where a parse currently is. Listeners receive the
// same pointer for the whole traversal of one document; it must not be kept
// after the callback returns.
type ParsingContext struct {
	url     string
	baseURL string
	depth   int
	entity  string
	field   string
	visited int
	matched int
	rows    int
	element *Element
}

// URL returns the location of the document being parsed.
func (pc *ParsingContext) URL() string { return pc.url }

// BaseURL returns the URL relative links are resolved against.
func (pc *ParsingContext) BaseURL() string { return pc.baseURL }

// Depth is 0 for top-level documents and grows by one per followed link.
func (pc *ParsingContext) Depth() int { return pc.depth }

// Entity returns the entity of the field being matched. Empty outside
// ElementMatched.
func (pc *ParsingContext) Entity() string { return pc.entity }

// Field returns the name of the field being matched. Empty outside
// ElementMatched.
func (pc *ParsingContext) Field() string { return pc.field }

// Visited returns the number of elements visited so far.
func (pc *ParsingContext) Visited() int { return pc.visited }

// Matched returns the number of field matches so far.
func (pc *ParsingContext) Matched() int { return pc.matched }

// Rows returns the number of rows completed so far, across entities.
func (pc *ParsingContext) Rows() int { return pc.rows }

// Element returns the element being visited.
func (pc *ParsingContext) Element() *Element { return pc.element }

// Listener observes a parse. Hooks are observational: they cannot stop the
// parse, and a panic inside a hook is not recovered.
//
// When a Parser runs with more than one thread, hooks are called
// concurrently for different documents. Implementations must be safe for
// concurrent use, or be wrapped with Synchronized.
type Listener interface {
	ParsingStarted(pc *ParsingContext)
	ElementVisited(e *Element, pc *ParsingContext)
	ElementMatched(e *Element, pc *ParsingContext)
	ParsingEnded(pc *ParsingContext)
}

// NopListener implements every Listener hook as a no-op. Embed it to
// override only some hooks.
type NopListener struct{}

func (NopListener) ParsingStarted(*ParsingContext)           {}
func (NopListener) ElementVisited(*Element, *ParsingContext) {}
func (NopListener) ElementMatched(*Element, *ParsingContext) {}
func (NopListener) ParsingEnded(*ParsingContext)             {}

// ListenerFuncs is a Listener built from optional callbacks.
type ListenerFuncs struct {
	OnParsingStarted func(pc *ParsingContext)
	OnElementVisited func(e *Element, pc *ParsingContext)
	OnElementMatched func(e *Element, pc *ParsingContext)
	OnParsingEnded   func(pc *ParsingContext)
}

func (l ListenerFuncs) ParsingStarted(pc *ParsingContext) {
	if l.OnParsingStarted != nil {
		l.OnParsingStarted(pc)
	}
}

func (l ListenerFuncs) ElementVisited(e *Element, pc *ParsingContext) {
	if l.OnElementVisited != nil {
		l.OnElementVisited(e, pc)
	}
}

func (l ListenerFuncs) ElementMatched(e *Element, pc *ParsingContext) {
	if l.OnElementMatched != nil {
		l.OnElementMatched(e, pc)
	}
}

func (l ListenerFuncs) ParsingEnded(pc *ParsingContext) {
	if l.OnParsingEnded != nil {
		l.OnParsingEnded(pc)
	}
}

type syncListener struct {
	mu sync.Mutex
	l  Listener
}

// Synchronized wraps l so that no two hooks run at the same time.
func Synchronized(l Listener) Listener {
	return &syncListener{l: l}
}

func (s *syncListener) ParsingStarted(pc *ParsingContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.ParsingStarted(pc)
}

func (s *syncListener) ElementVisited(e *Element, pc *ParsingContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.ElementVisited(e, pc)
}

func (s *syncListener) ElementMatched(e *Element, pc *ParsingContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.ElementMatched(e, pc)
}

func (s *syncListener) ParsingEnded(pc *ParsingContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.l.ParsingEnded(pc)
}

type loggingListener struct {
	NopListener
	logger *zap.Logger
}

// LoggingListener logs document boundaries and field matches at debug level.
func LoggingListener(logger *zap.Logger) Listener {
	return &loggingListener{logger: logger}
}

func (l *loggingListener) ParsingStarted(pc *ParsingContext) {
	l.logger.Debug("parsing started", zap.String("url", pc.URL()), zap.Int("depth", pc.Depth()))
}

func (l *loggingListener) ElementMatched(e *Element, pc *ParsingContext) {
	l.logger.Debug("element matched",
		zap.String("entity", pc.Entity()),
		zap.String("field", pc.Field()),
		zap.String("tag", e.Tag),
		zap.Int("depth", pc.Depth()))
}

func (l *loggingListener) ParsingEnded(pc *ParsingContext) {
	l.logger.Debug("parsing ended",
		zap.String("url", pc.URL()),
		zap.Int("visited", pc.Visited()),
		zap.Int("matched", pc.Matched()),
		zap.Int("rows", pc.Rows()))
}
