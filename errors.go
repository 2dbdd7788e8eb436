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
	"fmt"
)

var (
	// ErrInvalidConfig is the error wrapped by every registration-time
	// configuration failure
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrDuplicateField is returned when a field name is registered twice on
	// the same entity
	ErrDuplicateField = errors.New("duplicate field name")
	// ErrInvalidURL is returned when a value used as a URL cannot be resolved
	ErrInvalidURL = errors.New("invalid URL")
	// ErrUnsupportedScheme is returned for URLs whose scheme cannot be read
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrNoDocumentReader is returned when a link has to be followed but the
	// parser has no DocumentReader
	ErrNoDocumentReader = errors.New("no document reader configured")
	// ErrRobotsDisallowed is the error returned when a document is
	// disallowed by robots.txt
	ErrRobotsDisallowed = errors.New("URL blocked by robots.txt")
	// ErrNoPattern is the error returned when a LimitRule does not contain
	// a domain pattern
	ErrNoPattern = errors.New("no pattern defined in LimitRule")
	// ErrMissingStart is returned when a group is built without a start element
	ErrMissingStart = errors.New("group has no start element")
	// ErrEmptyDocument is returned when a reader hands back no content
	ErrEmptyDocument = errors.New("empty document")
)

// LinkResolutionError reports a follow-link value that could not be turned
// into a parsed document. It is fatal for the record that produced it unless
// the link follower ignores following errors.
type LinkResolutionError struct {
	Entity string
	Field  string
	Value  string
	Err    error
}

func (e *LinkResolutionError) Error() string {
	return fmt.Sprintf("following link %q of field %s.%s: %v", e.Value, e.Entity, e.Field, e.Err)
}

func (e *LinkResolutionError) Unwrap() error {
	return e.Err
}

// RecordError is appended to Results.Errors when a row is dropped because its
// processing chain failed.
type RecordError struct {
	Entity string
	// Row is the 0-based position the row would have had among its entity's rows
	Row int
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d of entity %s: %v", e.Row, e.Entity, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
