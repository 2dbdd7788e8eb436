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

import "time"

// DefaultRemoteInterval is the minimum spacing between resource downloads
// unless FetchOptions says otherwise.
const DefaultRemoteInterval = 15 * time.Millisecond

// FetchOptions controls how referenced resources are downloaded during a
// parse run. The zero value flattens nothing, accepts every resource and
// disables rate limiting; use DefaultFetchOptions for the documented
// defaults.
type FetchOptions struct {
	flatten  bool
	filter   StringFilter
	interval time.Duration
}

// DefaultFetchOptions returns options that keep directory structure, accept
// all resources and wait DefaultRemoteInterval between downloads.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{interval: DefaultRemoteInterval}
}

// WithFlattenDirectoryStructure returns a copy that writes every resource
// directly into the download directory, replacing path separators in its
// relative path with underscores.
func (o FetchOptions) WithFlattenDirectoryStructure(flatten bool) FetchOptions {
	o.flatten = flatten
	return o
}

// WithFileFilter returns a copy that only downloads resources whose URL is
// accepted by filter. A nil filter accepts everything.
func (o FetchOptions) WithFileFilter(filter StringFilter) FetchOptions {
	o.filter = filter
	return o
}

// WithRemoteInterval returns a copy with a different minimum interval
// between downloads. Values <= 0 disable rate limiting.
func (o FetchOptions) WithRemoteInterval(interval time.Duration) FetchOptions {
	o.interval = interval
	return o
}

// FlattenDirectoryStructure reports whether resource paths are flattened.
func (o FetchOptions) FlattenDirectoryStructure() bool {
	return o.flatten
}

// FileFilter returns the resource filter. Never nil.
func (o FetchOptions) FileFilter() StringFilter {
	if o.filter == nil {
		return AcceptAll
	}
	return o.filter
}

// RemoteInterval returns the minimum interval between downloads.
func (o FetchOptions) RemoteInterval() time.Duration {
	return o.interval
}

// BaseURLProvider returns the base URL relative resource links are resolved
// against. An empty result falls back to the document's base URL.
type BaseURLProvider func(pc *ParsingContext) string

// StaticBaseURL always resolves against base.
func StaticBaseURL(base string) BaseURLProvider {
	return func(*ParsingContext) string { return base }
}

// DownloadOptions configures a download field.
type DownloadOptions struct {
	baseURL BaseURLProvider
}

// Download returns options resolving relative links against the document.
func Download() DownloadOptions {
	return DownloadOptions{}
}

// WithBaseURL returns a copy resolving relative links through provider.
func (o DownloadOptions) WithBaseURL(provider BaseURLProvider) DownloadOptions {
	o.baseURL = provider
	return o
}

// Nesting decides how the rows of a followed link combine with the row that
// produced the link.
type Nesting int

const (
	// NestCollection attaches every linked row, in URL order, to the parent
	// row as linked entity data.
	NestCollection Nesting = iota
	// NestMerge merges the fields of the single linked row into the parent
	// row's linked field data. Extra rows are discarded with a warning.
	NestMerge
	// NestExpand emits one copy of the parent row per linked row, each with
	// that row's fields merged in. A parent without linked rows is kept as is.
	NestExpand
)

func (n Nesting) String() string {
	switch n {
	case NestMerge:
		return "merge"
	case NestExpand:
		return "expand"
	default:
		return "collection"
	}
}

// ParseNesting converts "collection", "merge" or "expand" into a Nesting.
func ParseNesting(s string) (Nesting, error) {
	switch s {
	case "", "collection", "nested":
		return NestCollection, nil
	case "merge", "flatten", "join":
		return NestMerge, nil
	case "expand":
		return NestExpand, nil
	}
	return 0, configError("unknown nesting %q", s)
}

// LinkOptions configures a follow-link field.
type LinkOptions struct {
	template     string
	nesting      Nesting
	ignoreErrors bool
}

// FollowLink returns options that use each field value directly as a URL,
// collect linked rows and treat link errors as fatal.
func FollowLink() LinkOptions {
	return LinkOptions{}
}

// WithTemplate returns a copy that builds URLs by substituting values into
// template. {field} is replaced with the query-escaped value being followed
// when field is the follow-link field itself, or with the first value of
// another field of the same row otherwise.
func (o LinkOptions) WithTemplate(template string) LinkOptions {
	o.template = template
	return o
}

// WithNesting returns a copy using nesting n.
func (o LinkOptions) WithNesting(n Nesting) LinkOptions {
	o.nesting = n
	return o
}

// IgnoringFollowingErrors returns a copy that skips links which cannot be
// resolved or read instead of failing the record.
func (o LinkOptions) IgnoringFollowingErrors(ignore bool) LinkOptions {
	o.ignoreErrors = ignore
	return o
}

// Template returns the URL template, empty when values are used directly.
func (o LinkOptions) Template() string {
	return o.template
}

// Nesting returns the nesting strategy.
func (o LinkOptions) Nesting() Nesting {
	return o.nesting
}

// IgnoreFollowingErrors reports whether link errors are skipped.
func (o LinkOptions) IgnoreFollowingErrors() bool {
	return o.ignoreErrors
}
