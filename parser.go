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
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ParserConfig contains the settings of a Parser. Zero fields take the value
// of NewDefaultParserConfig.
type ParserConfig struct {
	// ThreadCount is the number of documents parsed concurrently by ParseAll
	// and the number of concurrent downloads of FetchResources
	ThreadCount int
	// DownloadDir receives downloaded resources. Empty means a fresh
	// temporary directory.
	DownloadDir string
	// Fetch controls resource downloads. nil means DefaultFetchOptions.
	Fetch *FetchOptions
	// HTTP configures the default document reader and the download client
	HTTP *HTTPConfig
	// Reader replaces the HTTP document reader used for top-level URLs and
	// followed links
	Reader DocumentReader
	// Listener observes every parse, nested parses included
	Listener Listener
	// Logger receives structured logs. nil means zap.NewNop().
	Logger *zap.Logger
	// Metrics is shared with other parsers when set
	Metrics *Metrics
	// Registerer registers freshly created metrics when Metrics is nil
	Registerer prometheus.Registerer
}

// NewDefaultParserConfig returns a ParserConfig with sensible defaults.
func NewDefaultParserConfig() *ParserConfig {
	fetch := DefaultFetchOptions()
	return &ParserConfig{
		ThreadCount: 4,
		Fetch:       &fetch,
		HTTP:        NewDefaultHTTPConfig(),
		Listener:    NopListener{},
		Logger:      zap.NewNop(),
	}
}

// Parser extracts the records of an EntityList from documents. A Parser is
// safe for concurrent use; each top-level parse runs in its calling
// goroutine together with the nested parses it triggers.
type Parser struct {
	entities *EntityList
	threads  int
	reader   DocumentReader
	fetcher  *ResourceFetcher
	listener Listener
	logger   *zap.Logger
	metrics  *Metrics
}

// Outcome is the result of one URL of ParseAll.
type Outcome struct {
	URL     string
	Results *Results
	Err     error
}

// NewParser validates entities and creates a Parser. If config is nil,
// NewDefaultParserConfig is used.
func NewParser(entities *EntityList, config *ParserConfig) (*Parser, error) {
	if entities == nil {
		return nil, configError("nil entity list")
	}
	if err := entities.Validate(); err != nil {
		return nil, err
	}

	// Merge user config with defaults, user values win when set
	merged := NewDefaultParserConfig()
	if config != nil {
		if config.ThreadCount > 0 {
			merged.ThreadCount = config.ThreadCount
		}
		merged.DownloadDir = config.DownloadDir
		if config.Fetch != nil {
			merged.Fetch = config.Fetch
		}
		if config.HTTP != nil {
			merged.HTTP = config.HTTP
		}
		merged.Reader = config.Reader
		if config.Listener != nil {
			merged.Listener = config.Listener
		}
		if config.Logger != nil {
			merged.Logger = config.Logger
		}
		merged.Metrics = config.Metrics
		merged.Registerer = config.Registerer
	}

	httpReader, err := NewHTTPReader(merged.HTTP, merged.Logger)
	if err != nil {
		return nil, err
	}
	reader := merged.Reader
	if reader == nil {
		reader = httpReader
	}
	metrics := merged.Metrics
	if metrics == nil {
		metrics = NewMetrics(merged.Registerer)
	}

	fetcher := NewResourceFetcher(httpReader.Client(), merged.DownloadDir, *merged.Fetch)
	fetcher.userAgent = merged.HTTP.UserAgent
	fetcher.logger = merged.Logger
	fetcher.metrics = metrics

	return &Parser{
		entities: entities,
		threads:  merged.ThreadCount,
		reader:   reader,
		fetcher:  fetcher,
		listener: merged.Listener,
		logger:   merged.Logger,
		metrics:  metrics,
	}, nil
}

// Entities returns the entity list the parser extracts.
func (p *Parser) Entities() *EntityList {
	return p.entities
}

// Fetcher returns the resource fetcher shared by every parse.
func (p *Parser) Fetcher() *ResourceFetcher {
	return p.fetcher
}

// Metrics returns the parser metrics.
func (p *Parser) Metrics() *Metrics {
	return p.metrics
}

// Parse reads the document at rawURL and parses it.
func (p *Parser) Parse(ctx context.Context, rawURL string) (*Results, error) {
	doc, err := p.reader.ReadDocument(ctx, rawURL)
	if err != nil {
		p.metrics.documentParsed(err)
		return nil, err
	}
	return p.ParseDocument(ctx, doc)
}

// ParseHTML parses the HTML read from r as the document at rawURL.
func (p *Parser) ParseHTML(ctx context.Context, r io.Reader, rawURL string) (*Results, error) {
	doc, err := ReadDocument(r, rawURL)
	if err != nil {
		return nil, err
	}
	return p.ParseDocument(ctx, doc)
}

// ParseDocument extracts the records of doc. Failing rows do not fail the
// parse; they are reported in Results.Errors. The returned error is set only
// when doc is empty or ctx ends the traversal, in which case the rows
// completed so far are returned with it.
func (p *Parser) ParseDocument(ctx context.Context, doc *Document) (*Results, error) {
	if doc == nil || doc.Root == nil {
		return nil, ErrEmptyDocument
	}
	r := newRun(ctx, p)
	res, err := r.parse(doc, p.entities, 0)
	res.Resources = r.resources
	return res, err
}

// ParseAll parses every URL on a pool of ThreadCount workers. Outcomes are
// returned in the order of urls. URLs not parsed before ctx ended carry the
// context error.
func (p *Parser) ParseAll(ctx context.Context, urls []string) []Outcome {
	outcomes := make([]Outcome, len(urls))
	done := make([]bool, len(urls))

	pool := NewWorkerPool(ctx, p.threads, len(urls))
	for i, u := range urls {
		outcomes[i].URL = u
		if err := pool.Submit(func() {
			res, err := p.Parse(ctx, u)
			outcomes[i].Results = res
			outcomes[i].Err = err
			done[i] = true
		}); err != nil {
			break
		}
	}
	pool.Close()

	for i := range outcomes {
		if done[i] {
			continue
		}
		outcomes[i].Err = ctx.Err()
		if outcomes[i].Err == nil {
			outcomes[i].Err = context.Canceled
		}
	}
	return outcomes
}

// resourceSelector matches the elements whose references FetchResources
// downloads.
const resourceSelector = "img[src], script[src], link[href], source[src]"

// FetchResources downloads every image, script, stylesheet, icon and media
// source doc references, up to ThreadCount at a time. Every download still
// waits for the shared rate limiter.
func (p *Parser) FetchResources(ctx context.Context, doc *Document) []ResourceResult {
	refs := resourceRefs(doc)
	results := make([]ResourceResult, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.threads)
	for i, ref := range refs {
		g.Go(func() error {
			abs, err := ResolveURL(doc.BaseURL, ref)
			if err != nil {
				results[i] = ResourceResult{URL: ref, Err: err}
				p.metrics.resource(results[i])
				return nil
			}
			results[i] = p.fetcher.Fetch(gctx, abs, doc.BaseURL)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// resourceRefs lists the distinct resource references of doc in document
// order.
func resourceRefs(doc *Document) []string {
	if doc == nil || doc.Root == nil {
		return nil
	}
	seen := make(map[string]bool)
	var refs []string
	goquery.NewDocumentFromNode(doc.Root.Node()).Find(resourceSelector).Each(func(_ int, s *goquery.Selection) {
		attr := "src"
		if goquery.NodeName(s) == "link" {
			rel := strings.ToLower(s.AttrOr("rel", ""))
			if !strings.Contains(rel, "stylesheet") && !strings.Contains(rel, "icon") {
				return
			}
			attr = "href"
		}
		ref := strings.TrimSpace(s.AttrOr(attr, ""))
		if ref == "" || seen[ref] {
			return
		}
		seen[ref] = true
		refs = append(refs, ref)
	})
	return refs
}
