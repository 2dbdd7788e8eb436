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

package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agentberlin/htmlentity"
	"github.com/agentberlin/htmlentity/internal/definition"
	"go.uber.org/zap"
)

// ErrNoURLs is returned for a parse request without URLs
var ErrNoURLs = errors.New("no urls given")

// ParseRequest describes one parse run.
type ParseRequest struct {
	URLs []string `json:"urls"`
	// Definitions is the YAML entity definition document
	Definitions string `json:"definitions"`
	// Save stores the run and its records
	Save bool `json:"save,omitempty"`
	// DownloadDir overrides the configured download directory
	DownloadDir string `json:"downloadDir,omitempty"`
	// FetchResources downloads every resource referenced by the parsed
	// documents in addition to download fields
	FetchResources bool `json:"fetchResources,omitempty"`
}

// ResourceSummary reports one attempted download.
type ResourceSummary struct {
	URL     string `json:"url"`
	Path    string `json:"path,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DocumentResult is the outcome of one URL.
type DocumentResult struct {
	URL       string                      `json:"url"`
	Records   map[string][]map[string]any `json:"records,omitempty"`
	Errors    []string                    `json:"errors,omitempty"`
	Resources []ResourceSummary           `json:"resources,omitempty"`
	Error     string                      `json:"error,omitempty"`

	results *htmlentity.Results
}

// Results returns the parsed results, nil when the document failed.
func (d *DocumentResult) Results() *htmlentity.Results {
	return d.results
}

// ParseResponse is the outcome of a parse run.
type ParseResponse struct {
	RunID     string           `json:"runId,omitempty"`
	Documents []DocumentResult `json:"documents"`
}

// Parse builds the entity list from req.Definitions and runs it.
func (a *App) Parse(ctx context.Context, req ParseRequest) (*ParseResponse, error) {
	list, err := definition.Parse([]byte(req.Definitions))
	if err != nil {
		return nil, err
	}
	return a.ParseEntities(ctx, list, req)
}

// NewParser builds a parser for list from the application config.
func (a *App) NewParser(list *htmlentity.EntityList, downloadDir string) (*htmlentity.Parser, error) {
	return a.newParser(list, downloadDir, nil)
}

func (a *App) newParser(list *htmlentity.EntityList, downloadDir string, wrap func(htmlentity.DocumentReader) htmlentity.DocumentReader) (*htmlentity.Parser, error) {
	cfg := a.config.ParserConfig()
	cfg.Logger = a.logger
	cfg.Metrics = a.metrics
	cfg.Listener = htmlentity.LoggingListener(a.logger)
	if downloadDir != "" {
		cfg.DownloadDir = downloadDir
	}
	if a.transport != nil {
		cfg.HTTP.Transport = a.transport
	}
	if wrap != nil {
		reader, err := htmlentity.NewHTTPReader(cfg.HTTP, a.logger)
		if err != nil {
			return nil, err
		}
		cfg.Reader = wrap(reader)
	}
	return htmlentity.NewParser(list, cfg)
}

// documentKeeper remembers the top-level documents it reads so their
// resources can be fetched without reading them again.
type documentKeeper struct {
	htmlentity.DocumentReader
	wanted map[string]bool

	mu   sync.Mutex
	docs map[string]*htmlentity.Document
}

func (k *documentKeeper) ReadDocument(ctx context.Context, rawURL string) (*htmlentity.Document, error) {
	doc, err := k.DocumentReader.ReadDocument(ctx, rawURL)
	if err == nil && k.wanted[rawURL] {
		k.mu.Lock()
		if _, ok := k.docs[rawURL]; !ok {
			k.docs[rawURL] = doc
		}
		k.mu.Unlock()
	}
	return doc, err
}

func (k *documentKeeper) document(rawURL string) *htmlentity.Document {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.docs[rawURL]
}

// ParseEntities runs list over req.URLs. Document failures are reported per
// document; the returned error is reserved for failures of the run itself.
func (a *App) ParseEntities(ctx context.Context, list *htmlentity.EntityList, req ParseRequest) (*ParseResponse, error) {
	if len(req.URLs) == 0 {
		return nil, ErrNoURLs
	}
	if req.Save && a.store == nil {
		return nil, ErrNoStore
	}

	var keeper *documentKeeper
	var wrap func(htmlentity.DocumentReader) htmlentity.DocumentReader
	if req.FetchResources {
		wrap = func(r htmlentity.DocumentReader) htmlentity.DocumentReader {
			keeper = &documentKeeper{DocumentReader: r, wanted: make(map[string]bool), docs: make(map[string]*htmlentity.Document)}
			for _, u := range req.URLs {
				keeper.wanted[u] = true
			}
			return keeper
		}
	}
	parser, err := a.newParser(list, req.DownloadDir, wrap)
	if err != nil {
		return nil, err
	}

	resp := &ParseResponse{Documents: make([]DocumentResult, 0, len(req.URLs))}
	if req.Save {
		run, err := a.store.CreateRun(req.URLs, req.Definitions)
		if err != nil {
			return nil, err
		}
		resp.RunID = run.ID
	}
	a.logger.Info("parse run started", zap.String("run", resp.RunID), zap.Int("urls", len(req.URLs)))
	a.emitter.Emit(EventRunStarted, resp)

	var failures []error
	for _, o := range parser.ParseAll(ctx, req.URLs) {
		doc := DocumentResult{URL: o.URL, results: o.Results}
		if o.Err != nil {
			doc.Error = o.Err.Error()
			failures = append(failures, fmt.Errorf("%s: %w", o.URL, o.Err))
			a.logger.Warn("document failed", zap.String("url", o.URL), zap.Error(o.Err))
		} else {
			if keeper != nil {
				if d := keeper.document(o.URL); d != nil {
					o.Results.Resources = append(o.Results.Resources, parser.FetchResources(ctx, d)...)
				}
			}
			doc.Records = o.Results.Map()
			for _, e := range o.Results.Errors {
				doc.Errors = append(doc.Errors, e.Error())
			}
			for _, r := range o.Results.Resources {
				s := ResourceSummary{URL: r.URL, Path: r.Path, Skipped: r.Skipped}
				if r.Err != nil {
					s.Error = r.Err.Error()
				}
				doc.Resources = append(doc.Resources, s)
			}
			if req.Save {
				if err := a.store.SaveResults(resp.RunID, o.URL, o.Results); err != nil {
					_ = a.store.FinishRun(resp.RunID, err)
					return nil, err
				}
			}
		}
		resp.Documents = append(resp.Documents, doc)
		a.emitter.Emit(EventDocument, &doc)
	}

	// A run fails only when no document could be parsed
	var runErr error
	if len(failures) == len(req.URLs) {
		runErr = errors.Join(failures...)
	}
	if req.Save {
		if err := a.store.FinishRun(resp.RunID, runErr); err != nil {
			return nil, err
		}
	}
	a.logger.Info("parse run finished", zap.String("run", resp.RunID), zap.Int("failed", len(failures)))
	a.emitter.Emit(EventRunCompleted, resp)
	return resp, nil
}
