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

// Package app is the application layer shared by the CLI, the HTTP API and
// the MCP server: it builds parsers from definitions, runs them and keeps
// their results in the store.
package app

import (
	"errors"
	"net/http"

	"github.com/agentberlin/htmlentity"
	"github.com/agentberlin/htmlentity/internal/config"
	"github.com/agentberlin/htmlentity/internal/store"
	"github.com/agentberlin/htmlentity/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// ErrNoStore is returned by operations that need persistence when the app
// was created without a store.
var ErrNoStore = errors.New("no store configured")

// App represents the core application logic
type App struct {
	store    *store.Store
	config   *config.Config
	logger   *zap.Logger
	emitter  EventEmitter
	registry *prometheus.Registry
	metrics  *htmlentity.Metrics

	// transport replaces the HTTP transport of every parser, used in tests
	transport http.RoundTripper
}

// Option configures an App.
type Option func(*App)

// WithEmitter sets the event emitter.
func WithEmitter(e EventEmitter) Option {
	return func(a *App) { a.emitter = e }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithTransport makes every parser use rt for its requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(a *App) { a.transport = rt }
}

// NewApp creates a new App. st may be nil, in which case runs are never
// saved; cfg nil means config.Default().
func NewApp(st *store.Store, cfg *config.Config, opts ...Option) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &App{
		store:    st,
		config:   cfg,
		logger:   zap.NewNop(),
		emitter:  &NoOpEmitter{},
		registry: registry,
		metrics:  htmlentity.NewMetrics(registry),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store returns the store, nil when persistence is disabled.
func (a *App) Store() *store.Store {
	return a.store
}

// Registry returns the prometheus registry holding the parser metrics.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Config returns the application config.
func (a *App) Config() *config.Config {
	return a.config
}

// GetVersion returns the current version of the application
func (a *App) GetVersion() string {
	return version.CurrentVersion
}
