// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// This file includes modifications to code originally developed by Adam Tauber,
// licensed under the Apache License, Version 2.0.
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
	"compress/gzip"
	"io"
	"math/rand/v2"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-retryablehttp"
)

type httpBackend struct {
	LimitRules []*LimitRule
	Client     *http.Client
	TraceHTTP  bool
	lock       *sync.RWMutex
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	// URL is the final URL after redirects
	URL string
	// Trace holds connection timings when the backend traces requests
	Trace *HTTPTrace
}

// LimitRule throttles document reads from the hosts it matches. A rule
// matches through DomainRegexp, DomainGlob or both; at least one is required.
// Parallelism caps concurrent reads and Delay, plus up to RandomDelay,
// spaces them out. Resource downloads are spaced by the parser's RateLimiter
// instead.
type LimitRule struct {
	DomainRegexp string
	DomainGlob   string
	Delay        time.Duration
	RandomDelay  time.Duration
	// Parallelism below 2 means one read at a time
	Parallelism int

	slots  chan struct{}
	regexp *regexp.Regexp
	glob   glob.Glob
}

// Init compiles the rule's patterns.
func (r *LimitRule) Init() error {
	r.slots = make(chan struct{}, max(r.Parallelism, 1))
	if r.DomainRegexp == "" && r.DomainGlob == "" {
		return ErrNoPattern
	}
	if r.DomainRegexp != "" {
		re, err := regexp.Compile(r.DomainRegexp)
		if err != nil {
			return err
		}
		r.regexp = re
	}
	if r.DomainGlob != "" {
		g, err := glob.Compile(r.DomainGlob)
		if err != nil {
			return err
		}
		r.glob = g
	}
	return nil
}

// Match reports whether the rule applies to host.
func (r *LimitRule) Match(host string) bool {
	return (r.regexp != nil && r.regexp.MatchString(host)) ||
		(r.glob != nil && r.glob.Match(host))
}

func (r *LimitRule) acquire() {
	r.slots <- struct{}{}
}

func (r *LimitRule) release() {
	wait := r.Delay
	if r.RandomDelay > 0 {
		wait += time.Duration(rand.Int64N(int64(r.RandomDelay)))
	}
	time.Sleep(wait)
	<-r.slots
}

// newHTTPBackend builds a backend whose client retries transient failures
// through go-retryablehttp.
func newHTTPBackend(config *HTTPConfig) *httpBackend {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = config.RetryMax
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil
	if config.Transport != nil {
		retryClient.HTTPClient.Transport = config.Transport
	}

	client := retryClient.StandardClient()
	client.Timeout = config.Timeout
	return &httpBackend{
		Client:    client,
		TraceHTTP: config.TraceHTTP,
		lock:      &sync.RWMutex{},
	}
}

func (h *httpBackend) matchingRule(host string) *LimitRule {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for _, r := range h.LimitRules {
		if r.Match(host) {
			return r
		}
	}
	return nil
}

func (h *httpBackend) Do(request *http.Request, bodySize int) (*Response, error) {
	if r := h.matchingRule(request.URL.Host); r != nil {
		r.acquire()
		defer r.release()
	}

	var trace *HTTPTrace
	if h.TraceHTTP {
		trace = &HTTPTrace{}
		request = trace.WithTrace(request)
	}

	res, err := h.Client.Do(request)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	finalURL := request.URL.String()
	if res.Request != nil && res.Request.URL != nil {
		finalURL = res.Request.URL.String()
	}

	var bodyReader io.Reader = res.Body
	if bodySize > 0 {
		bodyReader = io.LimitReader(bodyReader, int64(bodySize))
	}
	contentEncoding := strings.ToLower(res.Header.Get("Content-Encoding"))
	if !res.Uncompressed && (strings.Contains(contentEncoding, "gzip") || (contentEncoding == "" && strings.Contains(strings.ToLower(res.Header.Get("Content-Type")), "gzip"))) {
		gz, err := gzip.NewReader(bodyReader)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		bodyReader = gz
	}
	body, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: res.StatusCode,
		Body:       body,
		Headers:    res.Header,
		URL:        finalURL,
		Trace:      trace,
	}, nil
}

func (h *httpBackend) Limit(rule *LimitRule) error {
	if err := rule.Init(); err != nil {
		return err
	}
	h.lock.Lock()
	h.LimitRules = append(h.LimitRules, rule)
	h.lock.Unlock()
	return nil
}

func (h *httpBackend) Limits(rules []*LimitRule) error {
	for _, r := range rules {
		if err := h.Limit(r); err != nil {
			return err
		}
	}
	return nil
}
