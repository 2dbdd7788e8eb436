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
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// DocumentReader loads and parses the document at a URL.
type DocumentReader interface {
	ReadDocument(ctx context.Context, rawURL string) (*Document, error)
}

// DocumentReaderFunc adapts a function into a DocumentReader.
type DocumentReaderFunc func(ctx context.Context, rawURL string) (*Document, error)

// ReadDocument calls f.
func (f DocumentReaderFunc) ReadDocument(ctx context.Context, rawURL string) (*Document, error) {
	return f(ctx, rawURL)
}

// HTTPConfig contains the settings used to read documents and download
// resources over HTTP.
type HTTPConfig struct {
	// UserAgent is the User-Agent string used by HTTP requests
	UserAgent string
	// Timeout is the per-request timeout
	Timeout time.Duration
	// RetryMax is the number of retries for transient failures (5xx,
	// connection errors)
	RetryMax int
	// MaxBodySize is the limit of the retrieved document body in bytes.
	// 0 means unlimited.
	MaxBodySize int
	// RespectRobotsTxt makes document reads honor the target host's
	// robots.txt file
	RespectRobotsTxt bool
	// TraceHTTP records connect and first-byte timings of document reads
	// and adds them to the debug log
	TraceHTTP bool
	// LimitRules restrict document reads per domain
	LimitRules []*LimitRule
	// Transport replaces the default HTTP transport. Tests use MockTransport.
	Transport http.RoundTripper
}

// NewDefaultHTTPConfig returns the default HTTP settings.
func NewDefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		UserAgent:   "htmlentity/1.0",
		Timeout:     20 * time.Second,
		RetryMax:    2,
		MaxBodySize: 10 * 1024 * 1024,
	}
}

// HTTPReader reads documents over http(s) and from file URLs.
type HTTPReader struct {
	backend    *httpBackend
	config     *HTTPConfig
	robotsMap  map[string]*robotstxt.RobotsData
	robotsLock sync.Mutex
	logger     *zap.Logger
}

// NewHTTPReader creates a reader. A nil config uses NewDefaultHTTPConfig.
func NewHTTPReader(config *HTTPConfig, logger *zap.Logger) (*HTTPReader, error) {
	if config == nil {
		config = NewDefaultHTTPConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	backend := newHTTPBackend(config)
	if err := backend.Limits(config.LimitRules); err != nil {
		return nil, fmt.Errorf("%w: limit rule: %w", ErrInvalidConfig, err)
	}
	return &HTTPReader{
		backend:   backend,
		config:    config,
		robotsMap: make(map[string]*robotstxt.RobotsData),
		logger:    logger,
	}, nil
}

// Client returns the HTTP client the reader uses.
func (r *HTTPReader) Client() *http.Client {
	return r.backend.Client
}

// ReadDocument implements DocumentReader.
func (r *HTTPReader) ReadDocument(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "file":
		return readFileDocument(u)
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if r.config.RespectRobotsTxt {
		if err := r.checkRobots(ctx, u); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := r.backend.Do(req, r.config.MaxBodySize)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	fields := []zap.Field{zap.String("url", resp.URL), zap.Int("bytes", len(resp.Body))}
	if resp.Trace != nil {
		fields = append(fields,
			zap.Duration("connect", resp.Trace.ConnectDuration()),
			zap.Duration("first_byte", resp.Trace.FirstByteDuration()))
	}
	r.logger.Debug("document read", fields...)

	body := decodeBody(resp.Body, resp.Headers.Get("Content-Type"))
	return ReadDocument(bytes.NewReader(body), resp.URL)
}

func readFileDocument(u *url.URL) (*Document, error) {
	f, err := os.Open(u.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDocument(f, u.String())
}

func (r *HTTPReader) checkRobots(ctx context.Context, u *url.URL) error {
	r.robotsLock.Lock()
	robot, ok := r.robotsMap[u.Host]
	r.robotsLock.Unlock()

	if !ok {
		robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", r.config.UserAgent)
		resp, err := r.backend.Client.Do(req)
		if err != nil {
			return err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}
		robot, err = robotstxt.FromStatusAndBytes(resp.StatusCode, body)
		if err != nil {
			return err
		}
		r.robotsLock.Lock()
		r.robotsMap[u.Host] = robot
		r.robotsLock.Unlock()
	}

	uaGroup := robot.FindGroup(r.config.UserAgent)
	if uaGroup == nil {
		return nil
	}
	if !uaGroup.Test(u.EscapedPath()) {
		return fmt.Errorf("%w: %s", ErrRobotsDisallowed, u.String())
	}
	return nil
}

// decodeBody converts body to UTF-8. The charset comes from the Content-Type
// header, or is detected when the header has none and the body is not valid
// UTF-8 already.
func decodeBody(body []byte, contentType string) []byte {
	name := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		name = params["charset"]
	}
	if name == "" {
		if utf8.Valid(body) {
			return body
		}
		detected, err := chardet.NewHtmlDetector().DetectBest(body)
		if err != nil {
			return body
		}
		name = detected.Charset
	}
	if strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return body
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return body
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}
