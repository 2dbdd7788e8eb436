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
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"
)

// MockResponse is a canned HTTP response.
type MockResponse struct {
	// StatusCode defaults to 200
	StatusCode int
	Body       string
	// BodyFunc builds the body from the request and takes precedence over Body
	BodyFunc func(*http.Request) string
	Headers  http.Header
	// Delay simulates network latency
	Delay time.Duration
	// Error simulates a transport failure
	Error error
}

type mockPattern struct {
	pattern  *regexp.Regexp
	response *MockResponse
}

// MockTransport is an http.RoundTripper serving registered responses, so
// readers and fetchers can be tested without a network. Unknown URLs get a
// 404. Every request URL is recorded.
type MockTransport struct {
	mu        sync.RWMutex
	responses map[string]*MockResponse
	patterns  []mockPattern
	requests  []string
}

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{responses: make(map[string]*MockResponse)}
}

func normalizeMock(response *MockResponse) *MockResponse {
	if response.StatusCode == 0 {
		response.StatusCode = http.StatusOK
	}
	if response.Headers == nil {
		response.Headers = make(http.Header)
	}
	return response
}

// RegisterResponse serves response for an exact URL.
func (m *MockTransport) RegisterResponse(url string, response *MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[url] = normalizeMock(response)
}

// RegisterHTML serves html with status 200 for url.
func (m *MockTransport) RegisterHTML(url, html string) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/html; charset=utf-8")
	m.RegisterResponse(url, &MockResponse{Body: html, Headers: headers})
}

// RegisterError makes requests for url fail with err.
func (m *MockTransport) RegisterError(url string, err error) {
	m.RegisterResponse(url, &MockResponse{Error: err})
}

// RegisterPattern serves response for every URL matching the regular
// expression pattern. Exact registrations win over patterns.
func (m *MockTransport) RegisterPattern(pattern string, response *MockResponse) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, mockPattern{pattern: re, response: normalizeMock(response)})
	return nil
}

// Requests returns the URLs requested so far, in order.
func (m *MockTransport) Requests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requests...)
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()

	m.mu.Lock()
	m.requests = append(m.requests, url)
	mock, found := m.responses[url]
	if !found {
		for _, p := range m.patterns {
			if p.pattern.MatchString(url) {
				mock, found = p.response, true
				break
			}
		}
	}
	m.mu.Unlock()

	if !found {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Body:       io.NopCloser(bytes.NewBufferString("Not Found")),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}

	if mock.Delay > 0 {
		select {
		case <-time.After(mock.Delay):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
	if mock.Error != nil {
		return nil, mock.Error
	}

	body := mock.Body
	if mock.BodyFunc != nil {
		body = mock.BodyFunc(req)
	}
	return &http.Response{
		StatusCode:    mock.StatusCode,
		Status:        http.StatusText(mock.StatusCode),
		Body:          io.NopCloser(bytes.NewBufferString(body)),
		Header:        mock.Headers.Clone(),
		ContentLength: int64(len(body)),
		Request:       req,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
	}, nil
}
