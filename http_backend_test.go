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
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestBackend(t *testing.T) *httpBackend {
	t.Helper()
	config := NewDefaultHTTPConfig()
	config.RetryMax = 0
	return newHTTPBackend(config)
}

// TestHttpBackendRedirectChain tests that Do reports the URL at the end of a redirect chain
func TestHttpBackendRedirectChain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/redirect-1", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/redirect-2", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/redirect-2", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Final</body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/redirect-1", nil)
	resp, err := newTestBackend(t).Do(req, 0)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if resp.URL != server.URL+"/final" {
		t.Errorf("Expected final URL %s/final, got %s", server.URL, resp.URL)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "<html><body>Final</body></html>" {
		t.Errorf("Unexpected body %q", resp.Body)
	}
}

func TestHttpBackendGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("<p>compressed</p>"))
	gz.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-gzip")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := newTestBackend(t).Do(req, 0)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if string(resp.Body) != "<p>compressed</p>" {
		t.Errorf("Expected decompressed body, got %q", resp.Body)
	}
}

func TestHttpBackendLimitRuleDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	backend := newTestBackend(t)
	delay := 30 * time.Millisecond
	if err := backend.Limit(&LimitRule{DomainGlob: "*", Delay: delay}); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	for range 3 {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		if _, err := backend.Do(req, 0); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 3*delay {
		t.Errorf("Expected at least %v between requests, took %v in total", delay, elapsed)
	}
}

func TestLimitRuleMatch(t *testing.T) {
	rule := &LimitRule{DomainRegexp: `^shop\.`, DomainGlob: "*.example.org"}
	if err := rule.Init(); err != nil {
		t.Fatal(err)
	}
	for domain, want := range map[string]bool{
		"shop.example.com": true,
		"www.example.org":  true,
		"www.example.com":  false,
	} {
		if got := rule.Match(domain); got != want {
			t.Errorf("Match(%q) = %v, want %v", domain, got, want)
		}
	}

	if err := (&LimitRule{}).Init(); err != ErrNoPattern {
		t.Errorf("Expected ErrNoPattern, got %v", err)
	}
}
