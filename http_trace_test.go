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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testDelay = 200 * time.Millisecond

func newTraceTestServer(delay time.Duration) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Write([]byte("<html></html>"))
	}))
}

func TestTraceWithNoDelay(t *testing.T) {
	ts := newTraceTestServer(0)
	defer ts.Close()

	req, err := http.NewRequest("GET", ts.URL, nil)
	if err != nil {
		t.Fatalf("Failed to construct request %v", err)
	}
	trace := &HTTPTrace{}
	req = trace.WithTrace(req)
	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("Failed to make request %v", err)
	}
	res.Body.Close()

	if trace.ConnectDuration() > testDelay {
		t.Errorf("ConnectDuration should be (almost) 0, got %v", trace.ConnectDuration())
	}
	if trace.FirstByteDuration() > testDelay {
		t.Errorf("FirstByteDuration should be (almost) 0, got %v", trace.FirstByteDuration())
	}
}

func TestBackendTracesRequests(t *testing.T) {
	ts := newTraceTestServer(testDelay)
	defer ts.Close()

	config := NewDefaultHTTPConfig()
	config.RetryMax = 0
	config.TraceHTTP = true
	backend := newHTTPBackend(config)

	req, _ := http.NewRequest("GET", ts.URL, nil)
	resp, err := backend.Do(req, 0)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if resp.Trace == nil {
		t.Fatal("expected a trace when TraceHTTP is set")
	}
	if resp.Trace.FirstByteDuration() < testDelay {
		t.Errorf("FirstByteDuration should be at least %v, got %v", testDelay, resp.Trace.FirstByteDuration())
	}
}

func TestBackendWithoutTrace(t *testing.T) {
	ts := newTraceTestServer(0)
	defer ts.Close()

	req, _ := http.NewRequest("GET", ts.URL, nil)
	resp, err := newTestBackend(t).Do(req, 0)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if resp.Trace != nil {
		t.Error("trace should be nil unless TraceHTTP is set")
	}
}
