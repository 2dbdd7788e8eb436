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
	"net/http/httptrace"
	"sync"
	"time"
)

// HTTPTrace records connection timings of a single document read.
type HTTPTrace struct {
	mu                sync.Mutex
	start, connect    time.Time
	connectDuration   time.Duration
	firstByteDuration time.Duration
}

func (ht *HTTPTrace) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GetConn: func(string) {
			ht.mu.Lock()
			ht.start = time.Now()
			ht.mu.Unlock()
		},
		ConnectStart: func(string, string) {
			ht.mu.Lock()
			ht.connect = time.Now()
			ht.mu.Unlock()
		},
		ConnectDone: func(string, string, error) {
			ht.mu.Lock()
			ht.connectDuration = time.Since(ht.connect)
			ht.mu.Unlock()
		},
		GotFirstResponseByte: func() {
			ht.mu.Lock()
			ht.firstByteDuration = time.Since(ht.start)
			ht.mu.Unlock()
		},
	}
}

// WithTrace returns req with the trace attached to its context.
func (ht *HTTPTrace) WithTrace(req *http.Request) *http.Request {
	return req.WithContext(httptrace.WithClientTrace(req.Context(), ht.clientTrace()))
}

// ConnectDuration is the time spent dialing. Zero when a pooled connection
// was reused.
func (ht *HTTPTrace) ConnectDuration() time.Duration {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	return ht.connectDuration
}

// FirstByteDuration is the time from acquiring a connection to the first
// response byte.
func (ht *HTTPTrace) FirstByteDuration() time.Duration {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	return ht.firstByteDuration
}
