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

// Package testutil provides a fixture web site for htmlentity tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// CatalogHTML is the listing page served at "/".
const CatalogHTML = `<!DOCTYPE html>
<html>
<head>
<title>Catalog</title>
<link rel="stylesheet" href="/static/site.css">
<link rel="canonical" href="/">
</head>
<body>
<header><h2>Not a product</h2></header>
<ul id="products">
<li class="product">
<h2>Red Chair</h2>
<span class="price">49</span>
<img src="/images/chair.png">
<a class="details" href="/products/1">Details</a>
</li>
<li class="product">
<h2>Blue Table</h2>
<span class="price">120</span>
<img src="/images/table.png">
<a class="details" href="/products/2">Details</a>
</li>
</ul>
<script src="/static/app.js"></script>
</body>
</html>`

// ProductHTML returns the detail page of product id.
func ProductHTML(id string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<div class="detail">
<h1>Product %[1]s</h1>
<p class="sku">SKU-%[1]s</p>
<ul class="reviews"><li class="review">good</li><li class="review">fine</li></ul>
</div>
</body></html>`, id)
}

// SearchHTML returns the result page for query q.
func SearchHTML(q string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><body>
<div class="result"><span class="title">%[1]s one</span></div>
<div class="result"><span class="title">%[1]s two</span></div>
</body></html>`, q)
}

// PNG is a minimal PNG file.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

// RobotsFile disallows /private for every agent.
const RobotsFile = `User-agent: *
Disallow: /private
`

// FixtureServer is an httptest server serving a small catalog site. It
// counts requests per path.
type FixtureServer struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// NewFixtureServer starts a FixtureServer. Close it when done.
func NewFixtureServer() *FixtureServer {
	fs := &FixtureServer{hits: make(map[string]int)}
	mux := http.NewServeMux()

	html := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		html(w, CatalogHTML)
	})
	mux.HandleFunc("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		html(w, ProductHTML(r.PathValue("id")))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		html(w, SearchHTML(r.URL.Query().Get("q")))
	})
	mux.HandleFunc("/images/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(PNG)
	})
	mux.HandleFunc("/static/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".css") {
			w.Header().Set("Content-Type", "text/css")
			w.Write([]byte("body { margin: 0 }"))
			return
		}
		w.Header().Set("Content-Type", "text/javascript")
		w.Write([]byte("console.log('ok')"))
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(RobotsFile))
	})
	mux.HandleFunc("/private", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<html><body><h2>secret</h2></body></html>`)
	})
	mux.HandleFunc("/latin1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "café" encoded as ISO-8859-1
		w.Write([]byte("<html><body><h2>caf\xe9</h2></body></html>"))
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/products/9", http.StatusFound)
	})
	mux.HandleFunc("/500", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.hits[r.URL.Path]++
		fs.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	return fs
}

// Hits returns how many requests path received.
func (fs *FixtureServer) Hits(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[path]
}
