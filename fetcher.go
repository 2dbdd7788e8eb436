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
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kennygrant/sanitize"
	"go.uber.org/zap"
)

// ResourceResult reports the outcome of one resource download.
type ResourceResult struct {
	// URL is the absolute resource URL, or the raw value if it could not
	// be resolved
	URL string
	// Path is the file the resource was written to
	Path string
	// Skipped is set when the file filter rejected the resource
	Skipped bool
	// Err is set when the download failed
	Err error
}

// ResourceFetcher downloads resources into a directory, one rate-limiter
// permit per network request. It is safe for concurrent use.
type ResourceFetcher struct {
	client    *http.Client
	limiter   *RateLimiter
	opts      FetchOptions
	userAgent string
	logger    *zap.Logger
	metrics   *Metrics

	dir     string
	dirOnce sync.Once
	dirErr  error
}

// NewResourceFetcher creates a fetcher writing into dir. An empty dir falls
// back to a fresh temporary directory, created on the first download.
func NewResourceFetcher(client *http.Client, dir string, opts FetchOptions) *ResourceFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &ResourceFetcher{
		client:  client,
		limiter: NewRateLimiter(opts.RemoteInterval()),
		opts:    opts,
		dir:     dir,
		logger:  zap.NewNop(),
		metrics: NewMetrics(nil),
	}
}

// Limiter returns the rate limiter shared by every download of the fetcher.
func (f *ResourceFetcher) Limiter() *RateLimiter {
	return f.limiter
}

// Dir returns the download directory, creating it if needed.
func (f *ResourceFetcher) Dir() (string, error) {
	f.dirOnce.Do(func() {
		if f.dir == "" {
			f.dir, f.dirErr = os.MkdirTemp("", "htmlentity-")
			return
		}
		f.dirErr = os.MkdirAll(f.dir, 0750)
	})
	return f.dir, f.dirErr
}

// Fetch downloads rawURL. base is used to compute the file's relative path
// and may be empty.
func (f *ResourceFetcher) Fetch(ctx context.Context, rawURL, base string) ResourceResult {
	res := f.fetch(ctx, rawURL, base)
	f.metrics.resource(res)
	if res.Err != nil {
		f.logger.Warn("resource download failed", zap.String("url", rawURL), zap.Error(res.Err))
	}
	return res
}

func (f *ResourceFetcher) fetch(ctx context.Context, rawURL, base string) ResourceResult {
	res := ResourceResult{URL: rawURL}
	if !f.opts.FileFilter()(rawURL) {
		res.Skipped = true
		return res
	}

	rel, isIndex, err := f.targetPath(rawURL, base)
	if err != nil {
		res.Err = err
		return res
	}
	dir, err := f.Dir()
	if err != nil {
		res.Err = fmt.Errorf("download directory: %w", err)
		return res
	}

	start := time.Now()
	if err := f.limiter.Wait(ctx); err != nil {
		res.Err = err
		return res
	}
	if f.limiter.Enabled() {
		f.metrics.waited(time.Since(start))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		res.Err = err
		return res
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		res.Err = fmt.Errorf("GET %s: %s", rawURL, resp.Status)
		return res
	}

	body := bufio.NewReaderSize(resp.Body, 3072)
	if isIndex {
		head, _ := body.Peek(3072)
		rel += mimetype.Detect(head).Extension()
	}

	target := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		res.Err = err
		return res
	}
	res.Path = target
	res.Err = writeFile(target, body)
	return res
}

// writeFile streams r into a temporary sibling of target, then renames it.
func writeFile(target string, r io.Reader) error {
	tmp := target + "~"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, target)
}

const indexName = "index"

var safeSegment = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// TargetPath returns the slash-separated path, relative to the download
// directory, that rawURL is saved to.
//
// The path is the URL path relative to the directory of base when the
// resource lives below it, and the URL path without its leading slash
// otherwise. A URL ending in a slash is saved as "index". With flattening
// every separator becomes an underscore, e.g. "./path/to/resource/image.png"
// is saved as "path_to_resource_image.png".
func (f *ResourceFetcher) TargetPath(rawURL, base string) (string, error) {
	rel, _, err := f.targetPath(rawURL, base)
	return rel, err
}

func (f *ResourceFetcher) targetPath(rawURL, base string) (string, bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	p := u.Path
	if b, err := url.Parse(base); err == nil && base != "" && b.Host == u.Host && b.Scheme == u.Scheme {
		dir := b.Path
		if !strings.HasSuffix(dir, "/") {
			dir = path.Dir(dir) + "/"
		}
		if dir != "/" && strings.HasPrefix(p, dir) {
			p = p[len(dir):]
		}
	}

	trailing := p == "" || strings.HasSuffix(p, "/")
	var segments []string
	for _, s := range strings.Split(path.Clean("/"+p), "/") {
		if s != "" && s != "." && s != ".." {
			segments = append(segments, s)
		}
	}
	if trailing {
		segments = append(segments, indexName)
	}
	for i, s := range segments {
		segments[i] = cleanSegment(s, i == len(segments)-1)
	}

	if f.opts.FlattenDirectoryStructure() {
		return strings.Join(segments, "_"), trailing, nil
	}
	return strings.Join(segments, "/"), trailing, nil
}

func cleanSegment(s string, isFile bool) string {
	if safeSegment.MatchString(s) {
		return s
	}
	if isFile {
		return SanitizeFileName(s)
	}
	return strings.ReplaceAll(sanitize.BaseName(s), "-", "_")
}

// SanitizeFileName replaces dangerous characters in a string
// so the return value can be used as a safe file name.
func SanitizeFileName(fileName string) string {
	ext := filepath.Ext(fileName)
	cleanExt := sanitize.BaseName(ext)
	if cleanExt == "" {
		cleanExt = ".unknown"
	}
	return strings.Replace(fmt.Sprintf(
		"%s.%s",
		sanitize.BaseName(fileName[:len(fileName)-len(ext)]),
		cleanExt[1:],
	), "-", "_", -1)
}
