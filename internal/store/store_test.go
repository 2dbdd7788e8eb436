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

package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentberlin/htmlentity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

const productsHTML = `<html><body>
<div class="p"><h2>Chair</h2><span>49</span><a href="/reviews/1">reviews</a></div>
<div class="p"><h2>Table</h2><span>120</span><a href="/reviews/2">reviews</a></div>
</body></html>`

func parseProducts(t *testing.T) *htmlentity.Results {
	t.Helper()
	mock := htmlentity.NewMockTransport()
	mock.RegisterHTML("http://example.com/reviews/1", `<ul><li>good</li><li>fine</li></ul>`)
	mock.RegisterHTML("http://example.com/reviews/2", `<ul><li>meh</li></ul>`)

	list := htmlentity.NewEntityList()
	product := list.Entity("product")
	must(t, product.AddField("name", htmlentity.Match("h2")))
	must(t, product.AddField("price", htmlentity.Match("span")))
	lf, err := product.AddFollowLinkField("reviews", htmlentity.Match("a").ReadAttr("href"), htmlentity.FollowLink())
	must(t, err)
	must(t, lf.AddField("text", htmlentity.Match("li")))

	cfg := htmlentity.NewDefaultParserConfig()
	cfg.DownloadDir = t.TempDir()
	cfg.HTTP.Transport = mock
	cfg.HTTP.RetryMax = 0
	parser, err := htmlentity.NewParser(list, cfg)
	must(t, err)

	res, err := parser.ParseHTML(context.Background(), strings.NewReader(productsHTML), "http://example.com/")
	must(t, err)
	return res
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	store := newTestStore(t)

	run, err := store.CreateRun([]string{"http://example.com/"}, "entities: []")
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("Expected run ID to be set")
	}
	if run.State != RunStateInProgress {
		t.Errorf("Expected State = %q, got %q", RunStateInProgress, run.State)
	}

	if err := store.SaveResults(run.ID, "http://example.com/", parseProducts(t)); err != nil {
		t.Fatalf("SaveResults() failed: %v", err)
	}
	if err := store.FinishRun(run.ID, nil); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if got.State != RunStateCompleted {
		t.Errorf("Expected State = %q, got %q", RunStateCompleted, got.State)
	}
	if got.Documents != 1 || got.RecordCount != 2 || got.ErrorCount != 0 {
		t.Errorf("Unexpected counters: documents=%d records=%d errors=%d", got.Documents, got.RecordCount, got.ErrorCount)
	}
	if got.FinishedAt == 0 {
		t.Error("Expected FinishedAt to be set")
	}
	if urls := got.URLList(); len(urls) != 1 || urls[0] != "http://example.com/" {
		t.Errorf("Unexpected URLList: %v", urls)
	}

	records, err := store.GetRecords(run.ID)
	if err != nil {
		t.Fatalf("GetRecords() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	rec, err := records[0].Record()
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if rec.Get("name") != "Chair" || rec.Get("price") != "49" || rec.Get("reviews") != "/reviews/1" {
		t.Errorf("Unexpected first record: %+v", rec.Values)
	}
	if strings.Join(rec.Fields, ",") != "name,price,reviews" {
		t.Errorf("Unexpected field order: %v", rec.Fields)
	}

	children, err := store.GetChildRecords(records[0].ID)
	if err != nil {
		t.Fatalf("GetChildRecords() failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("Expected 2 linked rows, got %d", len(children))
	}
	if children[0].LinkField != "reviews" || children[0].Entity != "reviews" {
		t.Errorf("Unexpected child: field=%q entity=%q", children[0].LinkField, children[0].Entity)
	}
	child, _ := children[1].Record()
	if child.Get("text") != "fine" {
		t.Errorf("Expected second review 'fine', got %q", child.Get("text"))
	}

	children, _ = store.GetChildRecords(records[1].ID)
	if len(children) != 1 {
		t.Errorf("Expected 1 linked row for the second record, got %d", len(children))
	}
}

func TestFinishRunFailed(t *testing.T) {
	store := newTestStore(t)
	run, err := store.CreateRun([]string{"http://example.com/"}, "")
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}

	if err := store.FinishRun(run.ID, errors.New("boom")); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}
	got, _ := store.GetRun(run.ID)
	if got.State != RunStateFailed || got.Error != "boom" {
		t.Errorf("Expected failed run with error, got state=%q error=%q", got.State, got.Error)
	}

	if err := store.FinishRun("missing", nil); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestSaveResultsUnknownRun(t *testing.T) {
	store := newTestStore(t)
	err := store.SaveResults("missing", "http://example.com/", parseProducts(t))
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	var ids []string
	for i := 0; i < 3; i++ {
		run, err := store.CreateRun([]string{"http://example.com/"}, "")
		if err != nil {
			t.Fatalf("CreateRun() failed: %v", err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Errorf("Runs not ordered newest first: %v", []string{runs[0].ID, runs[1].ID, runs[2].ID})
	}

	limited, _ := store.ListRuns(2)
	if len(limited) != 2 {
		t.Errorf("Expected 2 runs with limit, got %d", len(limited))
	}
}

func TestDeleteRun(t *testing.T) {
	store := newTestStore(t)
	run, _ := store.CreateRun([]string{"http://example.com/"}, "")
	must(t, store.SaveResults(run.ID, "http://example.com/", parseProducts(t)))

	if err := store.DeleteRun(run.ID); err != nil {
		t.Fatalf("DeleteRun() failed: %v", err)
	}
	if _, err := store.GetRun(run.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound after delete, got %v", err)
	}
	var remaining int64
	store.DB().Model(&StoredRecord{}).Count(&remaining)
	if remaining != 0 {
		t.Errorf("Expected records to be deleted, %d remain", remaining)
	}

	if err := store.DeleteRun(run.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound for second delete, got %v", err)
	}
}

func TestSaveResultsResources(t *testing.T) {
	store := newTestStore(t)
	run, _ := store.CreateRun(nil, "")

	res := &htmlentity.Results{Resources: []htmlentity.ResourceResult{
		{URL: "http://example.com/a.png", Path: "/tmp/a.png"},
		{URL: "http://example.com/b.png", Skipped: true},
		{URL: "http://example.com/c.png", Err: errors.New("gone")},
	}}
	must(t, store.SaveResults(run.ID, "http://example.com/", res))

	resources, err := store.GetResources(run.ID)
	if err != nil {
		t.Fatalf("GetResources() failed: %v", err)
	}
	if len(resources) != 3 {
		t.Fatalf("Expected 3 resources, got %d", len(resources))
	}
	if !resources[1].Skipped || resources[2].Error != "gone" || resources[0].Path != "/tmp/a.png" {
		t.Errorf("Unexpected resources: %+v", resources)
	}
}
