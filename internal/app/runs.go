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

package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/agentberlin/htmlentity/internal/store"
	"github.com/bytedance/sonic"
)

// RunInfo summarizes a stored run.
type RunInfo struct {
	ID          string   `json:"id"`
	URLs        []string `json:"urls"`
	State       string   `json:"state"`
	Documents   int      `json:"documents"`
	RecordCount int      `json:"recordCount"`
	ErrorCount  int      `json:"errorCount"`
	Error       string   `json:"error,omitempty"`
	StartedAt   int64    `json:"startedAt"`
	FinishedAt  int64    `json:"finishedAt,omitempty"`
}

func runInfo(r *store.ParseRun) RunInfo {
	return RunInfo{
		ID:          r.ID,
		URLs:        r.URLList(),
		State:       r.State,
		Documents:   r.Documents,
		RecordCount: r.RecordCount,
		ErrorCount:  r.ErrorCount,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

// StoredRow is a stored record with the rows of its followed links.
type StoredRow struct {
	ID     uint                   `json:"id"`
	URL    string                 `json:"url,omitempty"`
	Entity string                 `json:"entity"`
	Fields []string               `json:"-"`
	Values map[string]any         `json:"values"`
	Linked map[string][]StoredRow `json:"linked,omitempty"`
}

// ListRuns returns the most recent runs first.
func (a *App) ListRuns(limit int) ([]RunInfo, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	runs, err := a.store.ListRuns(limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunInfo, len(runs))
	for i := range runs {
		out[i] = runInfo(&runs[i])
	}
	return out, nil
}

// GetRun returns one run.
func (a *App) GetRun(id string) (*RunInfo, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	run, err := a.store.GetRun(id)
	if err != nil {
		return nil, err
	}
	info := runInfo(run)
	return &info, nil
}

// DeleteRun deletes a run and its records.
func (a *App) DeleteRun(id string) error {
	if a.store == nil {
		return ErrNoStore
	}
	return a.store.DeleteRun(id)
}

// RunRecords returns the records of a run with their linked rows.
func (a *App) RunRecords(id string) ([]StoredRow, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	if _, err := a.store.GetRun(id); err != nil {
		return nil, err
	}
	records, err := a.store.GetRecords(id)
	if err != nil {
		return nil, err
	}
	return a.rows(records)
}

func (a *App) rows(records []store.StoredRecord) ([]StoredRow, error) {
	out := make([]StoredRow, 0, len(records))
	for _, sr := range records {
		rec, err := sr.Record()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", sr.ID, err)
		}
		row := StoredRow{ID: sr.ID, URL: sr.URL, Entity: sr.Entity, Fields: rec.Fields, Values: rec.Map()}

		children, err := a.store.GetChildRecords(sr.ID)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			nested, err := a.rows(children)
			if err != nil {
				return nil, err
			}
			row.Linked = make(map[string][]StoredRow)
			for i, child := range children {
				row.Linked[child.LinkField] = append(row.Linked[child.LinkField], nested[i])
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// ExportJSON writes the records of a run as an indented JSON document.
func (a *App) ExportJSON(id string, w io.Writer) error {
	run, err := a.GetRun(id)
	if err != nil {
		return err
	}
	rows, err := a.RunRecords(id)
	if err != nil {
		return err
	}
	data, err := sonic.ConfigStd.MarshalIndent(struct {
		Run     *RunInfo    `json:"run"`
		Records []StoredRow `json:"records"`
	}{run, rows}, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// ExportCSV writes the top-level records of a run as CSV. The columns are
// url, entity and the union of field names in first-seen order; multiple
// values are joined with " | ". Linked rows are not exported.
func (a *App) ExportCSV(id string, w io.Writer) error {
	rows, err := a.RunRecords(id)
	if err != nil {
		return err
	}

	var columns []string
	for _, r := range rows {
		for _, f := range r.Fields {
			if !slices.Contains(columns, f) {
				columns = append(columns, f)
			}
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"url", "entity"}, columns...)); err != nil {
		return err
	}
	for _, r := range rows {
		line := []string{r.URL, r.Entity}
		for _, c := range columns {
			line = append(line, csvValue(r.Values[c]))
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, " | ")
	}
	return fmt.Sprint(v)
}
