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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentberlin/htmlentity/testutil"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "htmlentity "))
}

func TestParseSaveExport(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HTMLENTITY_DB_PATH", filepath.Join(dir, "runs.db"))

	page := filepath.Join(dir, "catalog.html")
	require.NoError(t, os.WriteFile(page, []byte(testutil.CatalogHTML), 0o644))
	defs := filepath.Join(dir, "defs.yaml")
	require.NoError(t, os.WriteFile(defs, []byte(`
entities:
  - name: product
    fields:
      - name: name
        match: [{tag: li, class: product}, {tag: h2}]
`), 0o644))

	out, err := execute(t, "parse", "file://"+page, "-e", defs, "--save")
	require.NoError(t, err)
	var resp struct {
		RunID     string `json:"runId"`
		Documents []struct {
			Records map[string][]map[string]any `json:"records"`
		} `json:"documents"`
	}
	require.NoError(t, sonic.UnmarshalString(out, &resp), out)
	require.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Documents, 1)
	assert.Len(t, resp.Documents[0].Records["product"], 2)

	out, err = execute(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, resp.RunID)

	out, err = execute(t, "export", resp.RunID, "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "url,entity,name\nfile://"+page+",product,Red Chair\nfile://"+page+",product,Blue Table\n", out)

	_, err = execute(t, "export", resp.RunID, "--format", "xml")
	assert.Error(t, err)
	flagFormat = "json"
}
