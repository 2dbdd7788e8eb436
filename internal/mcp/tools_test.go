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

package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentberlin/htmlentity"
	"github.com/agentberlin/htmlentity/internal/app"
	"github.com/agentberlin/htmlentity/internal/config"
	"github.com/agentberlin/htmlentity/internal/store"
	"github.com/agentberlin/htmlentity/testutil"
	"github.com/bytedance/sonic"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const definitions = `
entities:
  - name: product
    fields:
      - name: name
        match: [{tag: li, class: product}, {tag: h2}]
`

// setupTestSession connects an in-memory client to a server backed by a
// temporary database and a mocked catalog site.
func setupTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mock := htmlentity.NewMockTransport()
	mock.RegisterHTML("http://example.com/", testutil.CatalogHTML)
	cfg := config.Default()
	cfg.DownloadDir = t.TempDir()
	cfg.RetryMax = 0

	s := NewMCPServer(app.NewApp(st, cfg, app.WithTransport(mock)), nil)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	_, err = s.GetServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return res, text.Text
}

func TestToolsAreListed(t *testing.T) {
	session := setupTestSession(t)
	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"parse_url", "list_runs", "get_run_records"}, names)
}

func TestParseURLTool(t *testing.T) {
	session := setupTestSession(t)

	res, text := callTool(t, session, "parse_url", map[string]any{
		"url":         "http://example.com/",
		"definitions": definitions,
		"save":        true,
	})
	require.False(t, res.IsError, text)

	var parsed app.ParseResponse
	require.NoError(t, sonic.UnmarshalString(text, &parsed))
	require.NotEmpty(t, parsed.RunID)
	require.Len(t, parsed.Documents, 1)
	require.Len(t, parsed.Documents[0].Records["product"], 2)
	assert.Equal(t, "Blue Table", parsed.Documents[0].Records["product"][1]["name"])

	_, text = callTool(t, session, "list_runs", map[string]any{})
	var runs []app.RunInfo
	require.NoError(t, sonic.UnmarshalString(text, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, parsed.RunID, runs[0].ID)

	_, text = callTool(t, session, "get_run_records", map[string]any{"runId": parsed.RunID})
	var rows []app.StoredRow
	require.NoError(t, sonic.UnmarshalString(text, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Red Chair", rows[0].Values["name"])
}

func TestParseURLToolErrors(t *testing.T) {
	session := setupTestSession(t)

	res, text := callTool(t, session, "parse_url", map[string]any{
		"url":         "http://example.com/",
		"definitions": "entities: []",
	})
	assert.True(t, res.IsError)
	assert.Contains(t, text, "Failed to parse")

	res, _ = callTool(t, session, "get_run_records", map[string]any{"runId": "missing"})
	assert.True(t, res.IsError)
}
