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
	"fmt"

	"github.com/agentberlin/htmlentity/internal/app"
	"github.com/bytedance/sonic"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func (s *MCPServer) registerTools() {
	s.registerParseURLTool()
	s.registerListRunsTool()
	s.registerGetRunRecordsTool()
}

// ParseURLArgs defines the input schema for the parse_url tool
type ParseURLArgs struct {
	URL         string   `json:"url" jsonschema:"the document URL to parse"`
	MoreURLs    []string `json:"moreUrls,omitempty" jsonschema:"additional document URLs parsed with the same definitions"`
	Definitions string   `json:"definitions" jsonschema:"YAML entity definitions"`
	Save        bool     `json:"save,omitempty" jsonschema:"store the run so it can be listed later"`
}

// ListRunsArgs defines the input schema for the list_runs tool
type ListRunsArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs, newest first"`
}

// GetRunRecordsArgs defines the input schema for the get_run_records tool
type GetRunRecordsArgs struct {
	RunID string `json:"runId" jsonschema:"the run ID returned by parse_url"`
}

// textResult returns v encoded as JSON text content.
func textResult(v any) (*mcp.CallToolResult, error) {
	data, err := sonic.MarshalString(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: data}},
	}, nil
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}

// registerParseURLTool registers the parse_url tool
func (s *MCPServer) registerParseURLTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "parse_url",
		Description: "Parses the documents at the given URLs into entity records described by YAML definitions",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ParseURLArgs) (*mcp.CallToolResult, any, error) {
		s.logger.Info("tool called", zap.String("tool", "parse_url"), zap.String("url", args.URL))

		resp, err := s.app.Parse(ctx, app.ParseRequest{
			URLs:        append([]string{args.URL}, args.MoreURLs...),
			Definitions: args.Definitions,
			Save:        args.Save,
		})
		if err != nil {
			return errorResult("Failed to parse: %v", err), nil, nil
		}
		res, err := textResult(resp)
		return res, nil, err
	})
}

// registerListRunsTool registers the list_runs tool
func (s *MCPServer) registerListRunsTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_runs",
		Description: "Lists stored parse runs, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListRunsArgs) (*mcp.CallToolResult, any, error) {
		runs, err := s.app.ListRuns(args.Limit)
		if err != nil {
			return errorResult("Failed to list runs: %v", err), nil, nil
		}
		res, err := textResult(runs)
		return res, nil, err
	})
}

// registerGetRunRecordsTool registers the get_run_records tool
func (s *MCPServer) registerGetRunRecordsTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_run_records",
		Description: "Returns the records of a stored run with the rows of followed links",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetRunRecordsArgs) (*mcp.CallToolResult, any, error) {
		rows, err := s.app.RunRecords(args.RunID)
		if err != nil {
			return errorResult("Failed to get records: %v", err), nil, nil
		}
		res, err := textResult(rows)
		return res, nil, err
	})
}
