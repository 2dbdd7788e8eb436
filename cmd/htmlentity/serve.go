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
	"github.com/agentberlin/htmlentity/internal/mcp"
	"github.com/agentberlin/htmlentity/internal/server"
	"github.com/spf13/cobra"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := newApp(true)
		if err != nil {
			return err
		}
		defer closeApp()

		addr := cfg.Addr
		if cmd.Flags().Changed("addr") {
			addr = flagAddr
		}
		return server.NewServer(a, logger).ListenAndServe(cmd.Context(), addr)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over streamable HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := newApp(true)
		if err != nil {
			return err
		}
		defer closeApp()

		addr := cfg.MCPAddr
		if cmd.Flags().Changed("addr") {
			addr = flagAddr
		}
		return mcp.NewMCPServer(a, logger).RunHTTP(cmd.Context(), addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, mcpCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "Listen address")
	mcpCmd.Flags().StringVar(&flagAddr, "addr", ":8081", "Listen address")
}
