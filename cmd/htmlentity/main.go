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

// htmlentity extracts structured entity records from HTML documents.
//
// Usage:
//
//	htmlentity <command> [flags]
//
// Commands:
//
//	parse     Parse URLs with YAML entity definitions
//	runs      List or delete stored runs
//	export    Export the records of a stored run
//	serve     Run the HTTP API
//	mcp       Run the MCP server
//	version   Show version information
package main

func main() {
	Execute()
}
