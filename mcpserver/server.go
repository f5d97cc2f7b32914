// Copyright 2025 The NLP Odyssey Authors
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

// Package mcpserver exposes the financial tools to external agents over the
// Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
)

// DefaultImplementation identifies the server to MCP clients.
var DefaultImplementation = &mcp.Implementation{
	Name:    "financial-document-analyzer",
	Version: "0.1.0",
}

// New returns an MCP server with every function registered as a tool.
// A nil impl means DefaultImplementation.
func New(impl *mcp.Implementation, fns ...tools.Function) *mcp.Server {
	if impl == nil {
		impl = DefaultImplementation
	}
	srv := mcp.NewServer(impl, nil)
	Register(srv, fns...)
	return srv
}

// Register adds each function to srv. A failed tools.Result becomes a tool
// error result, not a protocol error.
func Register(srv *mcp.Server, fns ...tools.Function) {
	for _, fn := range fns {
		srv.AddTool(&mcp.Tool{
			Name:        fn.Name,
			Description: fn.Description,
			InputSchema: json.RawMessage(mustMarshal(inputSchema(fn))),
		}, handler(fn))
	}
}

// ServeStdio runs srv over standard input and output until ctx is done or
// the client disconnects.
func ServeStdio(ctx context.Context, srv *mcp.Server) error {
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func handler(fn tools.Function) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		arguments := "{}"
		if len(req.Params.Arguments) > 0 {
			arguments = string(req.Params.Arguments)
		}

		result := fn.Invoke(ctx, arguments)
		if result.Failed() {
			var res mcp.CallToolResult
			res.SetError(result.AsError())
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result.Text}},
		}, nil
	}
}

// inputSchema returns the function schema, making sure it describes an
// object as MCP requires.
func inputSchema(fn tools.Function) map[string]any {
	schema := make(map[string]any, len(fn.ParamsJSONSchema)+1)
	for k, v := range fn.ParamsJSONSchema {
		schema[k] = v
	}
	if _, ok := schema["type"]; !ok {
		schema["type"] = "object"
	}
	return schema
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mcpserver: marshal input schema: %v", err))
	}
	return data
}
