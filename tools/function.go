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

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// Function is a tool invoked with JSON arguments, as exposed to external
// callers such as MCP clients.
type Function struct {
	// The name of the tool, as shown to the caller.
	Name string

	// A description of the tool, as shown to the caller.
	Description string

	// The JSON schema for the tool's parameters.
	ParamsJSONSchema map[string]any

	// A function that invokes the tool with the given JSON arguments.
	// Invalid arguments produce a failed Result, never a panic.
	OnInvokeTool func(ctx context.Context, arguments string) Result
}

func (f Function) ToolName() string {
	return f.Name
}

// Invoke calls OnInvokeTool, reporting a missing handler as a failure.
func (f Function) Invoke(ctx context.Context, arguments string) Result {
	if f.OnInvokeTool == nil {
		return Failuref("tool %s has no handler", f.Name)
	}
	return f.OnInvokeTool(ctx, arguments)
}

// NewFunctionTool creates a Function with a JSON schema derived from the
// argument type T.
//
// The schema is generated with github.com/invopop/jsonschema, honouring
// `json` and `jsonschema` struct tags. Incoming arguments are validated
// against it before being decoded into T and passed to handler.
//
// Example:
//
//	type SearchArgs struct {
//	    Query string `json:"query" jsonschema:"description=Search terms"`
//	}
//
//	tool := NewFunctionTool("market_search", "Search market news", func(ctx context.Context, args SearchArgs) Result {
//	    return Success("...")
//	})
func NewFunctionTool[T any](name string, description string, handler func(ctx context.Context, args T) Result) Function {
	schemaMap := ReflectSchema[T]()
	if description != "" {
		schemaMap["description"] = description
	}

	validator, schemaErr := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))

	return Function{
		Name:             name,
		Description:      description,
		ParamsJSONSchema: schemaMap,
		OnInvokeTool: func(ctx context.Context, arguments string) Result {
			if schemaErr != nil {
				return Failuref("invalid schema for tool %s: %v", name, schemaErr)
			}
			if strings.TrimSpace(arguments) == "" {
				arguments = "{}"
			}

			res, err := validator.Validate(gojsonschema.NewStringLoader(arguments))
			if err != nil {
				return Failuref("failed to parse arguments: %v", err)
			}
			if !res.Valid() {
				msgs := make([]string, len(res.Errors()))
				for i, e := range res.Errors() {
					msgs[i] = e.String()
				}
				return Failuref("invalid arguments for %s: %s", name, strings.Join(msgs, "; "))
			}

			var args T
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return Failuref("failed to parse arguments: %v", err)
			}
			return handler(ctx, args)
		},
	}
}

// ReflectSchema returns the JSON schema of T as a generic map, without the
// "$schema" and "$id" keywords.
func ReflectSchema[T any]() map[string]any {
	reflector := &jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: false,
		AllowAdditionalProperties:  false,
	}

	var zero T
	schema := reflector.Reflect(&zero)

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Errorf("marshal schema: %w", err))
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaBytes, &schemaMap); err != nil {
		panic(fmt.Errorf("unmarshal schema: %w", err))
	}
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")
	return schemaMap
}
