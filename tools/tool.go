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

import "context"

// A Tool that can be used by an agent during a pipeline stage.
type Tool interface {
	// ToolName returns the name of the tool.
	ToolName() string

	// Description returns a short human-readable description, embedded
	// into agent prompts.
	Description() string

	// Run invokes the tool. Each tool picks the fields of Input it needs.
	Run(ctx context.Context, in Input) Result
}

// Input is the shared data a stage hands to its tools.
type Input struct {
	// The user's question about the document.
	Query string

	// Filesystem path of the uploaded PDF.
	FilePath string

	// Extracted document text. A successful read tool call replaces it for
	// the tools that follow in the same stage.
	DocumentText string
}

// NetworkBound is implemented by tools whose invocations reach a remote
// service. Those calls count against an agent's rate ceiling.
type NetworkBound interface {
	UsesNetwork() bool
}

// UsesNetwork reports whether t declares itself network bound.
func UsesNetwork(t Tool) bool {
	nb, ok := t.(NetworkBound)
	return ok && nb.UsesNetwork()
}

// Names returns the names of the given tools, in order.
func Names(ts []Tool) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.ToolName()
	}
	return names
}

// DocumentSource is implemented by tools whose successful output is the
// document text itself. That output replaces Input.DocumentText for the
// tools that follow.
type DocumentSource interface {
	ProvidesDocument() bool
}

// ProvidesDocument reports whether t declares itself a document source.
func ProvidesDocument(t Tool) bool {
	ds, ok := t.(DocumentSource)
	return ok && ds.ProvidesDocument()
}
