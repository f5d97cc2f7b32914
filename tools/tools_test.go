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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_String(t *testing.T) {
	assert.Equal(t, "report", Success("report").String())
	assert.Equal(t, "ERROR: OPENAI_API_KEY not set in environment.", Failure("OPENAI_API_KEY not set in environment.").String())
	assert.Equal(t, "ERROR: call failed: 42", Failuref("call failed: %d", 42).String())
}

func TestResult_AsError(t *testing.T) {
	assert.NoError(t, Success("ok").AsError())

	err := Failure("boom").AsError()
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "boom", te.Message)
}

func TestParseResult_RoundTrip(t *testing.T) {
	for _, r := range []Result{Success("SUMMARY: fine"), Failure("no key"), Success("")} {
		assert.Equal(t, r, ParseResult(r.String()))
	}
	assert.True(t, ParseResult("ERROR:bare").Failed())
}

func TestFailureFromError(t *testing.T) {
	original := &ToolError{Message: "inner"}
	r := FailureFromError(fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, r.Err)

	r = FailureFromError(errors.New("plain"))
	assert.Equal(t, "ERROR: plain", r.String())
}

type echoArgs struct {
	Text *string `json:"text"`
	N    int     `json:"n,omitempty"`
}

func TestNewFunctionTool(t *testing.T) {
	calls := 0
	tool := NewFunctionTool("echo", "Echo the text", func(_ context.Context, args echoArgs) Result {
		calls++
		return Success(fmt.Sprintf(*args.Text, args.N))
	})

	assert.Equal(t, "echo", tool.ToolName())
	assert.Equal(t, "object", tool.ParamsJSONSchema["type"])
	assert.Equal(t, "Echo the text", tool.ParamsJSONSchema["description"])
	assert.NotContains(t, tool.ParamsJSONSchema, "$schema")

	r := tool.Invoke(t.Context(), `{"text": "hi %d", "n": 3}`)
	assert.Equal(t, Success("hi 3"), r)

	for _, bad := range []string{`{"text": null}`, `{}`, `{"text": 5}`, `not json`, `{"text": "x", "extra": 1}`} {
		r := tool.Invoke(t.Context(), bad)
		assert.True(t, r.Failed(), "arguments %s", bad)
	}
	assert.Equal(t, 1, calls)
}

func TestFunction_InvokeWithoutHandler(t *testing.T) {
	r := Function{Name: "empty"}.Invoke(t.Context(), "{}")
	assert.Equal(t, "ERROR: tool empty has no handler", r.String())
}

type stubTool struct {
	name    string
	network bool
}

func (s stubTool) ToolName() string                  { return s.name }
func (s stubTool) Description() string               { return "" }
func (s stubTool) Run(context.Context, Input) Result { return Success(s.name) }
func (s stubTool) UsesNetwork() bool                 { return s.network }

func TestNamesAndUsesNetwork(t *testing.T) {
	ts := []Tool{stubTool{name: "read"}, stubTool{name: "search", network: true}}
	assert.Equal(t, []string{"read", "search"}, Names(ts))
	assert.False(t, UsesNetwork(ts[0]))
	assert.True(t, UsesNetwork(ts[1]))
}

type documentStub struct{ stubTool }

func (documentStub) ProvidesDocument() bool { return true }

func TestProvidesDocument(t *testing.T) {
	assert.True(t, ProvidesDocument(documentStub{stubTool{name: "read"}}))
	assert.False(t, ProvidesDocument(stubTool{name: "search"}))
}
