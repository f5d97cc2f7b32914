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

package agents

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nlpodyssey/financial-document-analyzer/agentstesting"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/nlpodyssey/financial-document-analyzer/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHooks struct {
	events []string
}

func (h *recordingHooks) OnAgentStart(_ context.Context, a *Agent) error {
	h.events = append(h.events, "agent_start:"+a.Name)
	return nil
}
func (h *recordingHooks) OnAgentEnd(_ context.Context, a *Agent, _ string) error {
	h.events = append(h.events, "agent_end:"+a.Name)
	return nil
}
func (h *recordingHooks) OnToolStart(_ context.Context, _ *Agent, t tools.Tool) error {
	h.events = append(h.events, "tool_start:"+t.ToolName())
	return nil
}
func (h *recordingHooks) OnToolEnd(_ context.Context, _ *Agent, t tools.Tool, r tools.Result) error {
	status := "ok"
	if r.Failed() {
		status = "failed"
	}
	h.events = append(h.events, "tool_end:"+t.ToolName()+":"+status)
	return nil
}

func analystTask(toolList ...tools.Tool) *Task {
	agent := New("financial_analyst").
		WithRole("Senior Financial Analyst").
		WithTools(toolList...).
		WithMaxIter(6).
		WithMaxRPM(5)
	return &Task{
		Name:           "analyze",
		Description:    "Analyze the document at {file_path} to answer: {query}",
		ExpectedOutput: "A sectioned analysis.",
		Agent:          agent,
	}
}

func TestRunner_Run(t *testing.T) {
	read := &agentstesting.FakeTool{Name: "read_financial_document", Document: true,
		Results: []tools.Result{tools.Success("--- PAGE 1 ---\nRevenue 100")}}
	analysis := &agentstesting.FakeTool{Name: "investment_analysis", Network: true,
		Results: []tools.Result{tools.Success("SUMMARY: growing")}}
	backend := agentstesting.NewEchoBackend("FINAL ANSWER")
	hooks := &recordingHooks{}

	runner := Runner{Backend: backend, DefaultModel: "gpt-test", Hooks: hooks}
	res, err := runner.Run(t.Context(), analystTask(read, analysis), RunInput{
		Input: tools.Input{Query: "Is it growing?", FilePath: "data/q2.pdf", DocumentText: "stale"},
		Upstream: []UpstreamOutput{
			{Stage: "verify", Agent: "verifier", Output: "VERDICT: financial document"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "FINAL ANSWER", res.Output)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, "--- PAGE 1 ---\nRevenue 100", res.DocumentText)
	require.Len(t, res.ToolOutputs, 2)
	assert.Equal(t, "investment_analysis", res.ToolOutputs[1].Tool)

	// The read output replaced the document text for the analysis tool.
	assert.Equal(t, "--- PAGE 1 ---\nRevenue 100", analysis.Inputs[0].DocumentText)
	assert.Equal(t, "stale", read.Inputs[0].DocumentText)

	assert.Equal(t, []string{
		"agent_start:financial_analyst",
		"tool_start:read_financial_document",
		"tool_end:read_financial_document:ok",
		"tool_start:investment_analysis",
		"tool_end:investment_analysis:ok",
		"agent_end:financial_analyst",
	}, hooks.events)

	req := backend.LastRequest()
	assert.Equal(t, "gpt-test", req.Model)
	assert.Equal(t, 0.2, req.Settings.Temperature.Value)
	assert.Contains(t, req.System, "Senior Financial Analyst")
	assert.Contains(t, req.Prompt, "Analyze the document at data/q2.pdf to answer: Is it growing?")
	assert.Contains(t, req.Prompt, "A sectioned analysis.")
	assert.Contains(t, req.Prompt, "=== VERIFY (verifier) ===\nVERDICT: financial document")
	assert.Contains(t, req.Prompt, "[INVESTMENT_ANALYSIS]\nSUMMARY: growing")
	assert.Contains(t, req.Prompt, "DOCUMENT EXCERPT:\n--- PAGE 1 ---\nRevenue 100")
	assert.Equal(t, 1, strings.Count(req.Prompt, "Revenue 100"))
}

func TestRunner_ToolFailureIsRecorded(t *testing.T) {
	failing := &agentstesting.FakeTool{Name: "market_search", Network: true,
		Results: []tools.Result{tools.Failure("SERPER_API_KEY not set in environment.")}}
	next := agentstesting.NewFakeTool("risk_assessment", tools.Success("RISK HEADLINE: low"))
	backend := agentstesting.NewEchoBackend("advice")

	res, err := Runner{Backend: backend}.Run(t.Context(), analystTask(failing, next), RunInput{})
	require.NoError(t, err)

	assert.Equal(t, 1, next.CallCount())
	require.Len(t, res.ToolOutputs, 2)
	assert.True(t, res.ToolOutputs[0].Failed())
	assert.Contains(t, backend.LastRequest().Prompt,
		"[MARKET_SEARCH] UNAVAILABLE\nERROR: SERPER_API_KEY not set in environment.")
}

func TestRunner_MaxIterations(t *testing.T) {
	a, b, c := agentstesting.NewFakeTool("a"), agentstesting.NewFakeTool("b"), agentstesting.NewFakeTool("c")
	task := analystTask(a, b, c)
	task.Agent.WithMaxIter(2)
	backend := agentstesting.NewEchoBackend("x")

	_, err := Runner{Backend: backend}.Run(t.Context(), task, RunInput{})
	var iterErr MaxIterationsExceededError
	require.ErrorAs(t, err, &iterErr)
	assert.Equal(t, MaxIterationsExceededError{Agent: "financial_analyst", Limit: 2}, iterErr)
	assert.Equal(t, 0, c.CallCount())
	assert.Equal(t, 0, backend.CallCount())
}

func TestRunner_SynthesisCountsAsIteration(t *testing.T) {
	task := analystTask(agentstesting.NewFakeTool("read"))
	task.Agent.WithMaxIter(1)

	_, err := Runner{Backend: agentstesting.NewEchoBackend("x")}.Run(t.Context(), task, RunInput{})
	assert.ErrorAs(t, err, new(MaxIterationsExceededError))
}

func TestRunner_RateLimit(t *testing.T) {
	network := &agentstesting.FakeTool{Name: "investment_analysis", Network: true}
	local := agentstesting.NewFakeTool("read")
	task := analystTask(local, network)
	task.Agent.WithMaxRPM(1)
	backend := agentstesting.NewEchoBackend("x")

	_, err := Runner{Backend: backend}.Run(t.Context(), task, RunInput{})
	var rateErr RateLimitExceededError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 1, rateErr.Limit)
	assert.Equal(t, 1, network.CallCount())
	assert.Equal(t, 0, backend.CallCount())
}

func TestRunner_LocalToolsDoNotCountAgainstRate(t *testing.T) {
	task := analystTask(agentstesting.NewFakeTool("read"), agentstesting.NewFakeTool("read_again"))
	task.Agent.WithMaxRPM(1)

	res, err := Runner{Backend: agentstesting.NewEchoBackend("x")}.Run(t.Context(), task, RunInput{})
	require.NoError(t, err)
	assert.Equal(t, "x", res.Output)
}

func TestRunner_SynthesisError(t *testing.T) {
	backend := agentstesting.NewFakeBackend(agentstesting.FakeBackendOutput{Error: errors.New("upstream 500")})

	_, err := Runner{Backend: backend}.Run(t.Context(), analystTask(), RunInput{})
	var synthErr SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "financial_analyst", synthErr.Agent)
	assert.ErrorContains(t, err, "upstream 500")

	_, err = Runner{}.Run(t.Context(), analystTask(), RunInput{})
	assert.ErrorAs(t, err, new(SynthesisError))
}

func TestRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	tool := agentstesting.NewFakeTool("read")

	_, err := Runner{Backend: agentstesting.NewEchoBackend("x")}.Run(ctx, analystTask(tool), RunInput{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, tool.CallCount())
}

func TestRunner_HookErrorAborts(t *testing.T) {
	hooks := failingHooks{}
	_, err := Runner{Backend: agentstesting.NewEchoBackend("x"), Hooks: hooks}.Run(t.Context(), analystTask(), RunInput{})
	var hookErr HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "OnAgentStart", hookErr.Hook)
}

type failingHooks struct{ NoOpRunHooks }

func (failingHooks) OnAgentStart(context.Context, *Agent) error { return errors.New("nope") }

func TestRunner_RecordsUsage(t *testing.T) {
	backend := agentstesting.NewEchoBackend("x")
	backend.HardcodedUsage = &usage.Usage{Requests: 1, TotalTokens: 42}
	acc := usage.NewUsage()

	_, err := Runner{Backend: backend}.Run(usage.NewContext(t.Context(), acc), analystTask(), RunInput{})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), acc.TotalTokens)
}

func TestToolOutput_JSON(t *testing.T) {
	outs := []ToolOutput{
		{Tool: "investment_analysis", Result: tools.Success("SUMMARY: ok")},
		{Tool: "market_search", Result: tools.Failure("search failed: timeout")},
	}
	b, err := json.Marshal(outs)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"tool":"investment_analysis","output":"SUMMARY: ok"},
		{"tool":"market_search","error":"search failed: timeout"}
	]`, string(b))

	var back []ToolOutput
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, outs, back)
}
