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

package fintools

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nlpodyssey/financial-document-analyzer/agentstesting"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisTool_Analyze(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		llm := agentstesting.NewFakeCompleter(tools.Success("\n SUMMARY: profitable quarter \n"))
		tool := NewAnalysisTool(llm, "gpt-test")

		res := tool.Analyze(t.Context(), "Revenue  100\r\nNet income 10")
		require.False(t, res.Failed())
		assert.Equal(t, "SUMMARY: profitable quarter", res.Text)

		require.Equal(t, 1, llm.CallCount())
		assert.Equal(t, "gpt-test", llm.Models[0])
		assert.Equal(t, int64(AnalysisMaxTokens), llm.Budgets[0])
		prompt := llm.Prompts[0]
		assert.True(t, strings.HasSuffix(prompt, "Revenue 100\nNet income 10"))
		for _, h := range AnalysisSections {
			assert.Contains(t, prompt, h)
		}
	})

	t.Run("empty input makes no call", func(t *testing.T) {
		llm := agentstesting.NewFakeCompleter(tools.Success("x"))
		res := NewAnalysisTool(llm, "").Analyze(t.Context(), "")
		assert.Equal(t, "ERROR: financial_document_data must be a non-empty string.", res.String())
		assert.Equal(t, 0, llm.CallCount())
	})

	t.Run("llm failure passes through", func(t *testing.T) {
		llm := agentstesting.NewFakeCompleter(tools.Failure("OPENAI_API_KEY not set in environment."))
		res := NewAnalysisTool(llm, "").Analyze(t.Context(), "Revenue 100")
		assert.Equal(t, "ERROR: OPENAI_API_KEY not set in environment.", res.String())
	})

	t.Run("excerpt is bounded", func(t *testing.T) {
		llm := agentstesting.NewFakeCompleter(tools.Success("ok"))
		NewAnalysisTool(llm, "").Analyze(t.Context(), strings.Repeat("€", AnalysisBudget+500))
		prompt := llm.Prompts[0]
		excerpt := strings.TrimPrefix(prompt, BuildAnalysisPrompt(""))
		assert.Equal(t, AnalysisBudget, utf8.RuneCountInString(excerpt))
	})

	t.Run("no completer", func(t *testing.T) {
		res := NewAnalysisTool(nil, "").Analyze(t.Context(), "Revenue 100")
		assert.Equal(t, "ERROR: LLM client not available.", res.String())
	})
}

func TestAnalysisTool_Run(t *testing.T) {
	llm := agentstesting.NewFakeCompleter(tools.Success("SUMMARY: ok"))
	tool := NewAnalysisTool(llm, "")
	res := tool.Run(t.Context(), tools.Input{Query: "q", DocumentText: "--- PAGE 1 ---\nRevenue 100"})
	assert.Equal(t, "SUMMARY: ok", res.Text)
	assert.True(t, tools.UsesNetwork(tool))
}

func TestAnalysisTool_Function(t *testing.T) {
	llm := agentstesting.NewFakeCompleter(tools.Success("SUMMARY: ok"))
	fn := NewAnalysisTool(llm, "").Function()
	assert.Equal(t, "investment_analysis", fn.Name)

	res := fn.Invoke(t.Context(), `{"financial_document_data": "Revenue 100"}`)
	assert.Equal(t, "SUMMARY: ok", res.Text)

	for _, args := range []string{`{"financial_document_data": null}`, `{}`, `{"financial_document_data": 5}`} {
		res = fn.Invoke(t.Context(), args)
		assert.True(t, res.Failed(), args)
	}

	res = fn.Invoke(t.Context(), `{"financial_document_data": ""}`)
	assert.Equal(t, "ERROR: financial_document_data must be a non-empty string.", res.String())
	assert.Equal(t, 1, llm.CallCount())
}

func TestRiskTool_Assess(t *testing.T) {
	t.Run("normalizes output", func(t *testing.T) {
		llm := agentstesting.NewFakeCompleter(tools.Success("RISK HEADLINE:  elevated\r\n\n\n\nTOP RISKS:\n- demand  "))
		tool := NewRiskTool(llm, "")

		res := tool.Assess(t.Context(), "Liabilities 900")
		require.False(t, res.Failed())
		assert.Equal(t, "RISK HEADLINE: elevated\n\nTOP RISKS:\n- demand", res.Text)
		assert.Equal(t, int64(RiskMaxTokens), llm.Budgets[0])
		assert.Contains(t, llm.Prompts[0], "LIKELIHOOD & IMPACT:")
	})

	t.Run("empty input makes no call", func(t *testing.T) {
		llm := agentstesting.NewFakeCompleter(tools.Success("x"))
		tool := NewRiskTool(llm, "")

		res := tool.Assess(t.Context(), "")
		assert.Equal(t, "ERROR: financial_document_data must be a non-empty string.", res.String())

		for _, args := range []string{`{"financial_document_data": null}`, `{"financial_document_data": ""}`} {
			assert.True(t, tool.Function().Invoke(t.Context(), args).Failed(), args)
		}
		assert.Equal(t, 0, llm.CallCount())
	})

	t.Run("failure is not normalized", func(t *testing.T) {
		llm := agentstesting.NewFakeCompleter(tools.Failure("OpenAI call failed:  timeout"))
		res := NewRiskTool(llm, "").Assess(t.Context(), "x")
		assert.Equal(t, "ERROR: OpenAI call failed:  timeout", res.String())
	})

	t.Run("excerpt is bounded", func(t *testing.T) {
		llm := agentstesting.NewFakeCompleter(tools.Success("ok"))
		NewRiskTool(llm, "").Assess(t.Context(), strings.Repeat("a", RiskBudget*2))
		excerpt := strings.TrimPrefix(llm.Prompts[0], BuildRiskPrompt(""))
		assert.Len(t, excerpt, RiskBudget)
	})

	t.Run("json arguments", func(t *testing.T) {
		llm := agentstesting.NewFakeCompleter(tools.Success("RISK HEADLINE: low"))
		fn := NewRiskTool(llm, "").Function()
		assert.Equal(t, "risk_assessment", fn.Name)
		assert.True(t, fn.Invoke(t.Context(), `{"financial_document_data": null}`).Failed())
		assert.Equal(t, "RISK HEADLINE: low", fn.Invoke(t.Context(), `{"financial_document_data": "x"}`).Text)
	})
}
