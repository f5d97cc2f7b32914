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
	"context"
	"log/slog"
	"strings"

	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
)

const (
	AnalysisToolName = "investment_analysis"

	// AnalysisBudget is the number of document runes sent to the model.
	AnalysisBudget    = 16000
	AnalysisMaxTokens = 1000

	invalidDocumentMessage = "financial_document_data must be a non-empty string."
)

// Completer is the text-completion capability the analysis tools need.
// *llm.Adapter implements it.
type Completer interface {
	Complete(ctx context.Context, prompt, model string, maxTokens int64) tools.Result
}

// AnalysisTool produces a sectioned plain-text investment analysis.
type AnalysisTool struct {
	LLM Completer

	// Optional model override.
	Model string

	Logger *slog.Logger
}

func NewAnalysisTool(llm Completer, model string) *AnalysisTool {
	return &AnalysisTool{LLM: llm, Model: model}
}

func (t *AnalysisTool) ToolName() string { return AnalysisToolName }

func (t *AnalysisTool) Description() string {
	return "LLM-driven investment analysis of financial document text. Returns SUMMARY, " +
		"DETAILED ANALYSIS, KEY FIGURES, RATIOS, RISKS, RECOMMENDATION and CONFIDENCE sections."
}

func (t *AnalysisTool) UsesNetwork() bool { return true }

func (t *AnalysisTool) Run(ctx context.Context, in tools.Input) tools.Result {
	return t.Analyze(ctx, in.DocumentText)
}

// Analyze returns the analysis text, or a failure when text is empty or the
// model call fails. Failures from the model are passed through unchanged.
func (t *AnalysisTool) Analyze(ctx context.Context, text string) tools.Result {
	if text == "" {
		return tools.Failure(invalidDocumentMessage)
	}
	if t.LLM == nil {
		return tools.Failure("LLM client not available.")
	}

	prompt := BuildAnalysisPrompt(PrepareExcerpt(text, AnalysisBudget))
	res := t.LLM.Complete(ctx, prompt, t.Model, AnalysisMaxTokens)
	if res.Failed() {
		return res
	}

	out := strings.TrimSpace(res.Text)
	if missing := MissingSections(out, AnalysisSections); len(missing) > 0 {
		logging.OrDefault(t.Logger).Debug("analysis is missing sections",
			slog.Any("sections", missing))
	}
	return tools.Success(out)
}

type documentDataArgs struct {
	FinancialDocumentData *string `json:"financial_document_data" jsonschema:"description=Plain text of the financial document to analyze"`
}

// Function exposes the tool to JSON callers.
func (t *AnalysisTool) Function() tools.Function {
	return tools.NewFunctionTool(AnalysisToolName, t.Description(),
		func(ctx context.Context, args documentDataArgs) tools.Result {
			if args.FinancialDocumentData == nil {
				return tools.Failure(invalidDocumentMessage)
			}
			return t.Analyze(ctx, *args.FinancialDocumentData)
		})
}
