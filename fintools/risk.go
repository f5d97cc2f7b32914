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

	"github.com/nlpodyssey/financial-document-analyzer/extract"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
)

const (
	RiskToolName = "risk_assessment"

	RiskBudget    = 14000
	RiskMaxTokens = 900
)

// RiskTool produces a sectioned plain-text risk assessment.
type RiskTool struct {
	LLM    Completer
	Model  string
	Logger *slog.Logger
}

func NewRiskTool(llm Completer, model string) *RiskTool {
	return &RiskTool{LLM: llm, Model: model}
}

func (t *RiskTool) ToolName() string { return RiskToolName }

func (t *RiskTool) Description() string {
	return "Risk assessment of financial document text. Returns RISK HEADLINE, TOP RISKS, RISK DRIVERS, " +
		"LIKELIHOOD & IMPACT, RECOMMENDED MITIGATIONS, MONITORING / KPIs and CONFIDENCE sections."
}

func (t *RiskTool) UsesNetwork() bool { return true }

func (t *RiskTool) Run(ctx context.Context, in tools.Input) tools.Result {
	return t.Assess(ctx, in.DocumentText)
}

// Assess is like AnalysisTool.Analyze with the risk prompt, and normalizes
// the whitespace of a successful answer.
func (t *RiskTool) Assess(ctx context.Context, text string) tools.Result {
	if text == "" {
		return tools.Failure(invalidDocumentMessage)
	}
	if t.LLM == nil {
		return tools.Failure("LLM client not available.")
	}

	prompt := BuildRiskPrompt(PrepareExcerpt(text, RiskBudget))
	res := t.LLM.Complete(ctx, prompt, t.Model, RiskMaxTokens)
	if res.Failed() {
		return res
	}

	out := extract.NormalizeWhitespace(res.Text)
	if missing := MissingSections(out, RiskSections); len(missing) > 0 {
		logging.OrDefault(t.Logger).Debug("risk assessment is missing sections",
			slog.Any("sections", missing))
	}
	return tools.Success(out)
}

func (t *RiskTool) Function() tools.Function {
	return tools.NewFunctionTool(RiskToolName, t.Description(),
		func(ctx context.Context, args documentDataArgs) tools.Result {
			if args.FinancialDocumentData == nil {
				return tools.Failure(invalidDocumentMessage)
			}
			return t.Assess(ctx, *args.FinancialDocumentData)
		})
}
