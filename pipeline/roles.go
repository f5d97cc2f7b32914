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

package pipeline

import (
	"github.com/nlpodyssey/financial-document-analyzer/agents"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
)

// Toolset holds the tools shared by the pipeline roles.
type Toolset struct {
	Read     tools.Tool
	Analysis tools.Tool
	Risk     tools.Tool
	Search   tools.Tool
}

// StagePlan binds a stage to the task executed for it.
type StagePlan struct {
	Stage Stage
	Task  *agents.Task
}

// NewVerifier returns the document verifier role.
func NewVerifier(ts Toolset) *agents.Agent {
	return agents.New("verifier").
		WithRole("Financial Document Verifier").
		WithGoal("Verify whether an uploaded document is a financial report or contains " +
			"financial information relevant to investment and risk analysis.").
		WithBackstory("You are a diligent compliance analyst with experience in reviewing corporate filings " +
			"and financial statements. You are detail-oriented and strict about rejecting irrelevant files.").
		WithTools(compact(ts.Read)...).
		WithMaxIter(2).
		WithMaxRPM(2)
}

// NewFinancialAnalyst returns the senior analyst role.
func NewFinancialAnalyst(ts Toolset) *agents.Agent {
	return agents.New("financial_analyst").
		WithRole("Senior Financial Analyst").
		WithGoal("Analyze financial documents thoroughly, evaluate investment potential " +
			"and describe the associated risks.").
		WithBackstory("You are a highly experienced financial analyst with deep expertise in " +
			"equity research, corporate finance and risk evaluation. " +
			"If a tool result is unavailable, continue and say the data was incomplete.").
		WithTools(compact(ts.Read, ts.Analysis, ts.Risk, ts.Search)...).
		WithMaxIter(6).
		WithMaxRPM(5)
}

// NewInvestmentAdvisor returns the investment advisor role.
func NewInvestmentAdvisor(ts Toolset) *agents.Agent {
	return agents.New("investment_advisor").
		WithRole("Investment Advisor").
		WithGoal("Provide data-driven investment advice by combining financial document analysis, " +
			"risk evaluation and current market insights into a buy/hold/sell recommendation.").
		WithBackstory("You are a seasoned investment advisor and market strategist specializing in equity research " +
			"and asset allocation. Report as: Executive Summary, Investment Highlights, Risk Overview, " +
			"Market Context, Final Recommendation. If a tool result is unavailable, continue and say the data was incomplete.").
		WithTools(compact(ts.Read, ts.Analysis, ts.Risk, ts.Search)...).
		WithMaxIter(6).
		WithMaxRPM(5)
}

// NewRiskAssessor returns the risk specialist role.
func NewRiskAssessor(ts Toolset) *agents.Agent {
	return agents.New("risk_assessor").
		WithRole("Risk Assessment Specialist").
		WithGoal("Identify and assess key financial and operational risks from company filings. " +
			"Provide likelihood and impact ratings, explain drivers and suggest mitigations.").
		WithBackstory("You are a risk management expert with experience in financial compliance, " +
			"corporate governance and market risk analysis.").
		WithTools(compact(ts.Read, ts.Risk, ts.Search)...).
		WithMaxIter(3).
		WithMaxRPM(2)
}

// DefaultPlan returns the four stages in execution order, each with its
// declarative tool list. model, when set, overrides the agent model.
func DefaultPlan(ts Toolset, model string) []StagePlan {
	verifier := NewVerifier(ts).WithModel(model)
	analyst := NewFinancialAnalyst(ts).WithModel(model)
	advisor := NewInvestmentAdvisor(ts).WithModel(model)
	assessor := NewRiskAssessor(ts).WithModel(model)

	return []StagePlan{
		{
			Stage: StageVerify,
			Task: &agents.Task{
				Name: string(StageVerify),
				Description: "Verify whether the uploaded document at {file_path} is a valid financial document. " +
					"Check if it contains financial information such as revenue, net income, balance sheets " +
					"or other corporate financial data. If the document is unrelated, clearly state that it is not a financial report.",
				ExpectedOutput: "Start with \"VERDICT: YES\" or \"VERDICT: NO\", then:\n" +
					"- a brief explanation of the decision\n" +
					"- optional: confidence score (0.0-1.0)",
				Agent: verifier,
				Tools: compact(ts.Read),
			},
		},
		{
			Stage: StageAnalyze,
			Task: &agents.Task{
				Name: string(StageAnalyze),
				Description: "Analyze the provided financial document and respond to the user's query: {query}. " +
					"Identify key financial metrics, summarize overall performance and highlight significant trends or anomalies.",
				ExpectedOutput: "A structured analysis that includes:\n" +
					"- Summary of key financial metrics (revenue, net income, margins)\n" +
					"- Notable strengths or weaknesses in performance\n" +
					"- Investment implications\n" +
					"Concise, professional and fact-based.",
				Agent: analyst,
				Tools: compact(ts.Read, ts.Analysis),
			},
		},
		{
			Stage: StageAdvise,
			Task: &agents.Task{
				Name: string(StageAdvise),
				Description: "Using the financial document data, provide an investment analysis in response to the user's query: {query}. " +
					"Combine insights from the document with relevant market or industry context to make a recommendation.",
				ExpectedOutput: "A professional investment analysis that includes:\n" +
					"- Key financial highlights\n" +
					"- Observed trends or anomalies\n" +
					"- Market or industry context from external sources\n" +
					"- A clear recommendation (Buy / Hold / Sell) with rationale\n" +
					"- A confidence score (0.0-1.0)",
				Agent: advisor,
				Tools: compact(ts.Read, ts.Analysis, ts.Risk, ts.Search),
			},
		},
		{
			Stage: StageAssessRisk,
			Task: &agents.Task{
				Name: string(StageAssessRisk),
				Description: "Perform a comprehensive risk assessment based on the financial document in response to the user's query: {query}. " +
					"Identify financial, operational, regulatory and market risks.",
				ExpectedOutput: "A structured risk assessment that includes:\n" +
					"- A risk headline\n" +
					"- 3 to 6 specific risks with likelihood and impact (Low / Medium / High)\n" +
					"- Drivers and recommended mitigations\n" +
					"- Monitoring indicators\n" +
					"- A confidence score (0.0-1.0)",
				Agent: assessor,
				Tools: compact(ts.Read, ts.Risk),
			},
		},
	}
}

// compact drops nil tools, so a Toolset with an unset search tool still
// yields valid task lists.
func compact(ts ...tools.Tool) []tools.Tool {
	out := make([]tools.Tool, 0, len(ts))
	for _, t := range ts {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
