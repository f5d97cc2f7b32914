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
)

// AnalysisSections are the headers an investment analysis must contain.
var AnalysisSections = []string{
	"SUMMARY",
	"DETAILED ANALYSIS",
	"KEY FIGURES",
	"RATIOS",
	"RISKS",
	"RECOMMENDATION",
	"CONFIDENCE",
}

// RiskSections are the headers a risk assessment must contain.
var RiskSections = []string{
	"RISK HEADLINE",
	"TOP RISKS",
	"RISK DRIVERS",
	"LIKELIHOOD & IMPACT",
	"RECOMMENDED MITIGATIONS",
	"MONITORING / KPIs",
	"CONFIDENCE",
}

const analysisInstructions = `You are an expert financial analyst. Analyze the EXCERPT below and RETURN A SINGLE PLAIN-TEXT STRING ONLY.

Requirements for the OUTPUT STRING (must follow exactly):
  - Do NOT return JSON or code blocks. Do NOT add any meta commentary about format.
  - Provide the following clearly labeled sections (use uppercase headers):
      1) SUMMARY: a one-line headline summarizing the overall situation.
      2) DETAILED ANALYSIS: a concise paragraph(s) covering profitability, revenue/margin trends, growth drivers, unusual items, segment highlights if present, and liquidity/leverage commentary.
      3) KEY FIGURES: list revenue, net_income, assets, liabilities, equity as numeric values (no commas). If a figure isn't present, write 'N/A'. Include units if the excerpt mentions them (e.g., USD millions).
      4) RATIOS: compute net_income_margin, debt_ratio (liabilities/assets), equity_to_assets when possible; otherwise put 'N/A'. Present percentages where appropriate.
      5) RISKS: 3 short bullets (each on its own line, prefixed by '- ').
      6) RECOMMENDATION: one-line 'buy'/'hold'/'sell' plus a short (1-sentence) rationale.
      7) CONFIDENCE: a number between 0.0 and 1.0 representing how confident you are given the excerpt.

Formatting rules:
  - Use clear headers exactly as above (e.g. 'SUMMARY:', 'DETAILED ANALYSIS:', ...).
  - Use numeric values without commas (e.g., 1200 or 22.5e9). If the excerpt uses a unit (e.g., 'USD millions'), preserve that unit next to the number.
  - Keep the whole output concise (aim for ~8-16 lines) but include all required sections.
  - If you cannot determine a value, write 'N/A' for that field.

Now analyze this EXCERPT and produce the single plain-text string only (no extra text):

`

const riskInstructions = `You are an experienced risk analyst focused on corporate financial risk.

Analyze the EXCERPT below and RETURN A SINGLE PLAIN-TEXT STRING ONLY (no JSON, no code blocks, no meta commentary).

The output MUST contain the following sections, using the EXACT UPPERCASE HEADERS shown (each header followed by its content):

RISK HEADLINE:
  - a one-line headline summarizing the top-level risk posture.

TOP RISKS:
  - 3 to 6 short bullets (each on its own line, prefixed by '- ').

RISK DRIVERS:
  - 1-3 concise paragraphs describing root causes and contextual drivers (market, operations, regulatory, supply, liquidity etc.).

LIKELIHOOD & IMPACT:
  - For each top risk, provide a single-line entry: 'RiskName | Likelihood: Low/Medium/High | Impact: Low/Medium/High'.

RECOMMENDED MITIGATIONS:
  - 3 to 6 actionable mitigation bullets (each on its own line, prefixed by '- ').

MONITORING / KPIs:
  - 3 short bullets describing measurable signals to watch.

CONFIDENCE:
  - A single number between 0.0 and 1.0 representing your confidence in this assessment given only the excerpt.

Formatting rules (must follow):
  - Do NOT include any other sections or trailing commentary beyond the required headers and their content.
  - If a value cannot be determined, write 'N/A' (for example in LIKELIHOOD & IMPACT use 'N/A').
  - Keep the output concise and focused; prefer clarity over verbosity.

Now analyze this EXCERPT and produce the single plain-text string only:

`

// BuildAnalysisPrompt returns the investment-analysis prompt for an
// already prepared excerpt.
func BuildAnalysisPrompt(excerpt string) string {
	return analysisInstructions + excerpt
}

// BuildRiskPrompt returns the risk-assessment prompt for an already
// prepared excerpt.
func BuildRiskPrompt(excerpt string) string {
	return riskInstructions + excerpt
}

// MissingSections returns the headers (followed by a colon) that do not
// appear in report, in the given order.
func MissingSections(report string, headers []string) []string {
	upper := strings.ToUpper(report)
	var missing []string
	for _, h := range headers {
		if !strings.Contains(upper, strings.ToUpper(h)+":") {
			missing = append(missing, h)
		}
	}
	return missing
}
