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
	"regexp"
	"strings"
	"time"

	"github.com/nlpodyssey/financial-document-analyzer/agents"
	"github.com/nlpodyssey/financial-document-analyzer/extract"
	"github.com/nlpodyssey/financial-document-analyzer/usage"
)

// StageReport is the outcome of one completed stage.
type StageReport struct {
	Stage       Stage               `json:"stage"`
	Agent       string              `json:"agent"`
	Output      string              `json:"output"`
	ToolOutputs []agents.ToolOutput `json:"tool_outputs"`
	Iterations  int                 `json:"iterations"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt time.Time           `json:"completed_at"`
}

// Verification is the verdict of the verify stage. Financial is nil when
// the output states no clear verdict.
type Verification struct {
	Financial *bool `json:"financial"`
}

// Rejected reports whether the document was judged not to be financial.
func (v Verification) Rejected() bool {
	return v.Financial != nil && !*v.Financial
}

type Report struct {
	RunID        string         `json:"run_id"`
	Query        string         `json:"query"`
	FilePath     string         `json:"file_path"`
	Pages        []extract.Page `json:"pages"`
	Stages       []StageReport  `json:"stages"`
	Verification Verification   `json:"verification"`
	Text         string         `json:"text"`
	Usage        usage.Usage    `json:"usage"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
}

// StageOutput returns the output of stage, if it ran.
func (r *Report) StageOutput(stage Stage) (string, bool) {
	for _, s := range r.Stages {
		if s.Stage == stage {
			return s.Output, true
		}
	}
	return "", false
}

// FormatReport joins stage outputs under "=== TITLE ===" headers.
func FormatReport(stages []StageReport) string {
	var sb strings.Builder
	for i, s := range stages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("=== ")
		sb.WriteString(s.Stage.Title())
		sb.WriteString(" ===\n")
		sb.WriteString(strings.TrimSpace(s.Output))
	}
	return sb.String()
}

var (
	verdictRe      = regexp.MustCompile(`(?i)\bverdict\s*[:\-]\s*\**\s*(yes|no)\b`)
	leadingRe      = regexp.MustCompile(`(?i)^\W*(yes|no)\b`)
	notFinancialRe = regexp.MustCompile(`(?i)\bnot\s+(a\s+)?(valid\s+)?financial\s+(report|document|statement)`)
)

// ParseVerification reads the verify stage verdict. An explicit
// "VERDICT: YES/NO" line wins, then a leading yes or no, then a phrase such
// as "not a financial report".
func ParseVerification(output string) Verification {
	if m := verdictRe.FindStringSubmatch(output); m != nil {
		return verdict(strings.EqualFold(m[1], "yes"))
	}
	trimmed := strings.TrimSpace(output)
	if m := leadingRe.FindStringSubmatch(trimmed); m != nil {
		return verdict(strings.EqualFold(m[1], "yes"))
	}
	if notFinancialRe.MatchString(output) {
		return verdict(false)
	}
	return Verification{}
}

func verdict(financial bool) Verification {
	return Verification{Financial: &financial}
}
