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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/nlpodyssey/financial-document-analyzer/util/transforms"
)

// DefaultExcerptRunes bounds the document text embedded in a synthesis
// prompt.
const DefaultExcerptRunes = 12000

// UpstreamOutput is the final output of an earlier stage, handed verbatim
// to later stages.
type UpstreamOutput struct {
	Stage  string
	Agent  string
	Output string
}

// ToolOutput records one tool invocation.
type ToolOutput struct {
	Tool   string
	Result tools.Result
}

func (o ToolOutput) Failed() bool { return o.Result.Failed() }

type toolOutputJSON struct {
	Tool   string `json:"tool"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (o ToolOutput) MarshalJSON() ([]byte, error) {
	v := toolOutputJSON{Tool: o.Tool, Output: o.Result.Text}
	if o.Result.Err != nil {
		v.Error = o.Result.Err.Message
	}
	return json.Marshal(v)
}

func (o *ToolOutput) UnmarshalJSON(data []byte) error {
	var v toolOutputJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Tool = v.Tool
	if v.Error != "" {
		o.Result = tools.Failure(v.Error)
	} else {
		o.Result = tools.Success(v.Output)
	}
	return nil
}

// SynthesisInput is everything a synthesis prompt is built from.
type SynthesisInput struct {
	Task           string
	ExpectedOutput string
	DocumentText   string
	ExcerptRunes   int
	Upstream       []UpstreamOutput
	ToolOutputs    []ToolOutput
}

// BuildSynthesisPrompt renders the user prompt of an agent's final call.
//
// Failed tools appear as unavailable sections carrying their error text, so
// the model can say what it could not assess. Document-source outputs are
// not repeated, since the excerpt already holds them.
func BuildSynthesisPrompt(in SynthesisInput, documentSources map[string]bool) string {
	var sb strings.Builder

	sb.WriteString("TASK:\n")
	sb.WriteString(strings.TrimSpace(in.Task))
	sb.WriteString("\n\nEXPECTED OUTPUT:\n")
	sb.WriteString(strings.TrimSpace(in.ExpectedOutput))

	limit := in.ExcerptRunes
	if limit <= 0 {
		limit = DefaultExcerptRunes
	}
	sb.WriteString("\n\nDOCUMENT EXCERPT:\n")
	if excerpt := truncateRunes(strings.TrimSpace(in.DocumentText), limit); excerpt != "" {
		sb.WriteString(excerpt)
	} else {
		sb.WriteString("(no document text available)")
	}

	if len(in.Upstream) > 0 {
		sb.WriteString("\n\nFINDINGS FROM EARLIER STAGES:")
		for _, u := range in.Upstream {
			fmt.Fprintf(&sb, "\n\n=== %s (%s) ===\n%s", strings.ToUpper(u.Stage), u.Agent, u.Output)
		}
	}

	if len(in.ToolOutputs) > 0 {
		sb.WriteString("\n\nTOOL OUTPUTS:")
		for _, o := range in.ToolOutputs {
			label := strings.ToUpper(transforms.TransformStringFunctionStyle(o.Tool))
			switch {
			case o.Failed():
				fmt.Fprintf(&sb, "\n\n[%s] UNAVAILABLE\n%s", label, o.Result.String())
			case documentSources[o.Tool]:
				fmt.Fprintf(&sb, "\n\n[%s]\nDocument text loaded (%d characters), see excerpt above.",
					label, len([]rune(o.Result.Text)))
			default:
				fmt.Fprintf(&sb, "\n\n[%s]\n%s", label, o.Result.Text)
			}
		}
	}

	sb.WriteString("\n\nWrite your final answer now. Follow the expected output. ")
	sb.WriteString("Base every figure on the material above and say so when something is unavailable.")
	return sb.String()
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
