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
	"fmt"
	"strings"

	"github.com/nlpodyssey/financial-document-analyzer/modelsettings"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/openai/openai-go/v2/packages/param"
)

// DefaultTemperature is the sampling temperature of role synthesis calls.
const DefaultTemperature = 0.2

// An Agent is a role in the pipeline: a persona with a goal, a fixed list of
// tools and execution limits.
type Agent struct {
	// The identifier of the agent, e.g. "financial_analyst".
	Name string

	// Human-readable role title, e.g. "Senior Financial Analyst".
	Role string

	// What the agent is trying to achieve. Used in the system prompt.
	Goal string

	// Background that frames the agent's answers. Used in the system prompt.
	Backstory string

	// The tools the agent may use, in invocation order. A Task can override
	// this list.
	Tools []tools.Tool

	// Model used for the synthesis call. When empty the Runner's default
	// model is used.
	Model string

	// Configures model-specific tuning parameters for the synthesis call.
	// A missing temperature defaults to DefaultTemperature.
	ModelSettings modelsettings.ModelSettings

	// Maximum number of tool invocations plus synthesis calls per task.
	// Zero means no limit.
	MaxIter int

	// Maximum number of network-bound calls per minute. Zero means no limit.
	MaxRPM int
}

// SystemPrompt returns the persona instructions sent as system message.
func (a *Agent) SystemPrompt() string {
	var sb strings.Builder
	title := a.Role
	if title == "" {
		title = a.Name
	}
	fmt.Fprintf(&sb, "You are %s.", title)
	if a.Goal != "" {
		fmt.Fprintf(&sb, "\nYour goal: %s", a.Goal)
	}
	if a.Backstory != "" {
		fmt.Fprintf(&sb, "\n%s", a.Backstory)
	}
	return sb.String()
}

// EffectiveModelSettings returns the agent settings with the default
// temperature filled in.
func (a *Agent) EffectiveModelSettings() modelsettings.ModelSettings {
	return modelsettings.ModelSettings{
		Temperature: param.NewOpt(DefaultTemperature),
	}.Resolve(a.ModelSettings)
}
