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
	"github.com/nlpodyssey/financial-document-analyzer/modelsettings"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/nlpodyssey/financial-document-analyzer/util/transforms"
	"github.com/openai/openai-go/v2/packages/param"
)

// New creates a new Agent with the given name.
//
// The returned Agent can be further configured using the builder methods.
func New(name string) *Agent {
	return &Agent{Name: name}
}

// NewFromRole creates an Agent named after its role title, e.g.
// "Investment Advisor" becomes "investment_advisor".
func NewFromRole(role string) *Agent {
	return &Agent{Name: transforms.TransformStringFunctionStyle(role), Role: role}
}

// WithRole sets the role title.
func (a *Agent) WithRole(role string) *Agent {
	a.Role = role
	return a
}

// WithGoal sets the agent goal.
func (a *Agent) WithGoal(goal string) *Agent {
	a.Goal = goal
	return a
}

// WithBackstory sets the agent backstory.
func (a *Agent) WithBackstory(backstory string) *Agent {
	a.Backstory = backstory
	return a
}

// WithTools sets the agent tools.
func (a *Agent) WithTools(t ...tools.Tool) *Agent {
	a.Tools = t
	return a
}

// AddTool appends a tool to the agent tools.
func (a *Agent) AddTool(t tools.Tool) *Agent {
	a.Tools = append(a.Tools, t)
	return a
}

// WithModel sets the model to use by name.
func (a *Agent) WithModel(name string) *Agent {
	a.Model = name
	return a
}

// WithModelSettings sets model-specific settings.
func (a *Agent) WithModelSettings(settings modelsettings.ModelSettings) *Agent {
	a.ModelSettings = settings
	return a
}

// WithTemperature sets the synthesis temperature.
func (a *Agent) WithTemperature(t float64) *Agent {
	a.ModelSettings.Temperature = param.NewOpt(t)
	return a
}

// WithMaxIter sets the iteration ceiling.
func (a *Agent) WithMaxIter(n int) *Agent {
	a.MaxIter = n
	return a
}

// WithMaxRPM sets the requests-per-minute ceiling.
func (a *Agent) WithMaxRPM(n int) *Agent {
	a.MaxRPM = n
	return a
}
