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
	"slices"
	"strings"

	"github.com/nlpodyssey/financial-document-analyzer/tools"
)

// Task is a unit of work assigned to an Agent.
type Task struct {
	Name string

	// Description may reference {query} and {file_path} placeholders.
	Description string

	// ExpectedOutput describes the shape of the answer.
	ExpectedOutput string

	Agent *Agent

	// Optional tool list. When set it replaces the agent tools.
	Tools []tools.Tool
}

// EffectiveTools returns the declarative tool list for this task.
func (t *Task) EffectiveTools() []tools.Tool {
	if len(t.Tools) > 0 {
		return t.Tools
	}
	if t.Agent == nil {
		return nil
	}
	return t.Agent.Tools
}

// Render substitutes "{name}" placeholders in the description with vars.
// Unknown placeholders are left as they are.
func (t *Task) Render(vars map[string]string) string {
	if len(vars) == 0 {
		return t.Description
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(t.Description)
}

// TaskVars returns the standard placeholder values for a stage input.
func TaskVars(in tools.Input) map[string]string {
	return map[string]string{
		"query":     in.Query,
		"file_path": in.FilePath,
	}
}
