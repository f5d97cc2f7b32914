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
	"context"

	"github.com/nlpodyssey/financial-document-analyzer/tools"
)

// RunHooks is implemented by an object that receives callbacks on various
// lifecycle events in an agent run. A non-nil error aborts the run.
type RunHooks interface {
	// OnAgentStart is called before the agent's first tool is invoked.
	OnAgentStart(ctx context.Context, agent *Agent) error

	// OnAgentEnd is called when the agent produces its final output.
	OnAgentEnd(ctx context.Context, agent *Agent, output string) error

	// OnToolStart is called before a tool is invoked.
	OnToolStart(ctx context.Context, agent *Agent, tool tools.Tool) error

	// OnToolEnd is called after a tool is invoked, with its result.
	OnToolEnd(ctx context.Context, agent *Agent, tool tools.Tool, result tools.Result) error
}

type NoOpRunHooks struct{}

func (NoOpRunHooks) OnAgentStart(context.Context, *Agent) error {
	return nil
}
func (NoOpRunHooks) OnAgentEnd(context.Context, *Agent, string) error {
	return nil
}
func (NoOpRunHooks) OnToolStart(context.Context, *Agent, tools.Tool) error {
	return nil
}
func (NoOpRunHooks) OnToolEnd(context.Context, *Agent, tools.Tool, tools.Result) error {
	return nil
}
