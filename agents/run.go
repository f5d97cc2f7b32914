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
	"log/slog"
	"time"

	"github.com/nlpodyssey/financial-document-analyzer/llm"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
	"golang.org/x/time/rate"
)

// RunInput is the data an agent receives for one task.
type RunInput struct {
	tools.Input

	// Final outputs of earlier stages, in pipeline order.
	Upstream []UpstreamOutput
}

type RunResult struct {
	Agent       string
	Output      string
	ToolOutputs []ToolOutput

	// Tool invocations plus synthesis calls spent.
	Iterations int

	// Document text after the task, including any replacement made by a
	// document-source tool.
	DocumentText string
}

// Runner executes a Task deterministically: every tool of the task's list
// is invoked once in order, then a single synthesis call produces the
// output. There is no model-driven tool choice and no retry.
type Runner struct {
	Backend llm.Backend

	// Model for agents that do not set one. Defaults to llm.ModelFromEnv().
	DefaultModel string

	// Optional; defaults to NoOpRunHooks.
	Hooks RunHooks

	// Optional; defaults to logging.Logger().
	Logger *slog.Logger

	// Optional bound on the document excerpt; defaults to DefaultExcerptRunes.
	ExcerptRunes int
}

// budget tracks the iteration and rate ceilings of a single task run.
type budget struct {
	agent      string
	maxIter    int
	maxRPM     int
	iterations int
	limiter    *rate.Limiter
}

func newBudget(a *Agent) *budget {
	b := &budget{agent: a.Name, maxIter: a.MaxIter, maxRPM: a.MaxRPM}
	if a.MaxRPM > 0 {
		b.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(a.MaxRPM)), a.MaxRPM)
	}
	return b
}

func (b *budget) spend(networkBound bool) error {
	if b.maxIter > 0 && b.iterations+1 > b.maxIter {
		return MaxIterationsExceededError{Agent: b.agent, Limit: b.maxIter}
	}
	if networkBound && b.limiter != nil && !b.limiter.Allow() {
		return RateLimitExceededError{Agent: b.agent, Limit: b.maxRPM}
	}
	b.iterations++
	return nil
}

// Run executes task with its agent.
func (r Runner) Run(ctx context.Context, task *Task, in RunInput) (*RunResult, error) {
	agent := task.Agent
	if agent == nil {
		agent = New(task.Name)
	}
	hooks := r.Hooks
	if hooks == nil {
		hooks = NoOpRunHooks{}
	}
	logger := logging.OrDefault(r.Logger).With(slog.String("agent", agent.Name))

	if err := hooks.OnAgentStart(ctx, agent); err != nil {
		return nil, HookError{Hook: "OnAgentStart", Err: err}
	}

	b := newBudget(agent)
	input := in.Input
	taskTools := task.EffectiveTools()
	outputs := make([]ToolOutput, 0, len(taskTools))
	documentSources := make(map[string]bool)

	for _, tool := range taskTools {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.spend(tools.UsesNetwork(tool)); err != nil {
			return nil, err
		}
		if err := hooks.OnToolStart(ctx, agent, tool); err != nil {
			return nil, HookError{Hook: "OnToolStart", Err: err}
		}

		res := tool.Run(ctx, input)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if res.Failed() {
			logger.Warn("tool failed", slog.String("tool", tool.ToolName()), slog.String("error", res.Err.Message))
		} else if tools.ProvidesDocument(tool) {
			input.DocumentText = res.Text
			documentSources[tool.ToolName()] = true
		}
		outputs = append(outputs, ToolOutput{Tool: tool.ToolName(), Result: res})

		if err := hooks.OnToolEnd(ctx, agent, tool, res); err != nil {
			return nil, HookError{Hook: "OnToolEnd", Err: err}
		}
	}

	if err := b.spend(true); err != nil {
		return nil, err
	}

	prompt := BuildSynthesisPrompt(SynthesisInput{
		Task:           task.Render(TaskVars(input)),
		ExpectedOutput: task.ExpectedOutput,
		DocumentText:   input.DocumentText,
		ExcerptRunes:   r.ExcerptRunes,
		Upstream:       in.Upstream,
		ToolOutputs:    outputs,
	}, documentSources)

	model := agent.Model
	if model == "" {
		model = r.DefaultModel
	}
	if model == "" {
		model = llm.ModelFromEnv()
	}

	if r.Backend == nil {
		return nil, SynthesisError{Agent: agent.Name, Err: errNoBackend}
	}
	output, err := llm.Call(ctx, r.Backend, llm.Request{
		Model:    model,
		System:   agent.SystemPrompt(),
		Prompt:   prompt,
		Settings: agent.EffectiveModelSettings(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, SynthesisError{Agent: agent.Name, Err: err}
	}

	if err := hooks.OnAgentEnd(ctx, agent, output); err != nil {
		return nil, HookError{Hook: "OnAgentEnd", Err: err}
	}

	return &RunResult{
		Agent:        agent.Name,
		Output:       output,
		ToolOutputs:  outputs,
		Iterations:   b.iterations,
		DocumentText: input.DocumentText,
	}, nil
}
