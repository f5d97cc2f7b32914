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
	"context"
	"log/slog"

	"github.com/nlpodyssey/financial-document-analyzer/agents"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
)

// eventHooks publishes tool events for one stage, then delegates to the
// runner's own hooks, if any.
type eventHooks struct {
	inner    agents.RunHooks
	pipeline *Pipeline
	logger   *slog.Logger
	runID    string
	stage    Stage
}

func (h *eventHooks) OnAgentStart(ctx context.Context, agent *agents.Agent) error {
	if h.inner != nil {
		return h.inner.OnAgentStart(ctx, agent)
	}
	return nil
}

func (h *eventHooks) OnAgentEnd(ctx context.Context, agent *agents.Agent, output string) error {
	if h.inner != nil {
		return h.inner.OnAgentEnd(ctx, agent, output)
	}
	return nil
}

func (h *eventHooks) OnToolStart(ctx context.Context, agent *agents.Agent, tool tools.Tool) error {
	if h.inner != nil {
		return h.inner.OnToolStart(ctx, agent, tool)
	}
	return nil
}

func (h *eventHooks) OnToolEnd(ctx context.Context, agent *agents.Agent, tool tools.Tool, result tools.Result) error {
	meta := map[string]any{
		"stage": string(h.stage),
		"agent": agent.Name,
		"tool":  tool.ToolName(),
	}
	if result.Failed() {
		h.pipeline.publish(ctx, h.logger, h.runID, EventToolFailed, map[string]any{"error": result.Err.Message}, meta)
	} else {
		h.pipeline.publish(ctx, h.logger, h.runID, EventToolCompleted, map[string]any{"chars": len(result.Text)}, meta)
	}
	if h.inner != nil {
		return h.inner.OnToolEnd(ctx, agent, tool, result)
	}
	return nil
}
