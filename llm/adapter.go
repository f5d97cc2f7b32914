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

package llm

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/nlpodyssey/financial-document-analyzer/modelsettings"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
)

const DefaultModel = "gpt-4o-mini"

// ModelFromEnv returns OPENAI_MODEL, or DefaultModel when unset.
func ModelFromEnv() string {
	if m := os.Getenv("OPENAI_MODEL"); m != "" {
		return m
	}
	return DefaultModel
}

// Adapter turns a prompt into plain text with deterministic sampling.
// It never returns a Go error: every failure is a failed tools.Result.
type Adapter struct {
	Backend Backend

	// Optional default model; when empty ModelFromEnv is used.
	Model string

	// Optional logger; defaults to logging.Logger().
	Logger *slog.Logger
}

func NewAdapter(backend Backend, model string) *Adapter {
	return &Adapter{Backend: backend, Model: model}
}

func (a *Adapter) resolveModel(model string) string {
	switch {
	case model != "":
		return model
	case a.Model != "":
		return a.Model
	default:
		return ModelFromEnv()
	}
}

// Complete sends prompt as a single user message with temperature 0 and the
// given output token budget.
func (a *Adapter) Complete(ctx context.Context, prompt, model string, maxTokens int64) tools.Result {
	if a == nil || a.Backend == nil {
		return tools.Failure("LLM client not available.")
	}
	logger := logging.OrDefault(a.Logger)
	model = a.resolveModel(model)

	text, err := Call(ctx, a.Backend, Request{
		Model:    model,
		Prompt:   prompt,
		Settings: modelsettings.Deterministic(maxTokens),
	})
	if err != nil {
		logger.Warn("LLM call failed", slog.String("model", model), slog.String("error", err.Error()))
		return failureFromCallError(err)
	}

	logger.Debug("LLM response received", slog.String("model", model), slog.Int("chars", len(text)))
	return tools.Success(text)
}

func failureFromCallError(err error) tools.Result {
	var credErr *MissingCredentialError
	if errors.As(err, &credErr) {
		return tools.Failure(credErr.Error())
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		return tools.Failure(callErr.Error())
	}
	return tools.Failuref("LLM call failed: %v", err)
}
