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

package modelsettings

import (
	"maps"
	"slices"

	"github.com/openai/openai-go/v2/packages/param"
)

// ModelSettings holds settings to use when calling an LLM.
//
// Not all providers support all of these parameters; backends ignore the
// ones they cannot express.
type ModelSettings struct {
	// The temperature to use when calling the model.
	Temperature param.Opt[float64] `json:"temperature"`

	// The top_p to use when calling the model.
	TopP param.Opt[float64] `json:"top_p"`

	// The frequency penalty to use when calling the model.
	FrequencyPenalty param.Opt[float64] `json:"frequency_penalty"`

	// The presence penalty to use when calling the model.
	PresencePenalty param.Opt[float64] `json:"presence_penalty"`

	// The maximum number of output tokens to generate.
	MaxTokens param.Opt[int64] `json:"max_tokens"`

	// Sequences where the model stops generating further tokens.
	StopSequences []string `json:"stop_sequences"`

	// Optional metadata to include with the model call.
	Metadata map[string]string `json:"metadata"`

	// Optional additional query fields to provide with the request.
	ExtraQuery map[string]string `json:"extra_query"`

	// Optional additional headers to provide with the request.
	ExtraHeaders map[string]string `json:"extra_headers"`
}

// Resolve produces a new ModelSettings by overlaying any present values from
// the override on top of this instance.
func (ms ModelSettings) Resolve(override ModelSettings) ModelSettings {
	newSettings := ms
	resolveOpt(&newSettings.Temperature, override.Temperature)
	resolveOpt(&newSettings.TopP, override.TopP)
	resolveOpt(&newSettings.FrequencyPenalty, override.FrequencyPenalty)
	resolveOpt(&newSettings.PresencePenalty, override.PresencePenalty)
	resolveOpt(&newSettings.MaxTokens, override.MaxTokens)
	resolveSlice(&newSettings.StopSequences, override.StopSequences)
	resolveMap(&newSettings.Metadata, override.Metadata)
	resolveMap(&newSettings.ExtraQuery, override.ExtraQuery)
	resolveMap(&newSettings.ExtraHeaders, override.ExtraHeaders)
	return newSettings
}

// Deterministic returns settings with temperature 0 and the given output
// token budget.
func Deterministic(maxTokens int64) ModelSettings {
	return ModelSettings{
		Temperature: param.NewOpt(0.0),
		MaxTokens:   param.NewOpt(maxTokens),
	}
}

func resolveOpt[T comparable](base *param.Opt[T], override param.Opt[T]) {
	if override.Valid() {
		*base = override
	}
}

func resolveSlice[S ~[]E, E any](base *S, override S) {
	if len(override) > 0 {
		*base = slices.Clone(override)
	}
}

func resolveMap[M ~map[K]V, K comparable, V any](base *M, override M) {
	if len(override) > 0 {
		*base = maps.Clone(override)
	}
}
