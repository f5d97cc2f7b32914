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
	"os"

	"github.com/nlpodyssey/financial-document-analyzer/types/optional"
	"github.com/nlpodyssey/financial-document-analyzer/usage"
	"github.com/openai/openai-go/v2/packages/param"
	"google.golang.org/genai"
)

const (
	GeminiProvider  = "Gemini"
	GeminiKeyEnvVar = "GEMINI_API_KEY"
)

// GeminiBackend calls GenerateContent on the Gemini API.
type GeminiBackend struct {
	APIKey  func() string
	BaseURL optional.Optional[string]
}

func (b *GeminiBackend) apiKey() string {
	if b.APIKey != nil {
		return b.APIKey()
	}
	return os.Getenv(GeminiKeyEnvVar)
}

func (b *GeminiBackend) Generate(ctx context.Context, req Request) (*Response, error) {
	apiKey := b.apiKey()
	if apiKey == "" {
		return nil, &MissingCredentialError{Provider: GeminiProvider, EnvVar: GeminiKeyEnvVar}
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if v, ok := b.BaseURL.Get(); ok {
		cc.HTTPOptions.BaseURL = v
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &CallError{Provider: GeminiProvider, Err: err}
	}

	resp, err := client.Models.GenerateContent(
		ctx,
		req.Model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		geminiConfig(req),
	)
	if err != nil {
		return nil, &CallError{Provider: GeminiProvider, Err: err}
	}

	u := usage.Usage{Requests: 1}
	if md := resp.UsageMetadata; md != nil {
		u.InputTokens = uint64(md.PromptTokenCount)
		u.CachedTokens = uint64(md.CachedContentTokenCount)
		u.OutputTokens = uint64(md.CandidatesTokenCount)
		u.ReasoningTokens = uint64(md.ThoughtsTokenCount)
		u.TotalTokens = uint64(md.TotalTokenCount)
	}
	return &Response{Raw: resp, Usage: u}, nil
}

func geminiConfig(req Request) *genai.GenerateContentConfig {
	ms := req.Settings
	config := &genai.GenerateContentConfig{
		StopSequences: ms.StopSequences,
	}
	if v, ok := valueOf(ms.Temperature); ok {
		config.Temperature = genai.Ptr(float32(v))
	}
	if v, ok := valueOf(ms.TopP); ok {
		config.TopP = genai.Ptr(float32(v))
	}
	if v, ok := valueOf(ms.FrequencyPenalty); ok {
		config.FrequencyPenalty = genai.Ptr(float32(v))
	}
	if v, ok := valueOf(ms.PresencePenalty); ok {
		config.PresencePenalty = genai.Ptr(float32(v))
	}
	if v, ok := valueOf(ms.MaxTokens); ok {
		config.MaxOutputTokens = int32(v)
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	return config
}

func valueOf[T comparable](o param.Opt[T]) (T, bool) {
	return o.Value, o.Valid()
}
