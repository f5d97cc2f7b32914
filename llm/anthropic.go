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

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/nlpodyssey/financial-document-analyzer/types/optional"
	"github.com/nlpodyssey/financial-document-analyzer/usage"
)

const (
	AnthropicProvider  = "Anthropic"
	AnthropicKeyEnvVar = "ANTHROPIC_API_KEY"

	// The Messages API requires max_tokens on every request.
	defaultAnthropicMaxTokens = 1024
)

// AnthropicBackend calls the Anthropic Messages API.
type AnthropicBackend struct {
	APIKey  func() string
	BaseURL optional.Optional[string]
	Options []anthropicoption.RequestOption
}

func (b *AnthropicBackend) apiKey() string {
	if b.APIKey != nil {
		return b.APIKey()
	}
	return os.Getenv(AnthropicKeyEnvVar)
}

func (b *AnthropicBackend) Generate(ctx context.Context, req Request) (*Response, error) {
	apiKey := b.apiKey()
	if apiKey == "" {
		return nil, &MissingCredentialError{Provider: AnthropicProvider, EnvVar: AnthropicKeyEnvVar}
	}

	opts := append([]anthropicoption.RequestOption{anthropicoption.WithMaxRetries(0)}, b.Options...)
	opts = append(opts, anthropicoption.WithAPIKey(apiKey))
	if v, ok := b.BaseURL.Get(); ok {
		opts = append(opts, anthropicoption.WithBaseURL(v))
	}
	client := anthropic.NewClient(opts...)

	ms := req.Settings
	maxTokens := int64(defaultAnthropicMaxTokens)
	if v, ok := valueOf(ms.MaxTokens); ok {
		maxTokens = v
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		StopSequences: ms.StopSequences,
	}
	if v, ok := valueOf(ms.Temperature); ok {
		params.Temperature = anthropic.Float(v)
	}
	if v, ok := valueOf(ms.TopP); ok {
		params.TopP = anthropic.Float(v)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	var callOpts []anthropicoption.RequestOption
	for k, v := range ms.ExtraHeaders {
		callOpts = append(callOpts, anthropicoption.WithHeader(k, v))
	}

	resp, err := client.Messages.New(ctx, params, callOpts...)
	if err != nil {
		return nil, &CallError{Provider: AnthropicProvider, Err: err}
	}

	in, out := uint64(resp.Usage.InputTokens), uint64(resp.Usage.OutputTokens)
	return &Response{
		Raw: resp,
		Usage: usage.Usage{
			Requests:     1,
			InputTokens:  in,
			CachedTokens: uint64(resp.Usage.CacheReadInputTokens),
			OutputTokens: out,
			TotalTokens:  in + out,
		},
	}, nil
}
