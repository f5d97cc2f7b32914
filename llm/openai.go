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

	"github.com/nlpodyssey/financial-document-analyzer/modelsettings"
	"github.com/nlpodyssey/financial-document-analyzer/types/optional"
	"github.com/nlpodyssey/financial-document-analyzer/usage"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	OpenAIProvider  = "OpenAI"
	OpenAIKeyEnvVar = "OPENAI_API_KEY"
)

// OpenAIBackend calls the Chat Completions API.
type OpenAIBackend struct {
	// Optional key source, read on every call. Defaults to the
	// OPENAI_API_KEY environment variable.
	APIKey func() string

	// Optional base URL, for OpenAI-compatible servers.
	BaseURL optional.Optional[string]

	// Extra request options appended to every call. Retries are off unless
	// these turn them back on.
	Options []option.RequestOption
}

func NewOpenAIBackend(baseURL optional.Optional[string], opts ...option.RequestOption) *OpenAIBackend {
	return &OpenAIBackend{BaseURL: baseURL, Options: opts}
}

func (b *OpenAIBackend) apiKey() string {
	if b.APIKey != nil {
		return b.APIKey()
	}
	return os.Getenv(OpenAIKeyEnvVar)
}

func (b *OpenAIBackend) client(apiKey string) openai.Client {
	opts := append([]option.RequestOption{option.WithMaxRetries(0)}, b.Options...)
	opts = append(opts, option.WithAPIKey(apiKey))
	if v, ok := b.BaseURL.Get(); ok {
		opts = append(opts, option.WithBaseURL(v))
	}
	return openai.NewClient(opts...)
}

func (b *OpenAIBackend) Generate(ctx context.Context, req Request) (*Response, error) {
	apiKey := b.apiKey()
	if apiKey == "" {
		return nil, &MissingCredentialError{Provider: OpenAIProvider, EnvVar: OpenAIKeyEnvVar}
	}

	client := b.client(apiKey)
	params, opts := openaiChatParams(req)

	resp, err := client.Chat.Completions.New(ctx, params, opts...)
	if err != nil {
		return nil, &CallError{Provider: OpenAIProvider, Err: err}
	}

	return &Response{
		Raw: resp,
		Usage: usage.Usage{
			Requests:        1,
			InputTokens:     uint64(resp.Usage.PromptTokens),
			CachedTokens:    uint64(resp.Usage.PromptTokensDetails.CachedTokens),
			OutputTokens:    uint64(resp.Usage.CompletionTokens),
			ReasoningTokens: uint64(resp.Usage.CompletionTokensDetails.ReasoningTokens),
			TotalTokens:     uint64(resp.Usage.TotalTokens),
		},
	}, nil
}

func openaiChatParams(req Request) (openai.ChatCompletionNewParams, []option.RequestOption) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	ms := req.Settings
	params := openai.ChatCompletionNewParams{
		Model:            openai.ChatModel(req.Model),
		Messages:         messages,
		Temperature:      ms.Temperature,
		TopP:             ms.TopP,
		FrequencyPenalty: ms.FrequencyPenalty,
		PresencePenalty:  ms.PresencePenalty,
		MaxTokens:        ms.MaxTokens,
	}
	if len(ms.StopSequences) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: ms.StopSequences}
	}

	return params, requestOptions(ms)
}

func requestOptions(ms modelsettings.ModelSettings) []option.RequestOption {
	var opts []option.RequestOption
	for k, v := range ms.ExtraHeaders {
		opts = append(opts, option.WithHeader(k, v))
	}
	for k, v := range ms.ExtraQuery {
		opts = append(opts, option.WithQuery(k, v))
	}
	return opts
}
