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
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v2"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestExtractText(t *testing.T) {
	testCases := []struct {
		name string
		raw  any
		want string
	}{
		{"nil", nil, ""},
		{
			"mapping with message content",
			map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": "SUMMARY: ok"}}}},
			"SUMMARY: ok",
		},
		{
			"mapping with null content",
			map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": nil}}}},
			"",
		},
		{
			"mapping with legacy text",
			map[string]any{"choices": []any{map[string]any{"text": "legacy"}}},
			"legacy",
		},
		{
			"mapping with unknown choice",
			map[string]any{"choices": []any{map[string]any{"index": 0.0}}},
			`{"index":0}`,
		},
		{
			"mapping without choices",
			map[string]any{"id": "x"},
			`{"id":"x"}`,
		},
		{
			"chat completion",
			&openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "chat text"}},
			}},
			"chat text",
		},
		{
			"completion",
			&openai.Completion{Choices: []openai.CompletionChoice{{Text: "completion text"}}},
			"completion text",
		},
		{
			"stream chunk",
			openai.ChatCompletionChunk{Choices: []openai.ChatCompletionChunkChoice{
				{Delta: openai.ChatCompletionChunkChoiceDelta{Content: "delta"}},
			}},
			"delta",
		},
		{
			"anthropic message",
			&anthropic.Message{Content: []anthropic.ContentBlockUnion{
				{Type: "text", Text: "RISK "},
				{Type: "tool_use"},
				{Type: "text", Text: "HEADLINE"},
			}},
			"RISK HEADLINE",
		},
		{
			"gemini response",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{{Text: "gem"}, {Text: "ini"}}}},
			}},
			"gemini",
		},
		{"plain string", "already text", "already text"},
		{"arbitrary struct", struct{ A int }{A: 1}, `{"A":1}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractText(tc.raw))
		})
	}
}

func TestExtractText_UnserializableFallsBackToFormat(t *testing.T) {
	ch := make(chan int)
	assert.NotEmpty(t, ExtractText(ch))
}

func TestExtractTextWith_CustomShape(t *testing.T) {
	shapes := []ResponseShape{
		ResponseShapeFunc(func(raw any) (string, bool) {
			n, ok := raw.(int)
			if !ok {
				return "", false
			}
			return "number", n > 0
		}),
	}
	assert.Equal(t, "number", ExtractTextWith(3, shapes))
	assert.Equal(t, "0", ExtractTextWith(0, shapes))
}
