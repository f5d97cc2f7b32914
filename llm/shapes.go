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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v2"
	"google.golang.org/genai"
)

// ResponseShape knows how to pull the assistant text out of one kind of
// provider response. Extract reports false when raw is not of its shape, or
// when the shape carries no usable text.
type ResponseShape interface {
	Extract(raw any) (string, bool)
}

type ResponseShapeFunc func(raw any) (string, bool)

func (f ResponseShapeFunc) Extract(raw any) (string, bool) { return f(raw) }

// DefaultShapes is the ordered list of strategies used by ExtractText.
var DefaultShapes = []ResponseShape{
	ResponseShapeFunc(mappingShape),
	ResponseShapeFunc(chatCompletionShape),
	ResponseShapeFunc(completionShape),
	ResponseShapeFunc(chunkShape),
	ResponseShapeFunc(anthropicShape),
	ResponseShapeFunc(geminiShape),
}

// ExtractText returns the assistant text of raw using DefaultShapes, falling
// back to a string rendering of the whole value. A nil response gives "".
func ExtractText(raw any) string {
	return ExtractTextWith(raw, DefaultShapes)
}

func ExtractTextWith(raw any, shapes []ResponseShape) string {
	if raw == nil {
		return ""
	}
	for _, shape := range shapes {
		if text, ok := shape.Extract(raw); ok {
			return text
		}
	}
	return stringify(raw)
}

// mappingShape handles decoded JSON bodies.
func mappingShape(raw any) (string, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return "", false
	}
	choices, _ := m["choices"].([]any)
	if len(choices) == 0 {
		return "", false
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return stringify(choices[0]), true
	}
	if msg, ok := first["message"].(map[string]any); ok {
		if content, present := msg["content"]; present {
			s, _ := content.(string)
			return s, true
		}
	}
	if text, _ := first["text"].(string); text != "" {
		return text, true
	}
	return stringify(first), true
}

func chatCompletionShape(raw any) (string, bool) {
	var cc *openai.ChatCompletion
	switch v := raw.(type) {
	case *openai.ChatCompletion:
		cc = v
	case openai.ChatCompletion:
		cc = &v
	default:
		return "", false
	}
	if cc == nil || len(cc.Choices) == 0 || cc.Choices[0].Message.Content == "" {
		return "", false
	}
	return cc.Choices[0].Message.Content, true
}

func completionShape(raw any) (string, bool) {
	var c *openai.Completion
	switch v := raw.(type) {
	case *openai.Completion:
		c = v
	case openai.Completion:
		c = &v
	default:
		return "", false
	}
	if c == nil || len(c.Choices) == 0 || c.Choices[0].Text == "" {
		return "", false
	}
	return c.Choices[0].Text, true
}

func chunkShape(raw any) (string, bool) {
	var chunk *openai.ChatCompletionChunk
	switch v := raw.(type) {
	case *openai.ChatCompletionChunk:
		chunk = v
	case openai.ChatCompletionChunk:
		chunk = &v
	default:
		return "", false
	}
	if chunk == nil || len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, true
}

func anthropicShape(raw any) (string, bool) {
	msg, ok := raw.(*anthropic.Message)
	if !ok || msg == nil {
		return "", false
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

func geminiShape(raw any) (string, bool) {
	resp, ok := raw.(*genai.GenerateContentResponse)
	if !ok || resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", false
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

type rawJSONer interface {
	RawJSON() string
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case rawJSONer:
		if s := x.RawJSON(); s != "" {
			return s
		}
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
