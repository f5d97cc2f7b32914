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
	"fmt"
	"maps"
	"strings"

	"github.com/nlpodyssey/financial-document-analyzer/types/optional"
)

// MultiBackend is a Backend that picks a provider based on the prefix of the
// model name. By default, the mapping is:
//   - no prefix -> Default, e.g. "gpt-4o"
//   - "openai/" -> Default when it is an OpenAIBackend, e.g. "openai/gpt-4o"
//   - "anthropic/" -> AnthropicBackend
//   - "gemini/" -> GeminiBackend
//
// The prefix is stripped before the request reaches the provider.
type MultiBackend struct {
	// Backend used for unprefixed model names.
	Default Backend

	backends map[string]Backend
}

func NewMultiBackend(defaultBackend Backend) *MultiBackend {
	return &MultiBackend{
		Default: defaultBackend,
		backends: map[string]Backend{
			"anthropic": &AnthropicBackend{},
			"gemini":    &GeminiBackend{},
		},
	}
}

// AddBackend adds or replaces the backend for the given prefix.
func (m *MultiBackend) AddBackend(prefix string, b Backend) {
	if m.backends == nil {
		m.backends = make(map[string]Backend)
	}
	m.backends[prefix] = b
}

// RemoveBackend removes the mapping for the given prefix.
func (m *MultiBackend) RemoveBackend(prefix string) {
	delete(m.backends, prefix)
}

// Mapping returns a copy of the current prefix -> Backend mapping.
func (m *MultiBackend) Mapping() map[string]Backend {
	return maps.Clone(m.backends)
}

func splitModel(model string) (prefix, name string) {
	if p, n, ok := strings.Cut(model, "/"); ok {
		return p, n
	}
	return "", model
}

// Resolve returns the backend serving model and the model name to send.
func (m *MultiBackend) Resolve(model string) (Backend, string, error) {
	prefix, name := splitModel(model)
	if prefix == "" {
		if m.Default == nil {
			return nil, "", fmt.Errorf("no default LLM backend configured")
		}
		return m.Default, name, nil
	}
	if b, ok := m.backends[prefix]; ok {
		return b, name, nil
	}
	if prefix == "openai" {
		if ob, ok := m.Default.(*OpenAIBackend); ok {
			return ob, name, nil
		}
		return &OpenAIBackend{}, name, nil
	}
	return nil, "", fmt.Errorf("unknown model prefix %q", prefix)
}

func (m *MultiBackend) Generate(ctx context.Context, req Request) (*Response, error) {
	b, name, err := m.Resolve(req.Model)
	if err != nil {
		return nil, err
	}
	req.Model = name
	return b.Generate(ctx, req)
}

// NewBackend builds a MultiBackend whose default is the named provider
// ("openai", "anthropic" or "gemini"). baseURL applies to that default only.
func NewBackend(provider string, baseURL optional.Optional[string]) (*MultiBackend, error) {
	var def Backend
	switch provider {
	case "", "openai":
		def = &OpenAIBackend{BaseURL: baseURL}
	case "anthropic":
		def = &AnthropicBackend{BaseURL: baseURL}
	case "gemini":
		def = &GeminiBackend{BaseURL: baseURL}
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
	m := NewMultiBackend(def)
	if provider != "" && provider != "openai" {
		m.AddBackend(provider, def)
	}
	return m, nil
}
