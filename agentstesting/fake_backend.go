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

// Package agentstesting provides deterministic fakes for the LLM backend,
// tools and PDF parsers, so stages can be tested without network access.
package agentstesting

import (
	"context"
	"errors"
	"sync"

	"github.com/nlpodyssey/financial-document-analyzer/llm"
	"github.com/nlpodyssey/financial-document-analyzer/usage"
)

// FakeBackendOutput is one queued reply. Raw defaults to Text when nil.
type FakeBackendOutput struct {
	Text  string
	Raw   any
	Error error
}

// FakeBackend replays queued outputs in order. When the queue is empty it
// returns Fallback, or an error if Fallback is nil.
type FakeBackend struct {
	mu             sync.Mutex
	Outputs        []FakeBackendOutput
	Fallback       *FakeBackendOutput
	Requests       []llm.Request
	HardcodedUsage *usage.Usage
}

func NewFakeBackend(outputs ...FakeBackendOutput) *FakeBackend {
	return &FakeBackend{Outputs: outputs}
}

// NewEchoBackend returns a backend whose every reply is text.
func NewEchoBackend(text string) *FakeBackend {
	return &FakeBackend{Fallback: &FakeBackendOutput{Text: text}}
}

func (b *FakeBackend) SetNextOutput(out FakeBackendOutput) {
	b.mu.Lock()
	b.Outputs = append(b.Outputs, out)
	b.mu.Unlock()
}

func (b *FakeBackend) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Requests = append(b.Requests, req)

	var out FakeBackendOutput
	switch {
	case len(b.Outputs) > 0:
		out = b.Outputs[0]
		b.Outputs = b.Outputs[1:]
	case b.Fallback != nil:
		out = *b.Fallback
	default:
		return nil, errors.New("fake backend: no output queued")
	}

	if out.Error != nil {
		return nil, out.Error
	}
	raw := out.Raw
	if raw == nil {
		raw = out.Text
	}
	u := usage.Usage{Requests: 1}
	if b.HardcodedUsage != nil {
		u = *b.HardcodedUsage
	}
	return &llm.Response{Raw: raw, Usage: u}, nil
}

func (b *FakeBackend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Requests)
}

// LastRequest returns the most recent request, or a zero Request.
func (b *FakeBackend) LastRequest() llm.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Requests) == 0 {
		return llm.Request{}
	}
	return b.Requests[len(b.Requests)-1]
}
