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

package agentstesting

import (
	"context"
	"sync"

	"github.com/nlpodyssey/financial-document-analyzer/tools"
)

// FakeCompleter satisfies the completer used by the analysis tools.
type FakeCompleter struct {
	mu      sync.Mutex
	Result  tools.Result
	Prompts []string
	Models  []string
	Budgets []int64
}

func NewFakeCompleter(result tools.Result) *FakeCompleter {
	return &FakeCompleter{Result: result}
}

func (c *FakeCompleter) Complete(_ context.Context, prompt, model string, maxTokens int64) tools.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Prompts = append(c.Prompts, prompt)
	c.Models = append(c.Models, model)
	c.Budgets = append(c.Budgets, maxTokens)
	return c.Result
}

func (c *FakeCompleter) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Prompts)
}

// FakeTool is a tools.Tool returning fixed results in sequence; the last
// result repeats.
type FakeTool struct {
	Name     string
	Network  bool
	Document bool
	Results  []tools.Result
	Inputs   []tools.Input
	mu       sync.Mutex
}

func NewFakeTool(name string, results ...tools.Result) *FakeTool {
	return &FakeTool{Name: name, Results: results}
}

func (t *FakeTool) ToolName() string       { return t.Name }
func (t *FakeTool) Description() string    { return "fake tool " + t.Name }
func (t *FakeTool) UsesNetwork() bool      { return t.Network }
func (t *FakeTool) ProvidesDocument() bool { return t.Document }

func (t *FakeTool) Run(_ context.Context, in tools.Input) tools.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Inputs = append(t.Inputs, in)
	if len(t.Results) == 0 {
		return tools.Success("")
	}
	i := min(len(t.Inputs), len(t.Results)) - 1
	return t.Results[i]
}

func (t *FakeTool) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Inputs)
}
