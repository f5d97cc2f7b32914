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
	"sync/atomic"
)

// FakeParser returns fixed page texts for any path.
type FakeParser struct {
	ParserName string
	Pages      []string
	Err        error
	calls      atomic.Int32
}

func (p *FakeParser) Name() string {
	if p.ParserName == "" {
		return "fake"
	}
	return p.ParserName
}

func (p *FakeParser) ParsePages(context.Context, string) ([]string, error) {
	p.calls.Add(1)
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Pages, nil
}

func (p *FakeParser) Calls() int { return int(p.calls.Load()) }
