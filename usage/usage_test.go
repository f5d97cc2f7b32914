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

package usage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsage_Add(t *testing.T) {
	u := &Usage{
		Requests:        1,
		InputTokens:     2,
		CachedTokens:    3,
		OutputTokens:    4,
		ReasoningTokens: 5,
		TotalTokens:     6,
	}
	other := &Usage{
		Requests:        40,
		InputTokens:     50,
		CachedTokens:    60,
		OutputTokens:    70,
		ReasoningTokens: 80,
		TotalTokens:     90,
	}
	u.Add(other)
	u.Add(nil)

	expected := &Usage{
		Requests:        41,
		InputTokens:     52,
		CachedTokens:    63,
		OutputTokens:    74,
		ReasoningTokens: 85,
		TotalTokens:     96,
	}
	assert.Equal(t, expected, u)
}

func TestRecord(t *testing.T) {
	acc := NewUsage()
	ctx := NewContext(context.Background(), acc)

	Record(ctx, &Usage{Requests: 1, TotalTokens: 10})
	Record(ctx, &Usage{Requests: 1, InputTokens: 3, TotalTokens: 5})

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, acc, got)
	assert.Equal(t, &Usage{Requests: 2, InputTokens: 3, TotalTokens: 15}, acc)
}

func TestRecord_NoUsageInContext(t *testing.T) {
	assert.NotPanics(t, func() {
		Record(context.Background(), &Usage{Requests: 1})
	})
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}
