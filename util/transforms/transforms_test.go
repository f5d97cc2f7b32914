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

package transforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransformStringFunctionStyle(t *testing.T) {
	input := "Foo Bar 123?Baz Quux!"
	result := TransformStringFunctionStyle(input)
	assert.Equal(t, "foo_bar_123_baz_quux_", result)

	assert.Equal(t, "senior_financial_analyst", TransformStringFunctionStyle("Senior Financial Analyst"))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Risk Assessment Specialist", "risk_assessment_specialist"},
		{"  Q3 -- 2024 report!! ", "q3_2024_report"},
		{"", ""},
		{"___", ""},
		{"already_slugged", "already_slugged"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slug(tt.input))
		})
	}
}
