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

package optional

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOptional_MarshalJSON(t *testing.T) {
	t.Run("value present", func(t *testing.T) {
		v := Value("foo")
		res, err := json.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, `"foo"`, string(res))
	})

	t.Run("value not present", func(t *testing.T) {
		v := None[string]()
		res, err := json.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, `null`, string(res))
	})

	t.Run("marshaling error", func(t *testing.T) {
		v := Value(2i)
		_, err := json.Marshal(v)
		assert.Error(t, err)
	})
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	t.Run("not null", func(t *testing.T) {
		var v Optional[string]
		err := json.Unmarshal([]byte(`"foo"`), &v)
		require.NoError(t, err)
		want := Value("foo")
		assert.Equal(t, want, v)
	})

	t.Run("null", func(t *testing.T) {
		var v Optional[string]
		err := json.Unmarshal([]byte(`null`), &v)
		require.NoError(t, err)
		want := None[string]()
		assert.Equal(t, want, v)
	})

	t.Run("unmarshaling error", func(t *testing.T) {
		var v Optional[string]
		err := json.Unmarshal([]byte(`hey`), &v)
		assert.Error(t, err)
	})
}

func TestOptional_ValueOrFallback(t *testing.T) {
	t.Run("value present", func(t *testing.T) {
		v := Value("foo")
		got := v.ValueOrFallback("bar")
		assert.Equal(t, "foo", got)
	})

	t.Run("value not present", func(t *testing.T) {
		v := None[string]()
		got := v.ValueOrFallback("bar")
		assert.Equal(t, "bar", got)
	})
}

func TestOptional_ValueOrFallbackFunc(t *testing.T) {
	t.Run("value present", func(t *testing.T) {
		v := Value("foo")
		got := v.ValueOrFallbackFunc(func() string { return "bar" })
		assert.Equal(t, "foo", got)
	})
	t.Run("value not present", func(t *testing.T) {
		v := None[string]()
		got := v.ValueOrFallbackFunc(func() string { return "bar" })
		assert.Equal(t, "bar", got)
	})
}

func TestOptional_UnmarshalYAML(t *testing.T) {
	type llmSection struct {
		BaseURL Optional[string] `yaml:"base_url"`
		Timeout Optional[int]    `yaml:"timeout"`
	}

	t.Run("present", func(t *testing.T) {
		var s llmSection
		err := yaml.Unmarshal([]byte("base_url: http://localhost:11434/v1\ntimeout: 30\n"), &s)
		require.NoError(t, err)
		assert.Equal(t, Value("http://localhost:11434/v1"), s.BaseURL)
		assert.Equal(t, Value(30), s.Timeout)
	})

	t.Run("null and missing", func(t *testing.T) {
		var s llmSection
		err := yaml.Unmarshal([]byte("base_url: ~\n"), &s)
		require.NoError(t, err)
		assert.Equal(t, None[string](), s.BaseURL)
		assert.Equal(t, None[int](), s.Timeout)
	})

	t.Run("type mismatch", func(t *testing.T) {
		var s llmSection
		err := yaml.Unmarshal([]byte("timeout: soon\n"), &s)
		assert.Error(t, err)
	})
}

func TestFromNonZero(t *testing.T) {
	assert.Equal(t, None[string](), FromNonZero(""))
	assert.Equal(t, Value("gpt-4o-mini"), FromNonZero("gpt-4o-mini"))
}

func TestToParamOptOmitted(t *testing.T) {
	assert.False(t, ToParamOptOmitted(None[string]()).Valid())
	opt := ToParamOptOmitted(Value("x"))
	assert.True(t, opt.Valid())
	assert.Equal(t, "x", opt.Value)
}
