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

// Package fintools holds the financial tools available to the pipeline
// roles: document reading, investment analysis, risk assessment and market
// search.
package fintools

import (
	"strings"
	"unicode/utf8"
)

// RemovePairSpaces deletes the first space of every adjacent space pair,
// rescanning from the same position, so any run of spaces shrinks to one.
// Tabs and newlines are left alone.
func RemovePairSpaces(s string) string {
	if !strings.Contains(s, "  ") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' && i+1 < len(s) && s[i+1] == ' ' {
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// PrepareExcerpt cleans document text the way the analysis tools feed it to
// the model: pair spaces removed, CRLF folded, trimmed, then cut to budget
// runes.
func PrepareExcerpt(text string, budget int) string {
	text = RemovePairSpaces(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	return Truncate(text, budget)
}
