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

package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Page is the normalized text of a single PDF page.
type Page struct {
	// 1-based page number, strictly increasing within a document.
	PageNumber int `json:"page_number"`

	// Normalized page text.
	Text string `json:"text"`

	// Number of characters (runes) in Text.
	NumChars int `json:"num_chars"`
}

func NewPage(pageNumber int, rawText string) Page {
	text := NormalizeWhitespace(rawText)
	return Page{
		PageNumber: pageNumber,
		Text:       text,
		NumChars:   utf8.RuneCountInString(text),
	}
}

// PageSeparator returns the marker line written before the text of page n.
func PageSeparator(n int) string {
	return fmt.Sprintf("--- PAGE %d ---", n)
}

// JoinPages renders pages as a single string: each page is preceded by
// its separator line, and pages are divided by a blank line.
func JoinPages(pages []Page) string {
	var sb strings.Builder
	for i, p := range pages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(PageSeparator(p.PageNumber))
		sb.WriteByte('\n')
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// Stats summarizes an extraction.
type Stats struct {
	Pages      int `json:"pages"`
	TotalChars int `json:"total_chars"`
	EmptyPages int `json:"empty_pages"`
}

func ComputeStats(pages []Page) Stats {
	s := Stats{Pages: len(pages)}
	for _, p := range pages {
		s.TotalChars += p.NumChars
		if p.NumChars == 0 {
			s.EmptyPages++
		}
	}
	return s
}
