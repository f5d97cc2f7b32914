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
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// A Parser turns a PDF file into raw per-page text.
type Parser interface {
	// Name identifies the parser in logs and errors.
	Name() string

	// ParsePages returns the raw text of every page, in page order.
	// Pages without extractable text are returned as empty strings so that
	// page numbering is preserved.
	ParsePages(ctx context.Context, path string) ([]string, error)
}

// PlainTextParser extracts page text with github.com/ledongthuc/pdf.
type PlainTextParser struct{}

func (PlainTextParser) Name() string { return "plaintext" }

func (p PlainTextParser) ParsePages(ctx context.Context, path string) (pages []string, err error) {
	// The underlying reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("panic during PDF extraction: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	total := r.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
