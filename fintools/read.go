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

package fintools

import (
	"context"
	"encoding/json"

	"github.com/nlpodyssey/financial-document-analyzer/extract"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
)

const ReadToolName = "read_financial_document"

// ReadDocumentTool reads the text of a PDF through an extract.Extractor.
// Every call parses the file again.
type ReadDocumentTool struct {
	Extractor *extract.Extractor
}

func NewReadDocumentTool(e *extract.Extractor) *ReadDocumentTool {
	if e == nil {
		e = extract.New()
	}
	return &ReadDocumentTool{Extractor: e}
}

func (t *ReadDocumentTool) ToolName() string { return ReadToolName }

func (t *ReadDocumentTool) Description() string {
	return "Read plain text from a PDF financial document, with page separators."
}

func (t *ReadDocumentTool) ProvidesDocument() bool { return true }

// Run reads in.FilePath. Its successful output replaces the stage's
// document text.
func (t *ReadDocumentTool) Run(ctx context.Context, in tools.Input) tools.Result {
	return t.Read(ctx, in.FilePath)
}

// Read returns the joined page text of the document at path.
func (t *ReadDocumentTool) Read(ctx context.Context, path string) tools.Result {
	text, err := t.Extractor.ExtractText(ctx, path)
	if err != nil {
		return tools.FailureFromError(err)
	}
	return tools.Success(text)
}

// ReadPages returns the pages of the document at path rendered as a JSON
// array of {page_number, text, num_chars} objects.
func (t *ReadDocumentTool) ReadPages(ctx context.Context, path string) tools.Result {
	pages, err := t.Extractor.ExtractPages(ctx, path)
	if err != nil {
		return tools.FailureFromError(err)
	}
	b, err := json.Marshal(pages)
	if err != nil {
		return tools.Failuref("failed to encode pages: %v", err)
	}
	return tools.Success(string(b))
}

type readArgs struct {
	Path    *string `json:"path" jsonschema:"description=Local path to the PDF file"`
	AsPages bool    `json:"as_pages,omitempty" jsonschema:"description=Return a JSON list of pages instead of a single string"`
}

func (t *ReadDocumentTool) Function() tools.Function {
	return tools.NewFunctionTool(ReadToolName, t.Description(),
		func(ctx context.Context, args readArgs) tools.Result {
			if args.Path == nil || *args.Path == "" {
				return tools.Failure("path must be a non-empty string.")
			}
			if args.AsPages {
				return t.ReadPages(ctx, *args.Path)
			}
			return t.Read(ctx, *args.Path)
		})
}
