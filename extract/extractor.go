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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
)

// Extractor reads PDF documents through an ordered chain of parsers.
//
// Parsers are tried in order; the first one that returns at least one page
// wins and its output is used as-is. Results are never cached: every call
// re-reads the file from disk.
type Extractor struct {
	Parsers []Parser

	// Optional logger. Defaults to logging.Logger().
	Logger *slog.Logger
}

// New returns an Extractor using PlainTextParser as the primary parser and
// ContentStreamParser as the fallback.
func New() *Extractor {
	return &Extractor{
		Parsers: []Parser{PlainTextParser{}, ContentStreamParser{}},
	}
}

func (e *Extractor) WithParsers(parsers ...Parser) *Extractor {
	e.Parsers = parsers
	return e
}

func (e *Extractor) WithLogger(l *slog.Logger) *Extractor {
	e.Logger = l
	return e
}

// ExtractPages returns the normalized pages of the document at path.
func (e *Extractor) ExtractPages(ctx context.Context, path string) ([]Page, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewNotFoundError(path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	logger := logging.OrDefault(e.Logger)
	if len(e.Parsers) == 0 {
		return nil, ParseErrorf(path, "no PDF parser available")
	}

	var errs []error
	for i, p := range e.Parsers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			logger.Info("falling back to next PDF parser", slog.String("parser", p.Name()), slog.String("path", path))
		}

		raw, err := p.ParsePages(ctx, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("PDF parser failed", slog.String("parser", p.Name()), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if len(raw) == 0 {
			logger.Warn("PDF parser produced no pages", slog.String("parser", p.Name()))
			errs = append(errs, fmt.Errorf("%s: no pages", p.Name()))
			continue
		}

		pages := make([]Page, len(raw))
		for n, text := range raw {
			pages[n] = NewPage(n+1, text)
		}
		logger.Debug("PDF extracted", slog.String("parser", p.Name()), slog.Int("pages", len(pages)))
		return pages, nil
	}

	return nil, ParseError{Path: path, Err: errors.Join(errs...)}
}

// ExtractText returns the document at path as a single string, with each
// page preceded by its "--- PAGE n ---" separator line.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	pages, err := e.ExtractPages(ctx, path)
	if err != nil {
		return "", err
	}
	return JoinPages(pages), nil
}
