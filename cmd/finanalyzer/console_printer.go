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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/nlpodyssey/financial-document-analyzer/extract"
	"github.com/nlpodyssey/financial-document-analyzer/pipeline"
)

var (
	stageColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
)

// consolePrinter renders run events on a terminal. It is a
// pipeline.CallbackPublisher.
type consolePrinter struct {
	mu          sync.Mutex
	out         io.Writer
	verbose     bool
	spinner     *spinner.Spinner
	startTime   time.Time
	stages      int
	tools       map[string]struct{}
	failedTools int
}

func newConsolePrinter(out io.Writer, verbose, showSpinner bool) *consolePrinter {
	p := &consolePrinter{
		out:     out,
		verbose: verbose,
		tools:   make(map[string]struct{}),
	}
	if showSpinner {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Writer = os.Stderr
		p.spinner = s
	}
	return p
}

func (p *consolePrinter) Publish(_ context.Context, event pipeline.CallbackEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pauseSpinner()
	defer p.resumeSpinner(event)

	switch event.Type {
	case pipeline.EventRunStarted:
		p.startTime = event.Timestamp
		fmt.Fprintf(p.out, "query: %s\n", shorten(metaString(event.Metadata, "query"), 240))
		fmt.Fprintf(p.out, "document: %s\n", metaString(event.Metadata, "file_path"))
	case pipeline.EventDocumentExtracted:
		if stats, ok := event.Payload.(extract.Stats); ok {
			dimColor.Fprintf(p.out, "extracted %d pages, %d characters\n", stats.Pages, stats.TotalChars)
		}
	case pipeline.EventStageStarted:
		stageColor.Fprintf(p.out, "> %s\n", stageTitle(event.Metadata))
	case pipeline.EventToolCompleted:
		tool := metaString(event.Metadata, "tool")
		p.tools[tool] = struct{}{}
		if p.verbose {
			dimColor.Fprintf(p.out, "  tool %s ok (%v chars)\n", tool, payloadValue(event.Payload, "chars"))
		}
	case pipeline.EventToolFailed:
		tool := metaString(event.Metadata, "tool")
		p.tools[tool] = struct{}{}
		p.failedTools++
		warnColor.Fprintf(p.out, "  tool %s unavailable: %v\n", tool, payloadValue(event.Payload, "error"))
	case pipeline.EventStageCompleted:
		p.stages++
		successColor.Fprintf(p.out, "  done by %v in %v iteration(s)\n",
			payloadValue(event.Payload, "agent"), payloadValue(event.Payload, "iterations"))
		if p.verbose {
			output, _ := payloadValue(event.Payload, "output").(string)
			fmt.Fprintf(p.out, "  %s\n", shorten(output, 400))
		}
	case pipeline.EventRunCompleted:
		p.printSummary(event)
	case pipeline.EventRunFailed:
		fmt.Fprintln(p.out, "---")
		failColor.Fprintf(p.out, "Run failed after %s: %v\n",
			p.elapsed(event), payloadValue(event.Payload, "error"))
	}
	return nil
}

func (p *consolePrinter) printSummary(event pipeline.CallbackEvent) {
	fmt.Fprintln(p.out, "---")
	fmt.Fprintln(p.out, "Run summary")
	fmt.Fprintf(p.out, "  stages: %d\n", p.stages)
	fmt.Fprintf(p.out, "  runtime: %s\n", p.elapsed(event))
	if verified, ok := payloadValue(event.Payload, "verified").(*bool); ok && verified != nil {
		fmt.Fprintf(p.out, "  financial document: %t\n", *verified)
	}
	if len(p.tools) > 0 {
		names := make([]string, 0, len(p.tools))
		for name := range p.tools {
			names = append(names, name)
		}
		slices.Sort(names)
		fmt.Fprintf(p.out, "  tools: %s\n", strings.Join(names, ", "))
	}
	if p.failedTools > 0 {
		warnColor.Fprintf(p.out, "  failed tool calls: %d\n", p.failedTools)
	}
}

func (p *consolePrinter) success(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	successColor.Fprintf(p.out, format+"\n", a...)
}

func (p *consolePrinter) elapsed(event pipeline.CallbackEvent) time.Duration {
	if p.startTime.IsZero() {
		return 0
	}
	return event.Timestamp.Sub(p.startTime).Truncate(time.Millisecond)
}

func (p *consolePrinter) pauseSpinner() {
	if p.spinner != nil {
		p.spinner.Stop()
	}
}

// resumeSpinner restarts the spinner while a stage is in progress.
func (p *consolePrinter) resumeSpinner(event pipeline.CallbackEvent) {
	if p.spinner == nil || event.Terminal() {
		return
	}
	switch event.Type {
	case pipeline.EventRunStarted:
		p.spinner.Suffix = " extracting document..."
	case pipeline.EventStageStarted:
		p.spinner.Suffix = " " + strings.ToLower(stageTitle(event.Metadata)) + "..."
	case pipeline.EventStageCompleted:
		p.spinner.Suffix = " waiting..."
	}
	p.spinner.Start()
}

func stageTitle(meta map[string]any) string {
	return pipeline.Stage(metaString(meta, "stage")).Title()
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

func payloadValue(payload any, key string) any {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func shorten(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max]) + "…"
}
