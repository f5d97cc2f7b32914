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

// Package pipeline runs a financial document through the verify, analyze,
// advise and assess-risk stages and assembles the final report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nlpodyssey/financial-document-analyzer/agents"
	"github.com/nlpodyssey/financial-document-analyzer/extract"
	"github.com/nlpodyssey/financial-document-analyzer/fintools"
	"github.com/nlpodyssey/financial-document-analyzer/llm"
	"github.com/nlpodyssey/financial-document-analyzer/memory"
	"github.com/nlpodyssey/financial-document-analyzer/modelsettings"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/nlpodyssey/financial-document-analyzer/usage"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
)

// DefaultQuery replaces an empty query.
const DefaultQuery = "Analyze this financial document for investment insights"

// DocumentExtractor turns a PDF path into normalized pages.
// *extract.Extractor implements it.
type DocumentExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]extract.Page, error)
}

type RunRequest struct {
	// Optional; a random UUID is assigned when empty.
	RunID    string
	Query    string
	FilePath string
}

func (r RunRequest) normalized() RunRequest {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		r.Query = DefaultQuery
	}
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	return r
}

// Pipeline sequences the stages of an analysis run. Stages run strictly in
// order and each one sees the literal outputs of the stages before it.
type Pipeline struct {
	Extractor DocumentExtractor
	Runner    agents.Runner
	Plan      []StagePlan

	// Optional persistence of stage records.
	Sessions memory.SessionFactory

	// Optional event sink. Publish errors are logged and ignored.
	Publisher CallbackPublisher

	// Optional run status store.
	States RunStateStore

	// Optional; defaults to logging.Logger().
	Logger *slog.Logger
}

type Options struct {
	Backend llm.Backend

	// Model used by the analysis and risk tools.
	ToolModel string

	// Model used by the stage agents for synthesis.
	AgentModel string

	// Optional overrides of the stage agents' model settings.
	AgentSettings modelsettings.ModelSettings

	// Optional market search; the search tool is left out when nil.
	Searcher      fintools.Searcher
	SearchResults int

	// Optional; defaults to extract.New().
	Extractor *extract.Extractor

	Sessions  memory.SessionFactory
	Publisher CallbackPublisher
	States    RunStateStore
	Logger    *slog.Logger
}

// New wires the standard tools and roles around a single LLM backend.
func New(opts Options) *Pipeline {
	extractor := opts.Extractor
	if extractor == nil {
		extractor = extract.New()
	}
	if opts.Logger != nil {
		extractor = extractor.WithLogger(opts.Logger)
	}

	adapter := llm.NewAdapter(opts.Backend, opts.ToolModel)
	adapter.Logger = opts.Logger

	analysis := fintools.NewAnalysisTool(adapter, opts.ToolModel)
	analysis.Logger = opts.Logger
	risk := fintools.NewRiskTool(adapter, opts.ToolModel)
	risk.Logger = opts.Logger

	ts := Toolset{
		Read:     fintools.NewReadDocumentTool(extractor),
		Analysis: analysis,
		Risk:     risk,
	}
	if opts.Searcher != nil {
		ts.Search = fintools.NewSearchTool(opts.Searcher, opts.SearchResults)
	}

	plan := DefaultPlan(ts, opts.AgentModel)
	for _, sp := range plan {
		sp.Task.Agent.ModelSettings = sp.Task.Agent.ModelSettings.Resolve(opts.AgentSettings)
	}

	return &Pipeline{
		Extractor: extractor,
		Runner: agents.Runner{
			Backend:      opts.Backend,
			DefaultModel: opts.AgentModel,
			Logger:       opts.Logger,
		},
		Plan:      plan,
		Sessions:  opts.Sessions,
		Publisher: opts.Publisher,
		States:    opts.States,
		Logger:    opts.Logger,
	}
}

// Run executes the whole pipeline for one document. Extraction failures and
// stage errors (limits, synthesis failures, cancellation) abort the run;
// failed tools do not.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (_ *Report, err error) {
	req = req.normalized()
	logger := logging.OrDefault(p.Logger).With(slog.String("run_id", req.RunID))
	tracker := newRunStateTracker(p.States, req)

	acc := usage.NewUsage()
	ctx = usage.NewContext(ctx, acc)

	report := &Report{
		RunID:     req.RunID,
		Query:     req.Query,
		FilePath:  req.FilePath,
		StartedAt: time.Now().UTC(),
	}

	p.saveState(ctx, logger, tracker.save)
	p.publish(ctx, logger, req.RunID, EventRunStarted, nil, map[string]any{
		"query":     req.Query,
		"file_path": req.FilePath,
	})

	defer func() {
		if err == nil {
			return
		}
		logger.Error("run failed", slog.String("error", err.Error()))
		bg := context.WithoutCancel(ctx)
		p.saveState(bg, logger, func(ctx context.Context) error { return tracker.fail(ctx, err) })
		p.publish(bg, logger, req.RunID, EventRunFailed, map[string]any{"error": err.Error()}, nil)
	}()

	session := p.openSession(ctx, logger, req.RunID)
	if session != nil {
		defer func() {
			if e := session.Close(context.WithoutCancel(ctx)); e != nil {
				logger.Warn("closing session failed", slog.String("error", e.Error()))
			}
		}()
	}

	p.saveState(ctx, logger, tracker.advance)
	pages, err := p.Extractor.ExtractPages(ctx, req.FilePath)
	if err != nil {
		return nil, err
	}
	text := extract.JoinPages(pages)
	report.Pages = pages
	stats := extract.ComputeStats(pages)
	logger.Info("document extracted", slog.Int("pages", stats.Pages), slog.Int("chars", stats.TotalChars))
	p.publish(ctx, logger, req.RunID, EventDocumentExtracted, stats, nil)

	plans := make(map[Stage]StagePlan, len(p.Plan))
	for _, sp := range p.Plan {
		plans[sp.Stage] = sp
	}

	var upstream []agents.UpstreamOutput
	for p.saveState(ctx, logger, tracker.advance); !tracker.current().Terminal(); p.saveState(ctx, logger, tracker.advance) {
		stage, ok := tracker.current().Stage()
		if !ok {
			return nil, fmt.Errorf("state %s has no stage", tracker.current())
		}
		sp, ok := plans[stage]
		if !ok || sp.Task == nil {
			return nil, fmt.Errorf("no task planned for stage %s", stage)
		}

		sr, err := p.runStage(ctx, logger, req, sp, text, upstream, session)
		if err != nil {
			return nil, StageError{Stage: stage, Err: err}
		}
		report.Stages = append(report.Stages, *sr)
		upstream = append(upstream, agents.UpstreamOutput{
			Stage:  stage.Title(),
			Agent:  sr.Agent,
			Output: sr.Output,
		})

		if stage == StageVerify {
			report.Verification = ParseVerification(sr.Output)
			if report.Verification.Rejected() {
				logger.Warn("document not verified as a financial report, continuing")
			}
		}
	}

	report.Text = FormatReport(report.Stages)
	report.Usage = *acc
	report.CompletedAt = time.Now().UTC()

	p.saveState(ctx, logger, func(ctx context.Context) error { return tracker.complete(ctx, report) })
	p.publish(ctx, logger, req.RunID, EventRunCompleted, map[string]any{
		"stages":   len(report.Stages),
		"verified": report.Verification.Financial,
	}, nil)
	return report, nil
}

func (p *Pipeline) runStage(
	ctx context.Context,
	logger *slog.Logger,
	req RunRequest,
	sp StagePlan,
	text string,
	upstream []agents.UpstreamOutput,
	session memory.Session,
) (*StageReport, error) {
	startedAt := time.Now().UTC()
	meta := map[string]any{"stage": string(sp.Stage)}
	p.publish(ctx, logger, req.RunID, EventStageStarted, nil, meta)
	logger.Info("stage started", slog.String("stage", string(sp.Stage)))

	runner := p.Runner
	if runner.Logger == nil {
		runner.Logger = p.Logger
	}
	runner.Hooks = &eventHooks{
		inner:    runner.Hooks,
		pipeline: p,
		logger:   logger,
		runID:    req.RunID,
		stage:    sp.Stage,
	}

	res, err := runner.Run(ctx, sp.Task, agents.RunInput{
		Input: tools.Input{
			Query:        req.Query,
			FilePath:     req.FilePath,
			DocumentText: text,
		},
		Upstream: upstream,
	})

	agentName := ""
	if sp.Task.Agent != nil {
		agentName = sp.Task.Agent.Name
	}
	if err != nil {
		p.persist(ctx, logger, session, memory.StageRecord{
			RunID:     req.RunID,
			Stage:     string(sp.Stage),
			Agent:     agentName,
			Output:    err.Error(),
			Failed:    true,
			CreatedAt: time.Now().UTC(),
		})
		return nil, err
	}

	sr := &StageReport{
		Stage:       sp.Stage,
		Agent:       res.Agent,
		Output:      res.Output,
		ToolOutputs: res.ToolOutputs,
		Iterations:  res.Iterations,
		StartedAt:   startedAt,
		CompletedAt: time.Now().UTC(),
	}
	p.persist(ctx, logger, session, memory.StageRecord{
		RunID:     req.RunID,
		Stage:     string(sp.Stage),
		Agent:     res.Agent,
		Output:    res.Output,
		CreatedAt: sr.CompletedAt,
	})
	p.publish(ctx, logger, req.RunID, EventStageCompleted, map[string]any{
		"agent":      res.Agent,
		"output":     res.Output,
		"iterations": res.Iterations,
	}, meta)
	logger.Info("stage completed",
		slog.String("stage", string(sp.Stage)),
		slog.Int("iterations", res.Iterations),
		slog.Int("failed_tools", countFailed(res.ToolOutputs)))
	return sr, nil
}

func (p *Pipeline) openSession(ctx context.Context, logger *slog.Logger, runID string) memory.Session {
	if p.Sessions == nil {
		return nil
	}
	s, err := p.Sessions(ctx, runID)
	if err != nil {
		logger.Warn("opening session failed, stage records will not be stored", slog.String("error", err.Error()))
		return nil
	}
	return s
}

func (p *Pipeline) persist(ctx context.Context, logger *slog.Logger, session memory.Session, rec memory.StageRecord) {
	if session == nil {
		return
	}
	if err := session.AddItems(context.WithoutCancel(ctx), []memory.StageRecord{rec}); err != nil {
		logger.Warn("storing stage record failed", slog.String("stage", rec.Stage), slog.String("error", err.Error()))
	}
}

func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, runID, eventType string, payload any, metadata map[string]any) {
	if p.Publisher == nil {
		return
	}
	event := CallbackEvent{
		Type:      eventType,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
		Metadata:  metadata,
	}
	if err := p.Publisher.Publish(ctx, event); err != nil {
		logger.Warn("publishing event failed", slog.String("event", eventType), slog.String("error", err.Error()))
	}
}

func (p *Pipeline) saveState(ctx context.Context, logger *slog.Logger, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		logger.Warn("saving run state failed", slog.String("error", err.Error()))
	}
}

func countFailed(outputs []agents.ToolOutput) int {
	n := 0
	for _, o := range outputs {
		if o.Failed() {
			n++
		}
	}
	return n
}
