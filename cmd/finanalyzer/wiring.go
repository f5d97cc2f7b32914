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
	"errors"
	"fmt"
	"log/slog"

	"github.com/nlpodyssey/financial-document-analyzer/config"
	"github.com/nlpodyssey/financial-document-analyzer/extract"
	"github.com/nlpodyssey/financial-document-analyzer/fintools"
	"github.com/nlpodyssey/financial-document-analyzer/llm"
	"github.com/nlpodyssey/financial-document-analyzer/memory"
	"github.com/nlpodyssey/financial-document-analyzer/modelsettings"
	"github.com/nlpodyssey/financial-document-analyzer/pipeline"
	"github.com/nlpodyssey/financial-document-analyzer/tools"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
	"github.com/openai/openai-go/v2/packages/param"
)

// closers runs cleanup functions in reverse order.
type closers []func() error

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newBackend(cfg *config.Config) (llm.Backend, error) {
	return llm.NewBackend(cfg.LLM.Provider, cfg.LLM.BaseURL)
}

// newSearcher returns nil when market search is disabled.
func newSearcher(cfg *config.Config, logger *slog.Logger) fintools.Searcher {
	if cfg.Search.Provider == "none" {
		return nil
	}
	opts := []fintools.SearchClientOption{
		fintools.WithRateLimit(cfg.Search.RequestsPerSecond),
		fintools.WithSearchLogger(logger),
	}
	if cfg.Search.Endpoint != "" {
		opts = append(opts, fintools.WithEndpoint(cfg.Search.Endpoint))
	}
	return fintools.NewSearchClient(opts...)
}

// newSessions returns a nil factory when run memory is disabled.
func newSessions(ctx context.Context, cfg *config.Config) (memory.SessionFactory, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Memory.Driver {
	case "sqlite":
		factory, closeDB, err := memory.NewSQLiteSessionFactory(ctx, memory.SQLiteSessionParams{
			DBDataSourceName: cfg.Memory.SQLiteDSN,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open run memory: %w", err)
		}
		return factory, closeDB, nil
	case "postgres":
		return memory.NewPgSessionFactory(memory.PgSessionParams{
			ConnectionString: cfg.Memory.PostgresURL,
		}), noop, nil
	default:
		return nil, noop, nil
	}
}

// newPublisher combines the log publisher, the optional webhook and extra.
func newPublisher(cfg *config.Config, logger *slog.Logger, extra ...pipeline.CallbackPublisher) pipeline.CallbackPublisher {
	pubs := pipeline.MultiPublisher{pipeline.LogCallbackPublisher{Logger: logger}}
	if cfg.Events.WebhookURL != "" {
		pubs = append(pubs, pipeline.NewHTTPCallbackPublisher(cfg.Events.WebhookURL, nil))
	}
	return append(pubs, extra...)
}

type pipelineDeps struct {
	publisher pipeline.CallbackPublisher
	states    pipeline.RunStateStore
}

func newPipeline(ctx context.Context, cfg *config.Config, deps pipelineDeps) (*pipeline.Pipeline, closers, error) {
	logger := logging.Logger()

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	sessions, closeSessions, err := newSessions(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.New(pipeline.Options{
		Backend:    backend,
		ToolModel:  cfg.LLM.ToolModel,
		AgentModel: cfg.LLM.EffectiveAgentModel(),
		AgentSettings: modelsettings.ModelSettings{
			Temperature: param.NewOpt(cfg.LLM.AgentTemperature),
		},
		Searcher:      newSearcher(cfg, logger),
		SearchResults: cfg.Search.Results,
		Extractor:     extract.New().WithLogger(logger),
		Sessions:      sessions,
		Publisher:     deps.publisher,
		States:        deps.states,
		Logger:        logger,
	})
	return p, closers{closeSessions}, nil
}

// newFunctions builds the JSON function tools served over MCP.
func newFunctions(cfg *config.Config) ([]tools.Function, error) {
	logger := logging.Logger()

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	adapter := llm.NewAdapter(backend, cfg.LLM.ToolModel)
	adapter.Logger = logger

	analysis := fintools.NewAnalysisTool(adapter, cfg.LLM.ToolModel)
	analysis.Logger = logger
	risk := fintools.NewRiskTool(adapter, cfg.LLM.ToolModel)
	risk.Logger = logger

	fns := []tools.Function{
		fintools.NewReadDocumentTool(extract.New().WithLogger(logger)).Function(),
		analysis.Function(),
		risk.Function(),
	}
	if searcher := newSearcher(cfg, logger); searcher != nil {
		fns = append(fns, fintools.NewSearchTool(searcher, cfg.Search.Results).Function())
	}
	return fns, nil
}
