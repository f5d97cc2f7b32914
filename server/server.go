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

// Package server exposes the analysis pipeline over HTTP.
//
// POST /analyze runs the pipeline synchronously and answers with the report.
// POST /runs starts a background run whose status can be polled at
// GET /runs/{id} and whose events stream over a websocket at
// GET /runs/{id}/events.
package server

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/nlpodyssey/financial-document-analyzer/asynctask"
	"github.com/nlpodyssey/financial-document-analyzer/memory"
	"github.com/nlpodyssey/financial-document-analyzer/pipeline"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
)

const (
	defaultMaxUploadBytes = 32 << 20
	defaultRequestTimeout = 10 * time.Minute
	defaultUploadDir      = "data"
	defaultOutputDir      = "outputs"
	defaultRunRetention   = time.Hour
	evictTimeout          = 30 * time.Second
)

// Analyzer runs one analysis. *pipeline.Pipeline implements it.
type Analyzer interface {
	Run(ctx context.Context, req pipeline.RunRequest) (*pipeline.Report, error)
}

type Options struct {
	Analyzer Analyzer

	// Optional live event source for GET /runs/{id}/events. It must be the
	// publisher (or part of the publisher) the Analyzer reports to.
	Events *pipeline.QueuePublisher

	// Run status store shared with the Analyzer. Defaults to an in-memory
	// store, which then only knows about runs accepted by this server.
	States pipeline.RunStateStore

	// Optional source of stored stage records for GET /runs/{id}.
	Sessions memory.SessionFactory

	UploadDir      string
	OutputDir      string
	MaxUploadBytes int64
	RequestTimeout time.Duration

	// How long a finished run is kept. Afterwards its events, its state and
	// its stage records are dropped. Defaults to one hour.
	RunRetention time.Duration

	Logger *slog.Logger
}

type Server struct {
	analyzer       Analyzer
	events         *pipeline.QueuePublisher
	states         pipeline.RunStateStore
	sessions       memory.SessionFactory
	uploadDir      string
	outputDir      string
	maxUploadBytes int64
	requestTimeout time.Duration
	runRetention   time.Duration
	logger         *slog.Logger
	upgrader       websocket.Upgrader

	// Background runs are bound to baseCtx, not to the request that
	// started them.
	baseCtx context.Context
	cancel  context.CancelFunc

	mu        sync.Mutex
	tasks     map[string]*asynctask.TaskNoValue
	evictions map[string]*time.Timer
}

func New(opts Options) *Server {
	s := &Server{
		analyzer:       opts.Analyzer,
		events:         opts.Events,
		states:         opts.States,
		sessions:       opts.Sessions,
		uploadDir:      opts.UploadDir,
		outputDir:      opts.OutputDir,
		maxUploadBytes: opts.MaxUploadBytes,
		requestTimeout: opts.RequestTimeout,
		runRetention:   opts.RunRetention,
		logger:         logging.OrDefault(opts.Logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		tasks:     make(map[string]*asynctask.TaskNoValue),
		evictions: make(map[string]*time.Timer),
	}
	if s.states == nil {
		s.states = pipeline.NewInMemoryRunStateStore()
	}
	if s.uploadDir == "" {
		s.uploadDir = defaultUploadDir
	}
	if s.outputDir == "" {
		s.outputDir = defaultOutputDir
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = defaultMaxUploadBytes
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = defaultRequestTimeout
	}
	if s.runRetention <= 0 {
		s.runRetention = defaultRunRetention
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// The event stream lives as long as the run, so it is kept out of the
	// request timeout.
	r.Get("/runs/{id}/events", s.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.requestTimeout))

		r.Get("/", s.handleRoot)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/runs", s.handleStartRun)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down the HTTP
// server and cancels the background runs.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancel()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if e := s.Shutdown(shutdownCtx); e != nil {
		err = errors.Join(err, e)
	}
	if e := <-errCh; e != nil && !errors.Is(e, http.ErrServerClosed) {
		err = errors.Join(err, e)
	}
	return err
}

// Shutdown cancels the background runs and waits for them to return.
// Pending evictions are dropped along with the in-memory data they target.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	tasks := slices.Collect(maps.Values(s.tasks))
	for id, timer := range s.evictions {
		timer.Stop()
		delete(s.evictions, id)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		if _, err := t.AwaitContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

// startRun runs req in the background. cleanup runs once the run returns.
func (s *Server) startRun(req pipeline.RunRequest, cleanup func()) {
	logger := s.logger.With(slog.String("run_id", req.RunID))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[req.RunID] = asynctask.CreateTaskNoValue(s.baseCtx, func(ctx context.Context) error {
		defer func() {
			cleanup()
			s.mu.Lock()
			delete(s.tasks, req.RunID)
			s.mu.Unlock()
			s.retire(req.RunID)
		}()

		report, err := s.analyzer.Run(ctx, req)
		if err != nil {
			logger.Warn("background run failed", slog.String("error", err.Error()))
			return err
		}
		path, err := pipeline.WriteReportFile(s.outputDir, report)
		if err != nil {
			logger.Error("writing report file failed", slog.String("error", err.Error()))
			return err
		}
		logger.Info("background run completed", slog.String("output_file", path))
		return nil
	})
}

// retire schedules the eviction of a finished run.
func (s *Server) retire(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.baseCtx.Err() != nil {
		return
	}
	if timer, ok := s.evictions[runID]; ok {
		timer.Stop()
	}
	s.evictions[runID] = time.AfterFunc(s.runRetention, func() { s.evict(runID) })
}

// evict drops everything kept about runID.
func (s *Server) evict(runID string) {
	s.mu.Lock()
	delete(s.evictions, runID)
	s.mu.Unlock()

	logger := s.logger.With(slog.String("run_id", runID))
	ctx, cancel := context.WithTimeout(context.Background(), evictTimeout)
	defer cancel()

	if s.events != nil {
		s.events.Forget(runID)
	}
	if s.sessions != nil {
		if err := s.clearRecords(ctx, runID); err != nil {
			logger.Warn("clearing stage records failed", slog.String("error", err.Error()))
		}
	}
	// Last, so that a run answering 404 has nothing else left.
	if err := s.states.Clear(ctx, runID); err != nil {
		logger.Warn("clearing run state failed", slog.String("error", err.Error()))
	}
	logger.Debug("run evicted")
}

func (s *Server) clearRecords(ctx context.Context, runID string) (err error) {
	session, err := s.sessions(ctx, runID)
	if err != nil {
		return err
	}
	defer func() {
		if e := session.Close(ctx); e != nil {
			err = errors.Join(err, e)
		}
	}()
	return session.ClearSession(ctx)
}
