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

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nlpodyssey/financial-document-analyzer/asyncqueue"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
)

// Event types emitted during a run.
const (
	EventRunStarted        = "run.started"
	EventDocumentExtracted = "document.extracted"
	EventStageStarted      = "stage.started"
	EventToolCompleted     = "tool.completed"
	EventToolFailed        = "tool.failed"
	EventStageCompleted    = "stage.completed"
	EventRunCompleted      = "run.completed"
	EventRunFailed         = "run.failed"
)

// CallbackPublisher is notified of run lifecycle updates.
type CallbackPublisher interface {
	Publish(ctx context.Context, event CallbackEvent) error
}

// CallbackEvent describes an update emitted during a run.
type CallbackEvent struct {
	Type      string         `json:"type"`
	RunID     string         `json:"run_id"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   any            `json:"payload,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Terminal reports whether no further events follow this one.
func (e CallbackEvent) Terminal() bool {
	return e.Type == EventRunCompleted || e.Type == EventRunFailed
}

// HTTPCallbackPublisher POSTs events to a configured endpoint as JSON.
type HTTPCallbackPublisher struct {
	client *http.Client
	URL    string
}

// NewHTTPCallbackPublisher constructs an HTTP publisher with an optional custom client.
func NewHTTPCallbackPublisher(url string, client *http.Client) *HTTPCallbackPublisher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPCallbackPublisher{client: client, URL: url}
}

func (p *HTTPCallbackPublisher) Publish(ctx context.Context, event CallbackEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post callback: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %s", resp.Status)
	}
	return nil
}

// LogCallbackPublisher writes events to a structured logger.
type LogCallbackPublisher struct {
	Logger *slog.Logger
}

func (p LogCallbackPublisher) Publish(ctx context.Context, event CallbackEvent) error {
	level := slog.LevelInfo
	switch event.Type {
	case EventRunFailed, EventToolFailed:
		level = slog.LevelWarn
	case EventToolCompleted:
		level = slog.LevelDebug
	}
	attrs := []slog.Attr{slog.String("run_id", event.RunID)}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.Any(k, v))
	}
	logging.OrDefault(p.Logger).LogAttrs(ctx, level, event.Type, attrs...)
	return nil
}

// QueuePublisher fans events out to per-run subscriber queues. Events are
// buffered per run, so a subscriber that joins late first receives the
// history. Subscriber queues are closed after the terminal event.
type QueuePublisher struct {
	mu          sync.Mutex
	history     map[string][]CallbackEvent
	finished    map[string]bool
	subscribers map[string][]*asyncqueue.Queue[CallbackEvent]
}

func NewQueuePublisher() *QueuePublisher {
	return &QueuePublisher{
		history:     make(map[string][]CallbackEvent),
		finished:    make(map[string]bool),
		subscribers: make(map[string][]*asyncqueue.Queue[CallbackEvent]),
	}
}

func (p *QueuePublisher) Publish(_ context.Context, event CallbackEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished[event.RunID] {
		return nil
	}
	p.history[event.RunID] = append(p.history[event.RunID], event)
	for _, q := range p.subscribers[event.RunID] {
		q.Put(event)
	}
	if event.Terminal() {
		p.finished[event.RunID] = true
		for _, q := range p.subscribers[event.RunID] {
			q.Close()
		}
		delete(p.subscribers, event.RunID)
	}
	return nil
}

// Subscribe returns a queue receiving the events of runID, starting with
// those already published. The returned function detaches the queue.
func (p *QueuePublisher) Subscribe(runID string) (*asyncqueue.Queue[CallbackEvent], func()) {
	q := asyncqueue.New[CallbackEvent]()

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, event := range p.history[runID] {
		q.Put(event)
	}
	if p.finished[runID] {
		q.Close()
		return q, func() {}
	}
	p.subscribers[runID] = append(p.subscribers[runID], q)

	return q, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		subs := p.subscribers[runID]
		for i, s := range subs {
			if s == q {
				p.subscribers[runID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		q.Close()
	}
}

// Forget drops the buffered history of runID and closes any queue still
// subscribed to it.
func (p *QueuePublisher) Forget(runID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, q := range p.subscribers[runID] {
		q.Close()
	}
	delete(p.subscribers, runID)
	delete(p.history, runID)
	delete(p.finished, runID)
}

// MultiPublisher publishes each event to every publisher in order.
type MultiPublisher []CallbackPublisher

func (m MultiPublisher) Publish(ctx context.Context, event CallbackEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
