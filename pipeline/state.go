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
	"context"
	"errors"
	"sync"
	"time"
)

// Stage identifies one step of the analysis pipeline.
type Stage string

const (
	StageVerify     Stage = "verify"
	StageAnalyze    Stage = "analyze"
	StageAdvise     Stage = "advise"
	StageAssessRisk Stage = "assess_risk"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageVerify, StageAnalyze, StageAdvise, StageAssessRisk}

// Title is the section header used for the stage in a report.
func (s Stage) Title() string {
	switch s {
	case StageVerify:
		return "DOCUMENT VERIFICATION"
	case StageAnalyze:
		return "FINANCIAL ANALYSIS"
	case StageAdvise:
		return "INVESTMENT ADVICE"
	case StageAssessRisk:
		return "RISK ASSESSMENT"
	default:
		return string(s)
	}
}

// State is the position of a run in the pipeline.
type State string

const (
	StatePending       State = "pending"
	StateExtracting    State = "extracting"
	StateVerifying     State = "verifying"
	StateAnalyzing     State = "analyzing"
	StateAdvising      State = "advising"
	StateAssessingRisk State = "assessing_risk"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

var stateOrder = []State{
	StatePending,
	StateExtracting,
	StateVerifying,
	StateAnalyzing,
	StateAdvising,
	StateAssessingRisk,
	StateCompleted,
}

// Next returns the state that follows s. Terminal states map to themselves.
func (s State) Next() State {
	for i, st := range stateOrder[:len(stateOrder)-1] {
		if st == s {
			return stateOrder[i+1]
		}
	}
	return s
}

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Stage returns the pipeline stage executed while in state s.
func (s State) Stage() (Stage, bool) {
	switch s {
	case StateVerifying:
		return StageVerify, true
	case StateAnalyzing:
		return StageAnalyze, true
	case StateAdvising:
		return StageAdvise, true
	case StateAssessingRisk:
		return StageAssessRisk, true
	default:
		return "", false
	}
}

// RunState is a snapshot of a run, as exposed to status queries.
type RunState struct {
	RunID     string    `json:"run_id"`
	Query     string    `json:"query"`
	FilePath  string    `json:"file_path"`
	State     State     `json:"state"`
	LastError string    `json:"last_error,omitempty"`
	Report    *Report   `json:"report,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RunStateStore interface {
	Save(ctx context.Context, state RunState) error
	Load(ctx context.Context, runID string) (RunState, bool, error)
	Clear(ctx context.Context, runID string) error
}

type InMemoryRunStateStore struct {
	mu   sync.RWMutex
	data map[string]RunState
}

func NewInMemoryRunStateStore() *InMemoryRunStateStore {
	return &InMemoryRunStateStore{data: make(map[string]RunState)}
}

func (s *InMemoryRunStateStore) Save(_ context.Context, state RunState) error {
	if state.RunID == "" {
		return errors.New("missing run id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[state.RunID] = state
	return nil
}

func (s *InMemoryRunStateStore) Load(_ context.Context, runID string) (RunState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.data[runID]
	return state, ok, nil
}

func (s *InMemoryRunStateStore) Clear(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// runStateTracker drives the state machine of a single run and mirrors
// every transition into the store.
type runStateTracker struct {
	store RunStateStore
	state RunState
}

func newRunStateTracker(store RunStateStore, req RunRequest) *runStateTracker {
	return &runStateTracker{
		store: store,
		state: RunState{
			RunID:    req.RunID,
			Query:    req.Query,
			FilePath: req.FilePath,
			State:    StatePending,
		},
	}
}

func (t *runStateTracker) current() State {
	return t.state.State
}

func (t *runStateTracker) advance(ctx context.Context) error {
	t.state.State = t.state.State.Next()
	return t.save(ctx)
}

func (t *runStateTracker) complete(ctx context.Context, report *Report) error {
	for !t.state.State.Terminal() {
		t.state.State = t.state.State.Next()
	}
	t.state.Report = report
	t.state.LastError = ""
	return t.save(ctx)
}

func (t *runStateTracker) fail(ctx context.Context, err error) error {
	t.state.State = StateFailed
	if err != nil {
		t.state.LastError = err.Error()
	}
	return t.save(ctx)
}

func (t *runStateTracker) save(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	t.state.UpdatedAt = time.Now().UTC()
	return t.store.Save(ctx, t.state)
}
