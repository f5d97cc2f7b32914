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

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// StageRecord is the persisted outcome of one pipeline stage.
type StageRecord struct {
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Agent     string    `json:"agent"`
	Output    string    `json:"output"`
	Failed    bool      `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
}

// A Session stores the stage records of a single analysis run, so that
// results stay available after the run finishes.
type Session interface {
	SessionID(context.Context) string

	// GetItems retrieves the stage records for this session.
	//
	// `limit` is the maximum number of records to retrieve. If <= 0, retrieves all records.
	// When specified, returns the latest N records in chronological order.
	GetItems(ctx context.Context, limit int) ([]StageRecord, error)

	// AddItems appends new records to the session.
	AddItems(ctx context.Context, items []StageRecord) error

	// ClearSession removes all records for this session.
	ClearSession(context.Context) error

	// Close releases the resources held by the session.
	Close(context.Context) error
}

// SessionFactory opens the Session of a run.
type SessionFactory func(ctx context.Context, runID string) (Session, error)

func marshalRecord(r StageRecord) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("error JSON marshaling record: %w", err)
	}
	return string(b), nil
}

func unmarshalRecord(data string) (StageRecord, error) {
	var r StageRecord
	err := json.Unmarshal([]byte(data), &r)
	return r, err
}
