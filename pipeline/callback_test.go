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
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCallbackPublisher(t *testing.T) {
	var got CallbackEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	pub := NewHTTPCallbackPublisher(srv.URL, nil)
	err := pub.Publish(t.Context(), CallbackEvent{
		Type:      EventStageCompleted,
		RunID:     "run-1",
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Metadata:  map[string]any{"stage": "analyze"},
	})
	require.NoError(t, err)
	assert.Equal(t, EventStageCompleted, got.Type)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "analyze", got.Metadata["stage"])
}

func TestHTTPCallbackPublisher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPCallbackPublisher(srv.URL, srv.Client()).Publish(t.Context(), CallbackEvent{Type: EventRunStarted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestLogCallbackPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	pub := LogCallbackPublisher{Logger: logger}
	require.NoError(t, pub.Publish(t.Context(), CallbackEvent{
		Type:     EventToolFailed,
		RunID:    "run-1",
		Metadata: map[string]any{"tool": "market_search"},
	}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, EventToolFailed, line["msg"])
	assert.Equal(t, "run-1", line["run_id"])
	assert.Equal(t, "market_search", line["tool"])
}

func TestQueuePublisher(t *testing.T) {
	ctx := t.Context()
	pub := NewQueuePublisher()

	early, stopEarly := pub.Subscribe("r")
	defer stopEarly()
	other, stopOther := pub.Subscribe("other")
	defer stopOther()

	require.NoError(t, pub.Publish(ctx, CallbackEvent{Type: EventRunStarted, RunID: "r"}))
	require.NoError(t, pub.Publish(ctx, CallbackEvent{Type: EventStageStarted, RunID: "r"}))

	late, stopLate := pub.Subscribe("r")
	defer stopLate()

	require.NoError(t, pub.Publish(ctx, CallbackEvent{Type: EventRunCompleted, RunID: "r"}))
	// dropped once the run is finished
	require.NoError(t, pub.Publish(ctx, CallbackEvent{Type: EventStageStarted, RunID: "r"}))

	want := []string{EventRunStarted, EventStageStarted, EventRunCompleted}
	for _, q := range []interface {
		Next(context.Context) (CallbackEvent, bool)
	}{early, late} {
		var got []string
		for {
			ev, ok := q.Next(ctx)
			if !ok {
				break
			}
			got = append(got, ev.Type)
		}
		assert.Equal(t, want, got)
	}

	assert.True(t, other.IsEmpty())
	assert.False(t, other.IsClosed())

	// subscribing after completion replays the history and closes at once
	after, _ := pub.Subscribe("r")
	assert.True(t, after.IsClosed())
	ev, ok := after.GetNoWait()
	require.True(t, ok)
	assert.Equal(t, EventRunStarted, ev.Type)

	pub.Forget("r")
	fresh, stopFresh := pub.Subscribe("r")
	defer stopFresh()
	assert.True(t, fresh.IsEmpty())
	assert.False(t, fresh.IsClosed())
}

func TestQueuePublisher_ForgetClosesLiveSubscribers(t *testing.T) {
	pub := NewQueuePublisher()
	q, stop := pub.Subscribe("r")
	defer stop()
	require.NoError(t, pub.Publish(t.Context(), CallbackEvent{Type: EventRunStarted, RunID: "r"}))

	pub.Forget("r")
	assert.True(t, q.IsClosed())

	ev, ok := q.GetNoWait()
	require.True(t, ok)
	assert.Equal(t, EventRunStarted, ev.Type)

	require.NoError(t, pub.Publish(t.Context(), CallbackEvent{Type: EventRunStarted, RunID: "r"}))
	assert.True(t, q.IsEmpty())
}

func TestQueuePublisher_Unsubscribe(t *testing.T) {
	pub := NewQueuePublisher()
	q, stop := pub.Subscribe("r")
	stop()
	assert.True(t, q.IsClosed())

	require.NoError(t, pub.Publish(t.Context(), CallbackEvent{Type: EventRunStarted, RunID: "r"}))
	assert.True(t, q.IsEmpty())
}

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(context.Context, CallbackEvent) error { return p.err }

func TestMultiPublisher(t *testing.T) {
	queue := NewQueuePublisher()
	boom := errors.New("boom")
	multi := MultiPublisher{failingPublisher{err: boom}, nil, queue}

	err := multi.Publish(t.Context(), CallbackEvent{Type: EventRunStarted, RunID: "r"})
	assert.ErrorIs(t, err, boom)

	q, stop := queue.Subscribe("r")
	defer stop()
	ev, ok := q.GetNoWait()
	require.True(t, ok)
	assert.Equal(t, EventRunStarted, ev.Type)
}

func TestCallbackEvent_Terminal(t *testing.T) {
	assert.True(t, CallbackEvent{Type: EventRunCompleted}.Terminal())
	assert.True(t, CallbackEvent{Type: EventRunFailed}.Terminal())
	assert.False(t, CallbackEvent{Type: EventStageCompleted}.Terminal())
}
