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
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords(runID string, stages ...string) []StageRecord {
	items := make([]StageRecord, len(stages))
	for i, stage := range stages {
		items[i] = StageRecord{
			RunID:     runID,
			Stage:     stage,
			Agent:     "agent_" + stage,
			Output:    fmt.Sprintf("output of %s", stage),
			CreatedAt: time.Date(2025, 1, 2, 3, 4, i, 0, time.UTC),
		}
	}
	return items
}

func newTestSQLiteSession(t *testing.T, sessionID string) *SQLiteSession {
	t.Helper()
	session, err := NewSQLiteSession(t.Context(), SQLiteSessionParams{
		SessionID:        sessionID,
		DBDataSourceName: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, session.Close(t.Context())) })
	return session
}

func TestSQLiteSession_GetItems(t *testing.T) {
	ctx := t.Context()

	t.Run("no limit", func(t *testing.T) {
		session := newTestSQLiteSession(t, "run-1")
		items := testRecords("run-1", "verify", "analyze", "advise")

		require.NoError(t, session.AddItems(ctx, items[:2]))
		retrieved, err := session.GetItems(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, items[:2], retrieved)

		require.NoError(t, session.AddItems(ctx, items[2:]))
		retrieved, err = session.GetItems(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, items, retrieved)

		require.NoError(t, session.ClearSession(ctx))
		retrieved, err = session.GetItems(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, retrieved)
	})

	t.Run("with limit", func(t *testing.T) {
		session := newTestSQLiteSession(t, "run-1")
		items := testRecords("run-1", "verify", "analyze", "advise", "assess_risk")
		require.NoError(t, session.AddItems(ctx, items))

		latest, err := session.GetItems(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, items[2:], latest)

		all, err := session.GetItems(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, items, all)
	})

	t.Run("empty session", func(t *testing.T) {
		session := newTestSQLiteSession(t, "empty")
		retrieved, err := session.GetItems(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, retrieved)
	})
}

func TestSQLiteSession_IsolatesRuns(t *testing.T) {
	ctx := t.Context()
	dsn := filepath.Join(t.TempDir(), "shared.db")

	factory, closeDB, err := NewSQLiteSessionFactory(ctx, SQLiteSessionParams{DBDataSourceName: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, closeDB()) })

	first, err := factory(ctx, "run-a")
	require.NoError(t, err)
	second, err := factory(ctx, "run-b")
	require.NoError(t, err)
	assert.Equal(t, "run-a", first.SessionID(ctx))
	assert.Equal(t, "run-b", second.SessionID(ctx))

	require.NoError(t, first.AddItems(ctx, testRecords("run-a", "verify")))
	require.NoError(t, second.AddItems(ctx, testRecords("run-b", "verify", "analyze")))

	a, err := first.GetItems(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, a, 1)

	b, err := second.GetItems(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, b, 2)

	// Closing a factory session leaves the shared database usable.
	require.NoError(t, first.Close(ctx))
	reopened, err := factory(ctx, "run-a")
	require.NoError(t, err)
	a, err = reopened.GetItems(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, a, 1)

	require.NoError(t, second.ClearSession(ctx))
	a, err = reopened.GetItems(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, a, 1)
}

func TestSQLiteSession_AddItemsEmpty(t *testing.T) {
	session := newTestSQLiteSession(t, "run-1")
	require.NoError(t, session.AddItems(t.Context(), nil))
	items, err := session.GetItems(t.Context(), 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}
