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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPgConn is a mock implementation of PgConnInterface for testing
type MockPgConn struct {
	mock.Mock
}

func (m *MockPgConn) Query(ctx context.Context, sql string, args ...any) (PgRowsInterface, error) {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	return ret.Get(0).(PgRowsInterface), ret.Error(1)
}

func (m *MockPgConn) Exec(ctx context.Context, sql string, args ...any) (any, error) {
	arguments := []any{ctx, sql}
	arguments = append(arguments, args...)
	ret := m.Called(arguments...)
	return ret.Get(0), ret.Error(1)
}

func (m *MockPgConn) Close(ctx context.Context) error {
	ret := m.Called(ctx)
	return ret.Error(0)
}

type MockPgRows struct {
	data []string
	pos  int
}

func NewMockPgRows(data []string) *MockPgRows {
	return &MockPgRows{data: data, pos: -1}
}

func (m *MockPgRows) Next() bool {
	m.pos++
	return m.pos < len(m.data)
}

func (m *MockPgRows) Scan(dest ...any) error {
	if m.pos >= len(m.data) {
		return fmt.Errorf("no more rows")
	}
	if p, ok := dest[0].(*string); ok {
		*p = m.data[m.pos]
	}
	return nil
}

func (m *MockPgRows) Err() error { return nil }

func (m *MockPgRows) Close() {}

func expectInitDB(m *MockPgConn) {
	m.On("Exec", mock.Anything, mock.AnythingOfType("string")).Return(nil, nil).Times(3)
}

func createMockPgSession(t *testing.T, sessionID string, m *MockPgConn) *PgSession {
	t.Helper()
	session, err := NewPgSession(t.Context(), PgSessionParams{
		SessionID:    sessionID,
		RunsTable:    "test_runs",
		RecordsTable: "test_records",
		Conn:         m,
	})
	require.NoError(t, err)
	return session
}

func recordsJSON(t *testing.T, items []StageRecord) []string {
	t.Helper()
	out := make([]string, len(items))
	for i, item := range items {
		data, err := marshalRecord(item)
		require.NoError(t, err)
		out[i] = data
	}
	return out
}

func TestPgSession_NewPgSession(t *testing.T) {
	t.Run("missing connection string and no conn provided", func(t *testing.T) {
		_, err := NewPgSession(t.Context(), PgSessionParams{SessionID: "run-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection string is required")
	})

	t.Run("successful creation with mock connection", func(t *testing.T) {
		m := &MockPgConn{}
		expectInitDB(m)

		session := createMockPgSession(t, "run-1", m)
		assert.Equal(t, "run-1", session.SessionID(t.Context()))
		assert.Equal(t, "test_runs", session.runsTable)
		assert.Equal(t, "test_records", session.recordsTable)
		m.AssertExpectations(t)
	})

	t.Run("schema failure closes the connection", func(t *testing.T) {
		m := &MockPgConn{}
		m.On("Exec", mock.Anything, mock.AnythingOfType("string")).Return(nil, errors.New("denied")).Once()
		m.On("Close", mock.Anything).Return(nil).Once()

		_, err := NewPgSession(t.Context(), PgSessionParams{SessionID: "run-1", Conn: m})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error creating runs table")
		m.AssertExpectations(t)
	})
}

func TestPgSession_GetItems(t *testing.T) {
	items := testRecords("run-1", "verify", "analyze", "advise")

	t.Run("no limit", func(t *testing.T) {
		m := &MockPgConn{}
		expectInitDB(m)
		m.On("Query", mock.Anything, mock.AnythingOfType("string"), "run-1").
			Return(NewMockPgRows(recordsJSON(t, items)), nil)

		session := createMockPgSession(t, "run-1", m)
		got, err := session.GetItems(t.Context(), 0)
		require.NoError(t, err)
		assert.Equal(t, items, got)
		m.AssertExpectations(t)
	})

	t.Run("with limit", func(t *testing.T) {
		m := &MockPgConn{}
		expectInitDB(m)
		// rows come back newest first
		desc := recordsJSON(t, []StageRecord{items[2], items[1]})
		m.On("Query", mock.Anything, mock.AnythingOfType("string"), "run-1", 2).
			Return(NewMockPgRows(desc), nil)

		session := createMockPgSession(t, "run-1", m)
		got, err := session.GetItems(t.Context(), 2)
		require.NoError(t, err)
		assert.Equal(t, items[1:], got)
		m.AssertExpectations(t)
	})

	t.Run("skips invalid rows", func(t *testing.T) {
		m := &MockPgConn{}
		expectInitDB(m)
		rows := append([]string{"not json"}, recordsJSON(t, items[:1])...)
		m.On("Query", mock.Anything, mock.AnythingOfType("string"), "run-1").
			Return(NewMockPgRows(rows), nil)

		session := createMockPgSession(t, "run-1", m)
		got, err := session.GetItems(t.Context(), 0)
		require.NoError(t, err)
		assert.Equal(t, items[:1], got)
	})

	t.Run("query error", func(t *testing.T) {
		m := &MockPgConn{}
		expectInitDB(m)
		m.On("Query", mock.Anything, mock.AnythingOfType("string"), "run-1").
			Return((*MockPgRows)(nil), errors.New("connection reset"))

		session := createMockPgSession(t, "run-1", m)
		_, err := session.GetItems(t.Context(), 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestPgSession_AddItems(t *testing.T) {
	t.Run("empty items list", func(t *testing.T) {
		m := &MockPgConn{}
		expectInitDB(m)
		session := createMockPgSession(t, "run-1", m)
		require.NoError(t, session.AddItems(t.Context(), nil))
		m.AssertExpectations(t)
	})

	t.Run("multiple items", func(t *testing.T) {
		m := &MockPgConn{}
		expectInitDB(m)
		// run upsert and timestamp update
		m.On("Exec", mock.Anything, mock.AnythingOfType("string"), "run-1").Return(nil, nil).Times(2)
		m.On("Exec", mock.Anything, mock.AnythingOfType("string"), "run-1", "verify", mock.AnythingOfType("string")).Return(nil, nil).Once()
		m.On("Exec", mock.Anything, mock.AnythingOfType("string"), "run-1", "analyze", mock.AnythingOfType("string")).Return(nil, nil).Once()

		session := createMockPgSession(t, "run-1", m)
		require.NoError(t, session.AddItems(t.Context(), testRecords("run-1", "verify", "analyze")))
		m.AssertExpectations(t)
	})

	t.Run("insert error", func(t *testing.T) {
		m := &MockPgConn{}
		expectInitDB(m)
		m.On("Exec", mock.Anything, mock.AnythingOfType("string"), "run-1").Return(nil, nil).Once()
		m.On("Exec", mock.Anything, mock.AnythingOfType("string"), "run-1", "verify", mock.AnythingOfType("string")).
			Return(nil, errors.New("disk full")).Once()

		session := createMockPgSession(t, "run-1", m)
		err := session.AddItems(t.Context(), testRecords("run-1", "verify"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error inserting stage record")
	})
}

func TestPgSession_ClearAndClose(t *testing.T) {
	m := &MockPgConn{}
	expectInitDB(m)
	m.On("Exec", mock.Anything, mock.AnythingOfType("string"), "run-1").Return(nil, nil).Times(2)
	m.On("Close", mock.Anything).Return(nil).Once()

	session := createMockPgSession(t, "run-1", m)
	require.NoError(t, session.ClearSession(t.Context()))
	require.NoError(t, session.Close(t.Context()))
	m.AssertExpectations(t)
}

func TestNewPgSessionFactory(t *testing.T) {
	m := &MockPgConn{}
	expectInitDB(m)

	factory := NewPgSessionFactory(PgSessionParams{Conn: m})
	session, err := factory(t.Context(), "run-42")
	require.NoError(t, err)
	assert.Equal(t, "run-42", session.SessionID(t.Context()))
	m.AssertExpectations(t)
}
