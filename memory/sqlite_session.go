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
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const defaultSQLiteDSN = "file::memory:?cache=shared"

// SQLiteSession is a SQLite-based implementation of Session storage.
//
// By default it uses a shared in-memory database that is lost when the
// process ends. For persistent storage, provide a file path.
type SQLiteSession struct {
	sessionID    string
	runsTable    string
	recordsTable string
	db           *sql.DB
	ownsDB       bool
	mu           *sync.Mutex
}

type SQLiteSessionParams struct {
	// Identifier of the run whose records the session holds.
	SessionID string

	// Optional database data source name.
	// Defaults to "file::memory:?cache=shared".
	DBDataSourceName string

	// Optional name of the table to store run metadata.
	// Defaults to "analysis_runs".
	RunsTable string

	// Optional name of the table to store stage records.
	// Defaults to "stage_records".
	RecordsTable string
}

// NewSQLiteSession opens its own database connection and initializes the schema.
func NewSQLiteSession(ctx context.Context, params SQLiteSessionParams) (*SQLiteSession, error) {
	db, err := openSQLite(ctx, params)
	if err != nil {
		return nil, err
	}
	s := newSQLiteSession(db, new(sync.Mutex), params)
	s.ownsDB = true
	return s, nil
}

// NewSQLiteSessionFactory opens one database shared by all the sessions the
// returned factory creates. The returned function closes the database.
func NewSQLiteSessionFactory(ctx context.Context, params SQLiteSessionParams) (SessionFactory, func() error, error) {
	db, err := openSQLite(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	mu := new(sync.Mutex)
	factory := func(_ context.Context, runID string) (Session, error) {
		p := params
		p.SessionID = runID
		return newSQLiteSession(db, mu, p), nil
	}
	return factory, db.Close, nil
}

func newSQLiteSession(db *sql.DB, mu *sync.Mutex, params SQLiteSessionParams) *SQLiteSession {
	return &SQLiteSession{
		sessionID:    params.SessionID,
		runsTable:    cmp.Or(params.RunsTable, "analysis_runs"),
		recordsTable: cmp.Or(params.RecordsTable, "stage_records"),
		db:           db,
		mu:           mu,
	}
}

func openSQLite(ctx context.Context, params SQLiteSessionParams) (_ *sql.DB, err error) {
	db, err := sql.Open("sqlite3", cmp.Or(params.DBDataSourceName, defaultSQLiteDSN))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}
	defer func() {
		if err != nil {
			if e := db.Close(); e != nil {
				err = errors.Join(err, e)
			}
		}
	}()

	if _, err = db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	s := newSQLiteSession(db, nil, params)
	if err = s.initDB(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func (s *SQLiteSession) SessionID(context.Context) string {
	return s.sessionID
}

func (s *SQLiteSession) GetItems(ctx context.Context, limit int) (_ []StageRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	if limit <= 0 {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT record_data FROM "%s"
			WHERE run_id = ?
			ORDER BY id ASC
		`, s.recordsTable), s.sessionID)
	} else {
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT record_data FROM "%s"
			WHERE run_id = ?
			ORDER BY id DESC
			LIMIT ?
		`, s.recordsTable), s.sessionID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying stage records: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("error closing sql.Rows: %w", e))
		}
	}()

	var items []StageRecord
	for rows.Next() {
		var data string
		if err = rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sql rows scan error: %w", err)
		}
		item, err := unmarshalRecord(data)
		if err != nil {
			continue // Skip invalid JSON entries
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sql rows scan error: %w", err)
	}

	if limit > 0 {
		slices.Reverse(items)
	}
	return items, nil
}

func (s *SQLiteSession) AddItems(ctx context.Context, items []StageRecord) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT OR IGNORE INTO "%s" (run_id) VALUES (?)`, s.runsTable),
		s.sessionID,
	)
	if err != nil {
		return fmt.Errorf("error ensuring run exists: %w", err)
	}

	for _, item := range items {
		data, err := marshalRecord(item)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(
			ctx,
			fmt.Sprintf(`INSERT INTO "%s" (run_id, stage, record_data) VALUES (?, ?, ?)`, s.recordsTable),
			s.sessionID, item.Stage, data,
		)
		if err != nil {
			return fmt.Errorf("error inserting stage record: %w", err)
		}
	}

	_, err = s.db.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE "%s" SET updated_at = CURRENT_TIMESTAMP WHERE run_id = ?`, s.runsTable),
		s.sessionID,
	)
	if err != nil {
		return fmt.Errorf("error updating run timestamp: %w", err)
	}
	return nil
}

func (s *SQLiteSession) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf(`DELETE FROM "%s" WHERE run_id = ?`, s.recordsTable),
		s.sessionID,
	)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		fmt.Sprintf(`DELETE FROM "%s" WHERE run_id = ?`, s.runsTable),
		s.sessionID,
	)
	return err
}

func (s *SQLiteSession) initDB(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			run_id TEXT PRIMARY KEY,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, s.runsTable))
	if err != nil {
		return fmt.Errorf("error creating runs table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			record_data TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (run_id) REFERENCES "%s" (run_id) ON DELETE CASCADE
		)
	`, s.recordsTable, s.runsTable))
	if err != nil {
		return fmt.Errorf("error creating records table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS "idx_%s_run_id" ON "%s" (run_id, id)`,
		s.recordsTable, s.recordsTable))
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}
	return nil
}

// Close closes the database connection if the session opened it. Sessions
// created by a factory leave the shared database open.
func (s *SQLiteSession) Close(context.Context) error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
