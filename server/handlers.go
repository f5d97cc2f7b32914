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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nlpodyssey/financial-document-analyzer/memory"
	"github.com/nlpodyssey/financial-document-analyzer/pipeline"
)

const wsWriteWait = 10 * time.Second

type AnalyzeResponse struct {
	Status        string `json:"status"`
	Query         string `json:"query"`
	Analysis      string `json:"analysis"`
	FileProcessed string `json:"file_processed"`
	OutputFile    string `json:"output_file"`
	RunID         string `json:"run_id"`
}

type RunResponse struct {
	pipeline.RunState
	Records []memory.StageRecord `json:"records,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Financial Document Analyzer API is running",
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	up, err := s.receiveUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer s.removeUpload(up.path)

	req := pipeline.RunRequest{
		RunID:    uuid.NewString(),
		Query:    up.query,
		FilePath: up.path,
	}
	defer s.retire(req.RunID)
	report, err := s.analyzer.Run(r.Context(), req)
	if err == nil {
		var path string
		path, err = pipeline.WriteReportFile(s.outputDir, report)
		if err == nil {
			writeJSON(w, http.StatusOK, AnalyzeResponse{
				Status:        "success",
				Query:         report.Query,
				Analysis:      report.Text,
				FileProcessed: up.filename,
				OutputFile:    path,
				RunID:         report.RunID,
			})
			return
		}
	}

	s.logger.Error("analysis failed", slog.String("run_id", req.RunID), slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "Error processing financial document: "+err.Error())
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	up, err := s.receiveUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := pipeline.RunRequest{
		RunID:    uuid.NewString(),
		Query:    strings.TrimSpace(up.query),
		FilePath: up.path,
	}
	if req.Query == "" {
		req.Query = pipeline.DefaultQuery
	}

	// Saved up front so that the run is visible as soon as its ID is.
	err = s.states.Save(r.Context(), pipeline.RunState{
		RunID:     req.RunID,
		Query:     req.Query,
		FilePath:  req.FilePath,
		State:     pipeline.StatePending,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.removeUpload(up.path)
		writeError(w, http.StatusInternalServerError, "Error processing financial document: "+err.Error())
		return
	}

	s.startRun(req, func() { s.removeUpload(up.path) })
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": req.RunID})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	state, ok, err := s.states.Load(r.Context(), runID)
	switch {
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	case !ok:
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	resp := RunResponse{RunState: state}
	if s.sessions != nil {
		records, err := s.loadRecords(r, runID)
		if err != nil {
			s.logger.Warn("loading stage records failed", slog.String("run_id", runID), slog.String("error", err.Error()))
		}
		resp.Records = records
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) loadRecords(r *http.Request, runID string) (_ []memory.StageRecord, err error) {
	session, err := s.sessions(r.Context(), runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := session.Close(r.Context()); e != nil {
			err = errors.Join(err, e)
		}
	}()
	return session.GetItems(r.Context(), 0)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "event streaming is disabled")
		return
	}
	runID := chi.URLParam(r, "id")
	if _, ok, err := s.states.Load(r.Context(), runID); err != nil || !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	q, stop := s.events.Subscribe(runID)
	defer stop()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain client frames so that a close from the peer ends the stream.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		event, ok := q.Next(ctx)
		if !ok {
			break
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(event); err != nil {
			s.logger.Debug("websocket write failed", slog.String("run_id", runID), slog.String("error", err.Error()))
			return
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
}

type upload struct {
	path     string
	filename string
	query    string
}

// receiveUpload stores the multipart "file" under a unique name in the
// upload directory.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("missing file field")
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return nil, fmt.Errorf("unsupported file type %q: only PDF documents are accepted", header.Filename)
	}

	path, err := s.saveUpload(file)
	if err != nil {
		return nil, err
	}
	return &upload{
		path:     path,
		filename: header.Filename,
		query:    r.FormValue("query"),
	}, nil
}

func (s *Server) saveUpload(file multipart.File) (_ string, err error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	path := filepath.Join(s.uploadDir, "financial_document_"+uuid.NewString()+".pdf")

	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	defer func() {
		if e := out.Close(); e != nil && err == nil {
			err = fmt.Errorf("store upload: %w", e)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if _, err := io.Copy(out, file); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return path, nil
}

func (s *Server) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("removing upload failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
