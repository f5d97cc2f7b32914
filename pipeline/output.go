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
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteReportFile writes report.Text to a timestamped file in dir and
// returns its path. The directory is created if needed.
func WriteReportFile(dir string, report *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	ts := report.CompletedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	path := filepath.Join(dir, ReportFileName(report.RunID, ts))
	if err := os.WriteFile(path, []byte(report.Text), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// ReportFileName returns "analysis_YYYYmmdd_HHMMSS_<run8>.txt".
func ReportFileName(runID string, ts time.Time) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	name := "analysis_" + ts.Format("20060102_150405")
	if short != "" {
		name += "_" + short
	}
	return name + ".txt"
}
