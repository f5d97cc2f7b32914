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

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nlpodyssey/financial-document-analyzer/extract"
	"github.com/nlpodyssey/financial-document-analyzer/pipeline"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var (
		query  string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "analyze <pdf>",
		Short: "Analyze a financial PDF and write the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !fileExists(args[0]) {
				return extract.NotFoundError{Path: args[0]}
			}
			cfg := root.cfg
			if outDir == "" {
				outDir = cfg.Server.OutputDir
			}
			ctx := cmd.Context()
			logger := logging.Logger()

			printer := newConsolePrinter(cmd.OutOrStdout(), root.verbose, true)
			p, closeAll, err := newPipeline(ctx, cfg, pipelineDeps{
				publisher: newPublisher(cfg, logger, printer),
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := closeAll.Close(); err != nil {
					logger.Warn("cleanup failed", slog.String("error", err.Error()))
				}
			}()

			report, err := p.Run(ctx, pipeline.RunRequest{Query: query, FilePath: args[0]})
			if err != nil {
				return err
			}
			path, err := pipeline.WriteReportFile(outDir, report)
			if err != nil {
				return err
			}

			if root.verbose {
				fmt.Fprintln(cmd.OutOrStdout(), report.Text)
			}
			printer.success("report written to %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "question to answer (default: general investment analysis)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: server.output_dir)")
	return cmd
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
