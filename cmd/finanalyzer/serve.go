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
	"log/slog"

	"github.com/nlpodyssey/financial-document-analyzer/pipeline"
	"github.com/nlpodyssey/financial-document-analyzer/server"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx := cmd.Context()
			logger := logging.Logger()

			events := pipeline.NewQueuePublisher()
			states := pipeline.NewInMemoryRunStateStore()

			p, closeAll, err := newPipeline(ctx, cfg, pipelineDeps{
				publisher: newPublisher(cfg, logger, events),
				states:    states,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := closeAll.Close(); err != nil {
					logger.Warn("cleanup failed", slog.String("error", err.Error()))
				}
			}()

			srv := server.New(server.Options{
				Analyzer:       p,
				Events:         events,
				States:         states,
				Sessions:       p.Sessions,
				UploadDir:      cfg.Server.UploadDir,
				OutputDir:      cfg.Server.OutputDir,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
				RequestTimeout: cfg.Server.RequestTimeout,
				RunRetention:   cfg.Server.RunRetention,
				Logger:         logger,
			})
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
