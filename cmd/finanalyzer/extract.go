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
	"encoding/json"
	"fmt"
	"io"

	"github.com/nlpodyssey/financial-document-analyzer/extract"
	"github.com/nlpodyssey/financial-document-analyzer/util/logging"
	"github.com/spf13/cobra"
)

type extractOutput struct {
	Path  string         `json:"path"`
	Pages []extract.Page `json:"pages"`
	Stats extract.Stats  `json:"stats"`
}

func newExtractCmd(_ *rootOptions) *cobra.Command {
	var (
		perPage bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Print the normalized text of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := extract.New().WithLogger(logging.Logger()).ExtractPages(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := extractOutput{Path: args[0], Pages: pages, Stats: extract.ComputeStats(pages)}
			return writeExtraction(cmd.OutOrStdout(), cmd.ErrOrStderr(), out, perPage, asJSON)
		},
	}

	cmd.Flags().BoolVar(&perPage, "pages", false, "print a per-page summary before each page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print pages and stats as JSON")
	return cmd
}

func writeExtraction(out, errOut io.Writer, res extractOutput, perPage, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if perPage {
		for i, p := range res.Pages {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s (%d chars)\n%s\n", extract.PageSeparator(p.PageNumber), p.NumChars, p.Text)
		}
	} else {
		fmt.Fprintln(out, extract.JoinPages(res.Pages))
	}

	fmt.Fprintf(errOut, "%d pages, %d characters, %d empty pages\n",
		res.Stats.Pages, res.Stats.TotalChars, res.Stats.EmptyPages)
	return nil
}
