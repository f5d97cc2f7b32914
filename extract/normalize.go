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

package extract

import (
	"regexp"
	"strings"
)

var (
	lineEndingReplacer   = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	blankLinesRegexp     = regexp.MustCompile(`\n{3,}`)
	horizontalRunsRegexp = regexp.MustCompile(`[ \t]{2,}`)
)

// NormalizeWhitespace unifies line endings, collapses three or more
// newlines into exactly two, collapses runs of two or more spaces or tabs
// into a single space, and trims both ends.
//
// It is idempotent.
func NormalizeWhitespace(s string) string {
	s = lineEndingReplacer.Replace(s)
	s = blankLinesRegexp.ReplaceAllString(s, "\n\n")
	s = horizontalRunsRegexp.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
