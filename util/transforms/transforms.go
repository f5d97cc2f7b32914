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

package transforms

import (
	"regexp"
	"strings"
)

var nonAlphanumericRegexp = regexp.MustCompile(`[^a-zA-Z0-9]`)

// TransformStringFunctionStyle turns a display name into an identifier
// usable as a tool or agent name: "Investment Advisor" -> "investment_advisor".
func TransformStringFunctionStyle(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = nonAlphanumericRegexp.ReplaceAllString(name, "_")
	return strings.ToLower(name)
}

var underscoreRunRegexp = regexp.MustCompile(`_{2,}`)

// Slug is like TransformStringFunctionStyle, but collapses underscore runs
// and trims them from both ends. It is used for file and run labels.
func Slug(name string) string {
	name = TransformStringFunctionStyle(name)
	name = underscoreRunRegexp.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}
