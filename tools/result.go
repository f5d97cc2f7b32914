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

package tools

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorPrefix marks a failed tool output once it is rendered as text.
const ErrorPrefix = "ERROR:"

// ToolError describes a non-fatal tool failure.
type ToolError struct {
	Message string
}

func (err *ToolError) Error() string {
	return ErrorPrefix + " " + err.Message
}

// Result is the outcome of a tool invocation: either a text output or a
// ToolError. Failures are data, not control flow: a failed Result is passed
// along unchanged by every wrapping tool.
type Result struct {
	Text string
	Err  *ToolError
}

func Success(text string) Result {
	return Result{Text: text}
}

func Failure(message string) Result {
	return Result{Err: &ToolError{Message: message}}
}

func Failuref(format string, a ...any) Result {
	return Failure(fmt.Sprintf(format, a...))
}

// FailureFromError converts err into a failed Result, keeping an existing
// ToolError as-is.
func FailureFromError(err error) Result {
	var te *ToolError
	if errors.As(err, &te) {
		return Result{Err: te}
	}
	return Failure(err.Error())
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// AsError returns the failure as an error value, or nil on success.
func (r Result) AsError() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// String renders the result for text-only boundaries such as prompts:
// the output text on success, or the ErrorPrefix-tagged message on failure.
func (r Result) String() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Text
}

// ParseResult is the inverse of Result.String.
func ParseResult(s string) Result {
	if msg, ok := strings.CutPrefix(s, ErrorPrefix); ok {
		return Failure(strings.TrimPrefix(msg, " "))
	}
	return Success(s)
}
