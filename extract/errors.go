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

import "fmt"

// NotFoundError is returned when the document path does not exist.
// It is reported before any parser is invoked.
type NotFoundError struct {
	Path string
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("PDF not found: %s", err.Path)
}

func NewNotFoundError(path string) NotFoundError {
	return NotFoundError{Path: path}
}

// ParseError is returned when no parser produced any page.
type ParseError struct {
	Path string
	// Err holds the joined parser failures, if any.
	Err error
}

func (err ParseError) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("failed to extract text from PDF %s", err.Path)
	}
	return fmt.Sprintf("failed to extract text from PDF %s: %v", err.Path, err.Err)
}

func (err ParseError) Unwrap() error {
	return err.Err
}

func ParseErrorf(path string, format string, a ...any) ParseError {
	return ParseError{Path: path, Err: fmt.Errorf(format, a...)}
}
