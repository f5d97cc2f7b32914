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

// Package llm wraps chat-completion providers behind a single text-in,
// text-out call used by the analysis tools and the stage runner.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/nlpodyssey/financial-document-analyzer/modelsettings"
	"github.com/nlpodyssey/financial-document-analyzer/usage"
)

// Backend is the base interface for calling an LLM provider.
type Backend interface {
	// Generate sends a single-turn request and returns the provider's
	// native response.
	Generate(context.Context, Request) (*Response, error)
}

type Request struct {
	// Model name, without any routing prefix.
	Model string

	// Optional system instructions.
	System string

	// The user prompt.
	Prompt string

	Settings modelsettings.ModelSettings
}

type Response struct {
	// Raw is the provider's response value, e.g. *openai.ChatCompletion.
	// Its text is obtained with ExtractText.
	Raw any

	Usage usage.Usage
}

// ErrMissingCredential is matched by every MissingCredentialError.
var ErrMissingCredential = errors.New("missing LLM credential")

// MissingCredentialError reports that a provider key is not set.
type MissingCredentialError struct {
	Provider string
	EnvVar   string
}

func (err *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s not set in environment.", err.EnvVar)
}

func (err *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// CallError wraps a failure returned by a provider API.
type CallError struct {
	Provider string
	Err      error
}

func (err *CallError) Error() string {
	return fmt.Sprintf("%s call failed: %v", err.Provider, err.Err)
}

func (err *CallError) Unwrap() error { return err.Err }
