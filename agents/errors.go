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

package agents

import (
	"errors"
	"fmt"
)

// MaxIterationsExceededError is returned when a task would need more tool
// invocations and synthesis calls than the agent's MaxIter.
type MaxIterationsExceededError struct {
	Agent string
	Limit int
}

func (err MaxIterationsExceededError) Error() string {
	return fmt.Sprintf("agent %s exceeded max iterations (%d)", err.Agent, err.Limit)
}

// RateLimitExceededError is returned when a network-bound call does not fit
// within the agent's MaxRPM budget.
type RateLimitExceededError struct {
	Agent string
	Limit int
}

func (err RateLimitExceededError) Error() string {
	return fmt.Sprintf("agent %s exceeded rate limit (%d requests per minute)", err.Agent, err.Limit)
}

// SynthesisError is returned when the final LLM call of a task fails.
type SynthesisError struct {
	Agent string
	Err   error
}

func (err SynthesisError) Error() string {
	return fmt.Sprintf("agent %s synthesis failed: %v", err.Agent, err.Err)
}

func (err SynthesisError) Unwrap() error {
	return err.Err
}

// HookError wraps a failure returned by a RunHooks callback.
type HookError struct {
	Hook string
	Err  error
}

func (err HookError) Error() string {
	return fmt.Sprintf("RunHooks.%s failed: %v", err.Hook, err.Err)
}

func (err HookError) Unwrap() error {
	return err.Err
}

var errNoBackend = errors.New("LLM client not available")
