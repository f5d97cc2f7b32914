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

import "fmt"

// StageError reports the stage that aborted a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (err StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", err.Stage, err.Err)
}

func (err StageError) Unwrap() error {
	return err.Err
}
