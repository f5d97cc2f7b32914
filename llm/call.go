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

package llm

import (
	"context"
	"errors"

	"github.com/nlpodyssey/financial-document-analyzer/asynctask"
	"github.com/nlpodyssey/financial-document-analyzer/usage"
)

var errNilResponse = errors.New("backend returned no response")

// Call runs backend.Generate on its own task, waits for it, and returns the
// extracted text. Token usage is added to the usage.Usage carried by ctx.
//
// The blocking provider call never runs on the caller's goroutine, so a
// canceled ctx returns promptly even if the provider SDK does not.
func Call(ctx context.Context, backend Backend, req Request) (string, error) {
	task := asynctask.CreateTask(ctx, func(ctx context.Context) (*Response, error) {
		return backend.Generate(ctx, req)
	})

	res, err := task.AwaitContext(ctx)
	if err != nil {
		task.Cancel()
		return "", err
	}
	if res.Error != nil {
		return "", res.Error
	}
	if res.Value == nil {
		return "", errNilResponse
	}

	usage.Record(ctx, &res.Value.Usage)
	return ExtractText(res.Value.Raw), nil
}
