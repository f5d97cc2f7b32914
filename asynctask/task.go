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

package asynctask

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a function running on its own goroutine whose result can be
// awaited. LLM calls and background pipeline runs are dispatched as tasks.
type Task[T any] struct {
	mu       sync.RWMutex
	cancel   context.CancelFunc
	canceled bool
	doneCh   chan struct{}
	result   Result[T]
}

type Result[T any] struct {
	Value T
	Error error
}

var taskCanceledErr = errors.New("task has been canceled")

func TaskCanceledErr() error { return taskCanceledErr }

// Await blocks until the task function returns.
func (t *Task[T]) Await() Result[T] {
	<-t.doneCh
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}

// AwaitContext is like Await, but gives up when ctx is done. The task itself
// keeps running; call Cancel to stop it.
func (t *Task[T]) AwaitContext(ctx context.Context) (Result[T], error) {
	select {
	case <-t.doneCh:
		return t.Await(), nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}

// Done returns a channel that is closed once the task has completed.
func (t *Task[T]) Done() <-chan struct{} {
	return t.doneCh
}

func (t *Task[T]) IsDone() bool {
	select {
	case <-t.doneCh:
		return true
	default:
		return false
	}
}

func (t *Task[T]) IsCanceled() bool {
	t.mu.RLock()
	canceled := t.canceled
	t.mu.RUnlock()
	return canceled
}

func (t *Task[T]) Cancel() {
	t.mu.Lock()
	if !t.IsDone() && !t.canceled {
		t.cancel()
		t.canceled = true
	}
	t.mu.Unlock()
}

type TaskFunc[T any] = func(context.Context) (T, error)

// CreateTask starts fn on a new goroutine. A panic inside fn is recovered
// and reported as the task error.
func CreateTask[T any](ctx context.Context, fn TaskFunc[T]) *Task[T] {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(ctx)
	t := &Task[T]{
		cancel: cancel,
		doneCh: make(chan struct{}),
	}

	go func() {
		var value T
		var err error

		defer func() {
			if r := recover(); r != nil {
				err = errors.Join(err, fmt.Errorf("task panicked: %v", r))
			}

			t.mu.Lock()
			if t.canceled {
				err = errors.Join(err, TaskCanceledErr())
			}
			t.result = Result[T]{Value: value, Error: err}
			close(t.doneCh)
			t.mu.Unlock()

			cancel()
		}()

		value, err = fn(ctx)
	}()

	return t
}

type TaskNoValue = Task[struct{}]

func CreateTaskNoValue(ctx context.Context, fn func(context.Context) error) *TaskNoValue {
	return CreateTask[struct{}](ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}
