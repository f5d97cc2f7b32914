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

package asyncqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueue(t *testing.T) {
	q := New[string]()
	assert.True(t, q.IsEmpty())

	q.Put("run.started")
	q.Put("stage.started")
	assert.False(t, q.IsEmpty())
	assert.Equal(t, "run.started", q.Get())

	v, ok := q.GetNoWait()
	assert.True(t, ok)
	assert.Equal(t, "stage.started", v)

	_, ok = q.GetNoWait()
	assert.False(t, ok)
	assert.True(t, q.IsEmpty())
}

func TestQueue_GetTimeout(t *testing.T) {
	q := New[int]()
	_, ok := q.GetTimeout(10 * time.Millisecond)
	assert.False(t, ok)

	go func() {
		time.Sleep(5 * time.Millisecond)
		q.Put(7)
	}()
	v, ok := q.GetTimeout(time.Second)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestQueue_Close(t *testing.T) {
	q := New[int]()
	q.Put(1)
	q.Put(2)
	q.Close()
	q.Put(3)

	ctx := t.Context()
	v, ok := q.Next(ctx)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Next(ctx)
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = q.Next(ctx)
	assert.False(t, ok)
	assert.True(t, q.IsClosed())
}

func TestQueue_NextWakesOnClose(t *testing.T) {
	q := New[int]()
	done := make(chan bool)
	go func() {
		_, ok := q.Next(context.Background())
		done <- ok
	}()

	time.Sleep(5 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestQueue_NextContextCanceled(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok := q.Next(ctx)
	assert.False(t, ok)
}
