/*
SPDX-License-Identifier: Apache-2.0

Copyright 2026 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package remote

import (
	"context"
	"errors"
)

var (
	// ErrFetchFailed wraps every failed remote call.
	ErrFetchFailed = errors.New("remote fetch failed")
	// ErrStale completes tasks whose response arrived after the context
	// they were issued under was replaced. The response is dropped.
	ErrStale = errors.New("stale response discarded")
)

// Task is an in-flight or finished fetch of one cache key.
type Task struct {
	key  CacheKey
	done chan struct{}
	err  error
}

func newTask(key CacheKey) *Task {
	return &Task{key: key, done: make(chan struct{})}
}

// doneTask returns a task that already finished with err.
func doneTask(key CacheKey, err error) *Task {
	t := newTask(key)
	t.finish(err)
	return t
}

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

// Key returns the cache key the task fetches.
func (t *Task) Key() CacheKey { return t.key }

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task's result once Done is closed, nil before.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
