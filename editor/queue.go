// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO of Results with any number of producers
// and one consumer. Push never blocks.
type Queue struct {
	mutex  sync.Mutex
	items  []Result
	closed bool

	// ready holds a token whenever items may be non-empty or the queue
	// was closed. Capacity 1 so producers never block on it.
	ready chan struct{}
}

// NewQueue returns an empty, open Queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends result. Pushing to a closed queue drops the result and
// returns false.
func (q *Queue) Push(result Result) bool {
	q.mutex.Lock()
	if q.closed {
		q.mutex.Unlock()
		return false
	}
	q.items = append(q.items, result)
	q.mutex.Unlock()
	q.signal()
	return true
}

// PushEvent is shorthand for Push(Result{Event: event}).
func (q *Queue) PushEvent(event Event) bool {
	return q.Push(Result{Event: event})
}

// Close marks the end of input. Items already queued are still
// delivered. Close is idempotent.
func (q *Queue) Close() {
	q.mutex.Lock()
	q.closed = true
	q.mutex.Unlock()
	q.signal()
}

// Receive returns the oldest result. It blocks until one is available.
// ok is false once the queue is closed and drained, or ctx is done.
func (q *Queue) Receive(ctx context.Context) (result Result, ok bool) {
	for {
		q.mutex.Lock()
		if len(q.items) > 0 {
			result = q.items[0]
			q.items[0] = Result{}
			q.items = q.items[1:]
			remaining := len(q.items) > 0
			q.mutex.Unlock()
			if remaining {
				q.signal()
			}
			return result, true
		}
		if q.closed {
			q.mutex.Unlock()
			return Result{}, false
		}
		q.mutex.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return Result{}, false
		}
	}
}

// Len returns the number of queued results.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
