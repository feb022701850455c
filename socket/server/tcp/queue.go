/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package tcp

import (
	"container/list"
	"sync"
)

// queue is an unbounded, multi-producer/multi-consumer FIFO. It backs
// both the Request Queue (event loop -> workers) and the Selector-Task
// Queue (workers -> event loop) described in spec.md §2: neither has a
// bounded capacity, since spec.md's Non-goals exclude backpressure
// beyond what the OS socket buffers already provide.
type queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *list.List
	closed bool
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{items: list.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends v and wakes one waiting consumer. push returns false
// without enqueuing when the queue is already closed - the caller-visible
// signal for spec.md §7's QueueRejected: the event loop stops draining
// tasks once shutdown begins, so a push arriving after that point must be
// reported as refused rather than silently dropped.
func (q *queue[T]) push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items.PushBack(v)
	q.cond.Signal()
	return true
}

// pop blocks until an item is available or the queue is closed. ok is
// false only when the queue was closed and drained.
func (q *queue[T]) pop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.items.Len() == 0 {
		return v, false
	}

	front := q.items.Front()
	q.items.Remove(front)
	return front.Value.(T), true
}

// tryPop returns immediately with ok==false if nothing is queued.
func (q *queue[T]) tryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return v, false
	}
	front := q.items.Front()
	q.items.Remove(front)
	return front.Value.(T), true
}

// drain removes and returns every item currently queued, without
// blocking. Used by the event loop to flush the Selector-Task Queue once
// per iteration (spec.md §4.1 step 4).
func (q *queue[T]) drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]T, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(T))
	}
	q.items.Init()
	return out
}

// close wakes every blocked consumer; subsequent pop calls drain
// remaining items then return ok==false.
func (q *queue[T]) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
