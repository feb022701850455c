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

// Package startstop is a small start/stop/uptime lifecycle primitive. The
// event loop and every worker in the pool are each a Runner: Start begins
// the background function, Stop cancels it and waits (bounded by the
// caller's context) for it to return.
package startstop

import (
	"context"
	"sync"
	"time"
)

// StartFunc runs until ctx is done (or returns early on its own). It is
// invoked in its own goroutine by Start.
type StartFunc func(ctx context.Context) error

// StopFunc performs any cleanup beyond cancelling the context passed to
// StartFunc - e.g. closing a socket that a blocking read is parked on.
type StopFunc func(ctx context.Context) error

// Runner tracks one running/stopped background function.
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	Uptime() time.Duration
	ErrorsLast() error
	ErrorsList() []error
}

type runner struct {
	start StartFunc
	stop  StopFunc

	mu       sync.Mutex
	running  bool
	startAt  time.Time
	cancel   context.CancelFunc
	done     chan struct{}
	errs     []error
}

// New builds a Runner around start/stop. stop may be nil when
// cancelling the context passed to start is itself sufficient to make
// it return.
func New(start StartFunc, stop StopFunc) Runner {
	return &runner{start: start, stop: stop}
}

// Start launches start in a goroutine. If the Runner is already running,
// the previous instance's context is cancelled first and Start waits,
// bounded by ctx, for it to return before the new one begins; stop is
// not invoked on that path.
func (r *runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		cancel := r.cancel
		done := r.done
		r.mu.Unlock()

		cancel()
		select {
		case <-done:
		case <-ctx.Done():
		}

		r.mu.Lock()
	}

	rc, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.cancel = cancel
	r.done = done
	r.running = true
	r.startAt = time.Now()
	r.mu.Unlock()

	go func() {
		defer close(done)
		if err := r.start(rc); err != nil {
			r.recordError(err)
		}
		r.mu.Lock()
		r.running = false
		r.startAt = time.Time{}
		r.mu.Unlock()
	}()

	return nil
}

// Stop invokes stop and cancels the running start function, waiting up to
// ctx's deadline for the start function to observe cancellation and
// return. If ctx ends first, IsRunning keeps reporting true until the
// start function actually returns.
func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	var stopErr error
	if r.stop != nil {
		stopErr = r.stop(ctx)
		if stopErr != nil {
			r.recordError(stopErr)
		}
	}

	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		// start has not returned yet: it is still running.
		return stopErr
	}

	r.mu.Lock()
	r.running = false
	r.startAt = time.Time{}
	r.mu.Unlock()

	return stopErr
}

func (r *runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *runner) Uptime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running || r.startAt.IsZero() {
		return 0
	}
	return time.Since(r.startAt)
}

func (r *runner) recordError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *runner) ErrorsLast() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func (r *runner) ErrorsList() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}
