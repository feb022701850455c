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

// Package worker defines the request-processor plugin contract
// (spec.md §6) and a factory registry that replaces reflective class
// loading (Design Notes §9): a worker implementation is selected by name
// at configuration time, from a registry of factory functions populated
// by plain Go init() registration instead of a classloader.
package worker

import (
	"fmt"
	"sync"
)

// Ops is the subset of interest ops a worker was dispatched for.
type Ops uint8

const (
	OpRead Ops = 1 << iota
	OpWrite
)

func (o Ops) Has(bit Ops) bool { return o&bit != 0 }

// Session is the minimal per-connection surface a Processor needs; it is
// implemented by socket/server/tcp's session type. A Processor never
// sees the selection handle or interest bitmask directly - only this
// narrow view, so a plugin cannot violate the interest-arm discipline
// (spec.md §4.1) by construction.
type Session interface {
	// Valid reports whether the underlying connection is still usable.
	Valid() bool

	// Recv performs one non-blocking read into buf, exactly as
	// Connection.read (spec.md §4.3): returns bytes read, whether
	// end-of-stream was observed, and any error.
	Recv(buf []byte) (n int, eof bool, err error)

	// QueueWrite appends buf to the pending-write queue (spec.md §4.4).
	QueueWrite(buf []byte)

	// HasPendingWrite reports whether the pending-write queue is
	// non-empty.
	HasPendingWrite() bool

	// SendPending attempts one non-blocking write of the head pending
	// buffer, removing it once fully consumed; drained reports whether
	// the whole pending-write queue is now empty.
	SendPending() (wrote int, drained bool, err error)

	// ArmRead/ArmWrite/DisarmWrite enqueue the corresponding
	// SelectorTask (spec.md §4.2.1/§4.2.2) - the only way a Processor
	// may influence interest ops.
	ArmRead()
	ArmWrite()
	DisarmWrite()

	// Close tears down the Connection (spec.md §4.2.2 end-of-stream,
	// §7 IoError).
	Close() error

	// UserID and Authenticated are the read-only accessors spec.md §4.4
	// exposes alongside key/connection; both are zero-valued until
	// Authenticate succeeds.
	UserID() string
	Authenticated() bool

	// Authenticate is the single-shot mutator of spec.md §4.4: a worker
	// that implements an auth handshake calls it once per session; a
	// second call returns an error instead of replacing the identity.
	Authenticate(userID, credentials string) error
}

// Processor is the pluggable per-dispatch behavior (spec.md §4.2.1,
// §4.2.2). It is invoked once per session pickup, already knowing which
// of Ops was ready at dispatch time.
type Processor func(sess Session, ready Ops)

// Factory builds a Processor from a free-form option map. The server in
// socket/server/tcp always passes nil options.
type Factory func(opts map[string]string) (Processor, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds factory under name, overwriting any previous
// registration for the same name. Intended to be called from an init()
// function, e.g. the default "echo" registration in echo.go.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = factory
}

// Create resolves name to a Processor via the registered Factory.
func Create(name string, opts map[string]string) (Processor, error) {
	mu.RLock()
	factory, ok := registry[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("worker: no processor registered as %q", name)
	}
	return factory(opts)
}

// Registered lists the names currently registered, for diagnostics.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	return out
}
