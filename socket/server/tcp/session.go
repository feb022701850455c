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
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/nabbar/nioreactor/socket"
	"github.com/nabbar/nioreactor/socket/worker"
)

// errAlreadyAuthenticated is returned by Authenticate on a session that
// has already authenticated once (spec.md §4.4: authenticate is
// single-shot, not a re-auth flow).
var errAlreadyAuthenticated = errors.New("session: already authenticated")

// session is the reactor's view of one accepted connection (spec.md's
// Session/Connection data model, §2): the raw connection plus the
// pending-write queue and interest-ops bookkeeping a worker needs, all
// guarded by a single mutex since both the event loop goroutine and
// whichever worker currently owns this session may touch it.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc

	conn *connection
	key  int
	gen  uint64

	tasks *queue[selectorTask]

	mu           sync.Mutex
	pending      [][]byte
	offset       int
	interestMask uint32 // only ever mutated by the event loop goroutine

	userID        string
	credentials   string
	authenticated bool

	// reportIO, if set, is the event loop's hook for logging/reporting an
	// IoError (spec.md §7) observed during a read or write on this
	// session's Connection - wired by newEventLoop's caller so a worker's
	// Recv/SendPending failure is surfaced even when no FuncError has been
	// registered by the library consumer.
	reportIO func(error)
}

func newSession(parent context.Context, conn *connection, key int, gen uint64, tasks *queue[selectorTask], reportIO func(error)) *session {
	ctx, cancel := context.WithCancel(parent)
	return &session{
		ctx:      ctx,
		cancel:   cancel,
		conn:     conn,
		key:      key,
		gen:      gen,
		tasks:    tasks,
		reportIO: reportIO,
	}
}

// --- worker.Session -----------------------------------------------------

func (s *session) Valid() bool {
	return !s.conn.isClosed()
}

func (s *session) Recv(buf []byte) (n int, eof bool, err error) {
	n, eof, err = s.conn.read(buf)
	if err != nil && s.reportIO != nil {
		s.reportIO(err)
	}
	return n, eof, err
}

func (s *session) QueueWrite(buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, buf)
}

func (s *session) HasPendingWrite() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasPendingLocked()
}

func (s *session) hasPendingLocked() bool {
	return len(s.pending) > 0
}

func (s *session) SendPending() (wrote int, drained bool, err error) {
	s.mu.Lock()
	if !s.hasPendingLocked() {
		s.mu.Unlock()
		return 0, true, nil
	}
	head := s.pending[0]
	off := s.offset
	s.mu.Unlock()

	n, werr := s.conn.write(head[off:])
	if werr != nil {
		if s.reportIO != nil {
			s.reportIO(werr)
		}
		return 0, false, werr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += n
	if s.offset >= len(head) {
		s.pending = s.pending[1:]
		s.offset = 0
		return n, len(s.pending) == 0, nil
	}
	return n, false, nil
}

func (s *session) ArmRead() {
	s.tasks.push(selectorTask{key: s.key, op: taskArmRead, gen: s.gen})
}

func (s *session) ArmWrite() {
	s.tasks.push(selectorTask{key: s.key, op: taskArmWrite, gen: s.gen})
}

func (s *session) DisarmWrite() {
	s.tasks.push(selectorTask{key: s.key, op: taskDisarmWrite, gen: s.gen})
}

func (s *session) Close() error {
	s.tasks.push(selectorTask{key: s.key, op: taskClose, gen: s.gen})
	return nil
}

// UserID returns the authenticated user id, or "" if Authenticate has
// never been called (spec.md §4.4, "user id (optional)").
func (s *session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Authenticated reports whether Authenticate has succeeded for this
// session (spec.md §3's "authenticated flag").
func (s *session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Authenticate is the single-shot mutator of spec.md §4.4: it records
// userID/credentials and flips the authenticated flag exactly once. A
// second call on an already-authenticated session is rejected rather
// than silently replacing its identity.
func (s *session) Authenticate(userID, credentials string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authenticated {
		return errAlreadyAuthenticated
	}
	s.userID = userID
	s.credentials = credentials
	s.authenticated = true
	return nil
}

// --- socket.Context ------------------------------------------------------

func (s *session) Deadline() (time.Time, bool) { return s.ctx.Deadline() }
func (s *session) Done() <-chan struct{}       { return s.ctx.Done() }
func (s *session) Err() error                  { return s.ctx.Err() }
func (s *session) Value(key interface{}) interface{} {
	return s.ctx.Value(key)
}

func (s *session) IsConnected() bool { return s.Valid() }

func (s *session) LocalHost() string {
	if s.conn.local == nil {
		return ""
	}
	return s.conn.local.String()
}

func (s *session) RemoteHost() string {
	if s.conn.remote == nil {
		return ""
	}
	return s.conn.remote.String()
}

func (s *session) Read(p []byte) (int, error) {
	n, eof, err := s.conn.read(p)
	if err != nil {
		return n, err
	}
	if eof {
		return n, io.EOF
	}
	return n, nil
}

func (s *session) Write(p []byte) (int, error) {
	return s.conn.write(p)
}

var _ socket.Context = (*session)(nil)
var _ worker.Session = (*session)(nil)

// shutdown cancels the session's context and closes the underlying
// connection directly - used by the event loop's own teardown path,
// bypassing the Selector-Task Queue (the loop already owns the
// connection at that point).
func (s *session) shutdown() {
	s.cancel()
	_ = s.conn.close()
}
