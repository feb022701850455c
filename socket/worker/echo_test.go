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

package worker

import (
	"errors"
	"testing"
)

// fakeSession is a minimal in-memory Session double for exercising
// EchoProcessor without a real connection.
type fakeSession struct {
	recvData []byte
	recvErr  error
	recvEOF  bool

	pending   [][]byte
	closed    bool
	armedRead bool
	armedW    bool
	disarmedW bool

	writeErr error
	partial  bool // SendPending only partially drains the head buffer once

	userID        string
	authenticated bool
}

func (f *fakeSession) Valid() bool { return !f.closed }

func (f *fakeSession) Recv(buf []byte) (int, bool, error) {
	if f.recvErr != nil {
		return 0, false, f.recvErr
	}
	n := copy(buf, f.recvData)
	f.recvData = nil
	return n, f.recvEOF, nil
}

func (f *fakeSession) QueueWrite(buf []byte) {
	f.pending = append(f.pending, buf)
}

func (f *fakeSession) HasPendingWrite() bool { return len(f.pending) > 0 }

func (f *fakeSession) SendPending() (int, bool, error) {
	if f.writeErr != nil {
		return 0, false, f.writeErr
	}
	if len(f.pending) == 0 {
		return 0, true, nil
	}
	head := f.pending[0]
	if f.partial {
		f.partial = false
		return len(head) / 2, false, nil
	}
	f.pending = f.pending[1:]
	return len(head), len(f.pending) == 0, nil
}

func (f *fakeSession) ArmRead()     { f.armedRead = true }
func (f *fakeSession) ArmWrite()    { f.armedW = true }
func (f *fakeSession) DisarmWrite() { f.disarmedW = true }
func (f *fakeSession) Close() error { f.closed = true; return nil }

func (f *fakeSession) UserID() string      { return f.userID }
func (f *fakeSession) Authenticated() bool { return f.authenticated }
func (f *fakeSession) Authenticate(userID, _ string) error {
	if f.authenticated {
		return errors.New("already authenticated")
	}
	f.userID = userID
	f.authenticated = true
	return nil
}

var _ Session = (*fakeSession)(nil)

func TestEchoProcessorReadQueuesWrite(t *testing.T) {
	sess := &fakeSession{recvData: []byte("abc")}
	EchoProcessor(sess, OpRead)

	if len(sess.pending) != 1 || string(sess.pending[0]) != "abc" {
		t.Fatalf("pending = %v, want [abc]", sess.pending)
	}
	if !sess.armedW || !sess.armedRead {
		t.Fatal("expected both ArmWrite and ArmRead after a successful read")
	}
}

// multiRecvSession replays a fixed sequence of Recv results, one per
// call, to exercise interleavings a single []byte buffer can't express -
// in particular, bytes delivered on one Recv followed by EOF on the
// next Recv within the same dispatch.
type multiRecvSession struct {
	fakeSession
	calls  [][]byte
	eofAt  int // index (0-based) of the call that reports eof
	cursor int
}

func (f *multiRecvSession) Recv(buf []byte) (int, bool, error) {
	if f.cursor >= len(f.calls) {
		return 0, true, nil
	}
	data := f.calls[f.cursor]
	eof := f.cursor == f.eofAt
	f.cursor++
	return copy(buf, data), eof, nil
}

func TestEchoProcessorFlushesPendingBytesBeforeEOF(t *testing.T) {
	sess := &multiRecvSession{
		calls: [][]byte{[]byte("hello"), nil},
		eofAt: 1,
	}
	EchoProcessor(sess, OpRead)

	if !sess.closed {
		t.Fatal("expected Close once EOF is observed")
	}
	if len(sess.pending) != 1 || string(sess.pending[0]) != "hello" {
		t.Fatalf("pending = %v, want the bytes read before EOF to be queued for echo", sess.pending)
	}
	if !sess.armedW {
		t.Fatal("expected ArmWrite so the flushed bytes are actually sent before close takes effect")
	}
}

func TestEchoProcessorReadEOFCloses(t *testing.T) {
	sess := &fakeSession{recvEOF: true}
	EchoProcessor(sess, OpRead)

	if !sess.closed {
		t.Fatal("expected Close on EOF")
	}
	if sess.armedRead {
		t.Fatal("should not re-arm read after EOF")
	}
}

func TestEchoProcessorReadErrorCloses(t *testing.T) {
	sess := &fakeSession{recvErr: errors.New("boom")}
	EchoProcessor(sess, OpRead)

	if !sess.closed {
		t.Fatal("expected Close on read error")
	}
}

func TestEchoProcessorReadBlockedArmsReadOnly(t *testing.T) {
	sess := &fakeSession{} // Recv returns 0, false, nil - simulates EAGAIN
	EchoProcessor(sess, OpRead)

	if !sess.armedRead {
		t.Fatal("expected ArmRead when no bytes were available")
	}
	if sess.armedW {
		t.Fatal("should not arm write when nothing was read")
	}
}

func TestEchoProcessorWriteDrainsDisarms(t *testing.T) {
	sess := &fakeSession{pending: [][]byte{[]byte("xyz")}}
	EchoProcessor(sess, OpWrite)

	if !sess.disarmedW {
		t.Fatal("expected DisarmWrite once the queue drains")
	}
	if sess.armedW {
		t.Fatal("should not re-arm write once drained")
	}
}

func TestEchoProcessorWritePartialRearms(t *testing.T) {
	sess := &fakeSession{pending: [][]byte{[]byte("0123456789")}, partial: true}
	EchoProcessor(sess, OpWrite)

	if !sess.armedW {
		t.Fatal("expected ArmWrite on a partial write")
	}
	if sess.disarmedW {
		t.Fatal("should not disarm write on a partial write")
	}
	if len(sess.pending) != 1 {
		t.Fatal("head buffer should remain queued after a partial write")
	}
}

func TestEchoProcessorWriteErrorCloses(t *testing.T) {
	sess := &fakeSession{pending: [][]byte{[]byte("x")}, writeErr: errors.New("io fail")}
	EchoProcessor(sess, OpWrite)

	if !sess.closed {
		t.Fatal("expected Close on write error")
	}
}
