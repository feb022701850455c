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

package uppercase

import (
	"testing"

	"github.com/nabbar/nioreactor/socket/worker"
)

func TestRegisteredAsUppercase(t *testing.T) {
	found := false
	for _, name := range worker.Registered() {
		if name == "uppercase" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected \"uppercase\" to be registered by its init()")
	}
}

func TestCreateReturnsWorkingProcessor(t *testing.T) {
	p, err := worker.Create("uppercase", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sess := &recordingSession{recvData: []byte("hello")}
	p(sess, worker.OpRead)

	if len(sess.pending) != 1 || string(sess.pending[0]) != "HELLO" {
		t.Fatalf("pending = %v, want [HELLO]", sess.pending)
	}
}

type recordingSession struct {
	recvData []byte
	pending  [][]byte
	closed   bool
}

func (s *recordingSession) Valid() bool { return !s.closed }

func (s *recordingSession) Recv(buf []byte) (int, bool, error) {
	n := copy(buf, s.recvData)
	s.recvData = nil
	return n, false, nil
}

func (s *recordingSession) QueueWrite(buf []byte)  { s.pending = append(s.pending, buf) }
func (s *recordingSession) HasPendingWrite() bool  { return len(s.pending) > 0 }
func (s *recordingSession) SendPending() (int, bool, error) {
	if len(s.pending) == 0 {
		return 0, true, nil
	}
	head := s.pending[0]
	s.pending = s.pending[1:]
	return len(head), len(s.pending) == 0, nil
}
func (s *recordingSession) ArmRead()     {}
func (s *recordingSession) ArmWrite()    {}
func (s *recordingSession) DisarmWrite() {}
func (s *recordingSession) Close() error { s.closed = true; return nil }

func (s *recordingSession) UserID() string                     { return "" }
func (s *recordingSession) Authenticated() bool                { return false }
func (s *recordingSession) Authenticate(string, string) error  { return nil }

var _ worker.Session = (*recordingSession)(nil)
