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

// echoReceiveBufferSize is the reference value from spec.md §4.2.2. Real
// workers may use any value >= 1; this one is only the default's choice.
const echoReceiveBufferSize = 1460

func init() {
	Register("echo", func(opts map[string]string) (Processor, error) {
		return EchoProcessor, nil
	})
}

// EchoProcessor is the reference request processor: it performs no
// protocol interpretation at all, only spec.md §4.2.1 (write handling)
// and §4.2.2 (read handling, echoing every byte received back onto the
// same session's pending-write queue).
func EchoProcessor(sess Session, ready Ops) {
	if ready.Has(OpWrite) {
		processWrite(sess)
	}
	if ready.Has(OpRead) {
		processRead(sess)
	}
}

// processWrite implements spec.md §4.2.1 verbatim.
func processWrite(sess Session) {
	for sess.HasPendingWrite() {
		_, drained, err := sess.SendPending()
		if err != nil {
			_ = sess.Close()
			return
		}
		if !drained {
			sess.ArmWrite()
			return
		}
	}
	sess.DisarmWrite()
}

// processRead implements spec.md §4.2.2 verbatim.
func processRead(sess Session) {
	buf := make([]byte, echoReceiveBufferSize)

	total := 0
	for total < len(buf) {
		n, eof, err := sess.Recv(buf[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			flushAndClose(sess, buf[:total])
			return
		}
		if eof {
			// Bytes already read this dispatch (n>0 on this same call, or
			// on an earlier call in the loop) still need to reach the
			// peer before the session closes - a second Recv reporting
			// eof after a first one delivered data is a routine
			// interleaving, not an edge case.
			flushAndClose(sess, buf[:total])
			return
		}
		if n == 0 {
			break
		}
	}

	if total == 0 {
		sess.ArmRead()
		return
	}

	out := make([]byte, total)
	copy(out, buf[:total])

	sess.QueueWrite(out)
	sess.ArmWrite()
	sess.ArmRead()
}

// flushAndClose queues any bytes already accumulated in read for echo
// before closing the session, so they are never silently dropped just
// because EOF (or an error) follows them in the same dispatch.
func flushAndClose(sess Session, read []byte) {
	if len(read) > 0 {
		out := make([]byte, len(read))
		copy(out, read)
		sess.QueueWrite(out)
		sess.ArmWrite()
	}
	_ = sess.Close()
}
