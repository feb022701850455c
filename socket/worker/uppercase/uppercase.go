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

// Package uppercase is a second, optional request processor demonstrating
// that socket/worker's registry is not a single-implementation facade. It
// is not required by any spec invariant.
package uppercase

import (
	"bytes"

	"github.com/nabbar/nioreactor/socket/worker"
)

const receiveBufferSize = 1460

func init() {
	worker.Register("uppercase", func(opts map[string]string) (worker.Processor, error) {
		return process, nil
	})
}

func process(sess worker.Session, ready worker.Ops) {
	if ready.Has(worker.OpWrite) {
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

	if ready.Has(worker.OpRead) {
		buf := make([]byte, receiveBufferSize)
		n, eof, err := sess.Recv(buf)
		if err != nil || eof {
			_ = sess.Close()
			return
		}
		if n == 0 {
			sess.ArmRead()
			return
		}

		out := bytes.ToUpper(buf[:n])
		sess.QueueWrite(out)
		sess.ArmWrite()
		sess.ArmRead()
	}
}
