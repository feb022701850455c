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

package reactorerr

// CodeError is a numeric error classification, similar in spirit to an
// HTTP status code. Each subsystem reserves a range of the space so codes
// never collide across packages.
type CodeError uint16

// MinPkgSocket is the first code reserved for the socket/server/tcp
// reactor core. Leaves room below for future packages without reshuffling
// these values.
const MinPkgSocket CodeError = 100

// UnknownError is the zero value, used when no specific code applies.
const UnknownError CodeError = 0

const (
	// CodeBind: the listener could not bind the configured address. Fatal,
	// surfaced to the caller of Listen.
	CodeBind CodeError = MinPkgSocket + iota + 1

	// CodeAccept: a single accept attempt failed. Logged, loop continues.
	CodeAccept

	// CodeSessionInit: Session construction failed for an accepted socket.
	// Logged; the accepted socket is closed.
	CodeSessionInit

	// CodeIO: a read or write on a connection failed. Logged; connection
	// closed; interest not re-armed.
	CodeIO

	// CodeStaleKey: a selector task referenced an invalid/cancelled key or
	// a closed selector. Logged at warn; task dropped.
	CodeStaleKey

	// CodeQueueRejected: the request queue refused a session. Logged at
	// warn; dispatch dropped, interest bit stays cleared.
	CodeQueueRejected

	// CodeWorkerFault: a worker method raised unexpectedly. Caught at the
	// run-loop boundary, logged, loop continues.
	CodeWorkerFault

	// CodeShutdownEscalation: a worker failed to stop within the grace
	// period and was abandoned, or open sessions were force-closed.
	CodeShutdownEscalation
)

var codeMessages = map[CodeError]string{
	UnknownError:           "unknown error",
	CodeBind:                "bind error",
	CodeAccept:              "accept error",
	CodeSessionInit:         "session init error",
	CodeIO:                  "io error",
	CodeStaleKey:            "stale selector key",
	CodeQueueRejected:       "request queue rejected session",
	CodeWorkerFault:         "worker fault",
	CodeShutdownEscalation:  "shutdown escalation",
}

// Message returns the default human-readable message for a code, or the
// generic unknown-error message if the code is not registered.
func (c CodeError) Message() string {
	if m, ok := codeMessages[c]; ok {
		return m
	}
	return codeMessages[UnknownError]
}
