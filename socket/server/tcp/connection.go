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
	"net"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// connection is the leaf of the dependency order (spec.md §2): a raw,
// non-blocking file descriptor plus the addressing information captured
// at accept time. It is owned exclusively by the event loop goroutine;
// workers only ever reach it through a session's narrow surface.
//
// A plain net.Conn is deliberately not used here: its runtime netpoller
// already multiplexes readiness internally, which would hide the
// interest-ops state machine spec.md §4.1 requires the reactor itself to
// own.
type connection struct {
	fd     int
	local  net.Addr
	remote net.Addr
	closed atomic.Bool
	nagle  bool
}

func newConnection(fd int, local, remote net.Addr) *connection {
	c := &connection{fd: fd, local: local, remote: remote, nagle: true}
	return c
}

// setBuffers applies the configured receive/send buffer hints (spec.md
// §3) to the underlying socket. Best-effort: failures are not fatal to
// the connection.
func (c *connection) setBuffers(recv, send int) {
	if recv > 0 {
		_ = unix.SetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_RCVBUF, recv)
	}
	if send > 0 {
		_ = unix.SetsockoptInt(c.fd, unix.SOL_SOCKET, unix.SO_SNDBUF, send)
	}
}

// disableNagle sets TCP_NODELAY, so small writes go out immediately
// instead of waiting for more data or an ACK (spec.md §4.3).
func (c *connection) disableNagle() error {
	if err := unix.SetsockoptInt(c.fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		return err
	}
	c.nagle = false
	return nil
}

// enableNagle clears TCP_NODELAY, restoring the OS default batching
// behavior (spec.md §4.3).
func (c *connection) enableNagle() error {
	if err := unix.SetsockoptInt(c.fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 0); err != nil {
		return err
	}
	c.nagle = true
	return nil
}

func (c *connection) nagleEnabled() bool {
	return c.nagle
}

// read performs one non-blocking read. It reports n==0, eof==false,
// err==nil when the socket would block (EAGAIN/EWOULDBLOCK) - the
// caller must re-arm READ and wait for the next readiness notification.
// n==0, eof==true, err==nil signals the peer closed its write side.
func (c *connection) read(buf []byte) (n int, eof bool, err error) {
	if c.closed.Load() {
		return 0, true, nil
	}

	rn, rerr := unix.Read(c.fd, buf)
	if rerr != nil {
		if rerr == unix.EAGAIN || rerr == unix.EWOULDBLOCK || rerr == unix.EINTR {
			return 0, false, nil
		}
		return 0, false, rerr
	}
	if rn == 0 {
		return 0, true, nil
	}
	return rn, false, nil
}

// write performs one non-blocking write of buf. wrote may be less than
// len(buf) - the caller is responsible for retaining the remainder.
func (c *connection) write(buf []byte) (wrote int, err error) {
	if c.closed.Load() {
		return 0, unix.EBADF
	}

	wn, werr := unix.Write(c.fd, buf)
	if werr != nil {
		if werr == unix.EAGAIN || werr == unix.EWOULDBLOCK || werr == unix.EINTR {
			return 0, nil
		}
		return 0, werr
	}
	return wn, nil
}

// close releases the file descriptor. Safe to call more than once.
func (c *connection) close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(c.fd)
}

func (c *connection) isClosed() bool {
	return c.closed.Load()
}
