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

//go:build linux

package tcp

import (
	"golang.org/x/sys/unix"
)

// poller wraps a Linux epoll instance plus an eventfd "anchor handle"
// registered alongside real connections (Design Notes §9's open
// question on preventing an empty selector from busy-looping). Without
// it, a selector with zero armed connections - between accepting the
// first client and the very first readiness event, or during a lull
// between connections - would otherwise have nothing to block on and
// the event loop would have to poll with a timeout. The anchor is
// always registered for read-readiness and is never deregistered; it is
// also how the event loop learns that a SelectorTask was enqueued or
// that Shutdown was requested, without a separate wakeup channel.
type poller struct {
	epfd   int
	wakefd int
}

const anchorKey = -1

func newPoller() (*poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}

	p := &poller{epfd: epfd, wakefd: wakefd}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(anchorKey)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, p.wakefd, &ev); err != nil {
		_ = unix.Close(p.wakefd)
		_ = unix.Close(epfd)
		return nil, err
	}
	return p, nil
}

// wake signals the anchor handle, unblocking a pending EpollWait so the
// event loop can drain the Selector-Task Queue or notice a shutdown
// request.
func (p *poller) wake() {
	buf := [8]byte{1, 0, 0, 0, 0, 0, 0, 0}
	_, _ = unix.Write(p.wakefd, buf[:])
}

// drainWake consumes the eventfd counter so repeated wakeups don't pile
// up spurious readiness notifications.
func (p *poller) drainWake() {
	var buf [8]byte
	for {
		_, err := unix.Read(p.wakefd, buf[:])
		if err != nil {
			return
		}
	}
}

func (p *poller) add(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *poller) modify(fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *poller) remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// wait blocks until at least one descriptor is ready, filling events and
// returning the number filled. A negative timeoutMs blocks indefinitely.
func (p *poller) wait(events []unix.EpollEvent, timeoutMs int) (int, error) {
	for {
		n, err := unix.EpollWait(p.epfd, events, timeoutMs)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func (p *poller) close() error {
	_ = unix.Close(p.wakefd)
	return unix.Close(p.epfd)
}
