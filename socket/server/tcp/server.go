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

// Package tcp implements the reactor-style TCP server core: a
// single-threaded event loop holding exclusive ownership of a readiness
// selector, a fixed-size worker pool pulling off a Request Queue, and a
// Selector-Task Queue workers use to request interest-ops changes back
// on the event loop. See connection.go, session.go and eventloop.go for
// the pieces, and server.go (this file) for the socket.Server facade.
package tcp

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/nabbar/nioreactor/logger"
	"github.com/nabbar/nioreactor/reactorerr"
	"github.com/nabbar/nioreactor/socket"
	"github.com/nabbar/nioreactor/socket/config"
	"github.com/nabbar/nioreactor/socket/worker"
)

// Server implements socket.Server over the reactor core in this
// package.
type Server struct {
	cfg config.Server
	log logger.Logger

	mu       sync.Mutex
	addr     *net.TCPAddr
	listenFd int
	loop     *eventLoop

	running atomic.Bool
	gone    atomic.Bool
	doneCh  chan struct{}

	funcErr  socket.FuncError
	funcInfo socket.FuncInfo
}

// New builds a Server from cfg. cfg is validated (and zero-defaulted)
// eagerly, and the configured request processor must already be
// registered (socket/worker.Register), so misconfiguration surfaces
// before Listen is called rather than on the first accepted connection.
func New(cfg config.Server, log logger.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.New("nioreactor", cfg.Debug, nil)
	}
	if _, err := worker.Create(cfg.RequestProcessor, nil); err != nil {
		return nil, reactorerr.New(reactorerr.CodeWorkerFault, err)
	}

	return &Server{
		cfg:      cfg,
		log:      log,
		doneCh:   make(chan struct{}),
		funcErr:  func(errs ...error) {},
		funcInfo: func(local, remote net.Addr, state socket.ConnState) {},
	}, nil
}

// RegisterServer re-resolves the listening address, overriding the one
// carried by the configuration passed to New. Must be called before
// Listen.
func (s *Server) RegisterServer(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr, err := net.ResolveTCPAddr(s.cfg.Network.Code(), address)
	if err != nil {
		return reactorerr.New(reactorerr.CodeBind, err)
	}
	s.cfg.Address = address
	s.addr = addr
	return nil
}

func (s *Server) RegisterFuncError(fct socket.FuncError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcErr = fct
}

func (s *Server) RegisterFuncInfo(fct socket.FuncInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcInfo = fct
}

// Listen binds the listening socket, starts the worker pool and the
// event loop, and blocks until ctx is cancelled or Shutdown/Close is
// called. Only BindError (spec.md §7) is returned; everything after a
// successful bind is reported via the registered FuncError instead
// (spec.md §7 propagation policy).
func (s *Server) Listen(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	s.mu.Lock()
	addr := s.addr
	if addr == nil {
		resolved, err := net.ResolveTCPAddr(s.cfg.Network.Code(), s.cfg.Address)
		if err != nil {
			s.mu.Unlock()
			s.running.Store(false)
			return reactorerr.New(reactorerr.CodeBind, err)
		}
		addr = resolved
	}
	s.mu.Unlock()

	proc, err := worker.Create(s.cfg.RequestProcessor, nil)
	if err != nil {
		s.running.Store(false)
		return reactorerr.New(reactorerr.CodeWorkerFault, err)
	}

	fd, err := bindListener(addr)
	if err != nil {
		s.running.Store(false)
		return reactorerr.New(reactorerr.CodeBind, err)
	}

	if bound, serr := unix.Getsockname(fd); serr == nil {
		s.mu.Lock()
		s.addr, _ = sockaddrToAddr(bound).(*net.TCPAddr)
		s.mu.Unlock()
	}

	loop, err := newEventLoop(ctx, fd, proc, s.cfg.NumRequestThreads, s.cfg.ReceiveBufferSize, s.cfg.SendBufferSize, s.log)
	if err != nil {
		_ = unix.Close(fd)
		s.running.Store(false)
		return reactorerr.New(reactorerr.CodeBind, err)
	}

	s.mu.Lock()
	s.listenFd = fd
	s.loop = loop
	s.mu.Unlock()

	loop.registerFuncs(s.funcErr, s.funcInfo)

	if err := loop.start(ctx); err != nil {
		_ = unix.Close(fd)
		s.running.Store(false)
		return reactorerr.New(reactorerr.CodeBind, err)
	}

	select {
	case <-ctx.Done():
		s.Shutdown(context.Background())
	case <-s.doneCh:
	}
	return nil
}

// Shutdown implements spec.md §5's graceful shutdown procedure: stop
// accepting, wait up to ShutdownGracePeriod for in-flight work to
// drain, then escalate.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()

	if loop == nil {
		return ErrNotRunning
	}

	loop.shutdown(ctx, s.cfg.ShutdownGracePeriod)

	s.gone.Store(true)
	close(s.doneCh)
	return nil
}

// Close is Shutdown with a background context: it applies the same
// ShutdownGracePeriod bound on waiting for the worker pool.
func (s *Server) Close() error {
	return s.Shutdown(context.Background())
}

func (s *Server) IsRunning() bool { return s.running.Load() }
func (s *Server) IsGone() bool    { return s.gone.Load() }

func (s *Server) OpenConnections() int64 {
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	if loop == nil {
		return 0
	}
	return loop.openConnections()
}

func (s *Server) Done() <-chan struct{} { return s.doneCh }

// Addr returns the actual bound listening address, populated once
// Listen has successfully bound the socket (useful when the configured
// port is 0 and the OS assigns one).
func (s *Server) Addr() *net.TCPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// bindListener creates a non-blocking, listening TCP socket bound to
// addr, grounded on the accept4/SOCK_NONBLOCK idiom the reactor's own
// event loop uses for accepted connections.
func bindListener(addr *net.TCPAddr) (int, error) {
	domain := unix.AF_INET
	sa := &unix.SockaddrInet4{Port: addr.Port}
	if ip4 := addr.IP.To4(); ip4 != nil {
		copy(sa.Addr[:], ip4)
	} else if ip6 := addr.IP.To16(); ip6 != nil {
		domain = unix.AF_INET6
		sa6 := &unix.SockaddrInet6{Port: addr.Port}
		copy(sa6.Addr[:], ip6)
		return bindAndListen(domain, sa6)
	}
	return bindAndListen(domain, sa)
}

func bindAndListen(domain int, sa unix.Sockaddr) (int, error) {
	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

var _ socket.Server = (*Server)(nil)
