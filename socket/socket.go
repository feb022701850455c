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

// Package socket defines the protocol-agnostic surface shared by every
// socket client and server implementation in this repository: the
// Server/Client lifecycle interfaces, the Context a handler sees, and a
// handful of small helpers (ConnState, ErrorFilter) used for
// observability.
package socket

import (
	"context"
	"net"
	"strings"
)

// DefaultBufferSize is the default size of the internal read buffer used
// where a caller has not set a more specific value.
const DefaultBufferSize = 32 * 1024

// EOL is the line terminator used by delimiter-based helpers.
const EOL = '\n'

// ConnState marks a point in a connection's lifecycle. It exists purely
// for the optional FuncInfo observability callback; no invariant depends
// on it.
type ConnState uint8

const (
	ConnectionDial ConnState = iota
	ConnectionNew
	ConnectionRead
	ConnectionCloseRead
	ConnectionHandler
	ConnectionWrite
	ConnectionCloseWrite
	ConnectionClose
)

var connStateNames = map[ConnState]string{
	ConnectionDial:       "Dial Connection",
	ConnectionNew:        "New Connection",
	ConnectionRead:       "Read Incoming Stream",
	ConnectionCloseRead:  "Close Incoming Stream",
	ConnectionHandler:    "Run HandlerFunc",
	ConnectionWrite:      "Write Outgoing Steam",
	ConnectionCloseWrite: "Close Outgoing Stream",
	ConnectionClose:      "Close Connection",
}

func (s ConnState) String() string {
	if n, ok := connStateNames[s]; ok {
		return n
	}
	return "unknown connection state"
}

// FuncError is registered on a Server/Client to receive non-fatal errors
// as they occur (accept failures, io errors, ...).
type FuncError func(errs ...error)

// FuncInfo is registered on a Server/Client to observe connection
// lifecycle transitions.
type FuncInfo func(local, remote net.Addr, state ConnState)

// UpdateConn customizes a freshly dialed net.Conn (e.g. socket buffer
// sizes, Nagle) before it is handed back to the caller. The reactor
// server side does not use this hook - its Connection wraps a raw fd
// instead of a net.Conn so the event loop keeps direct interest-ops
// control (see socket/server/tcp/connection.go), and toggles Nagle
// itself via enableNagle/disableNagle. socket/client/tcp.Client is the
// one caller that dials a plain net.Conn and accepts an UpdateConn hook.
type UpdateConn func(net.Conn)

// Context is the view of one connection a HandlerFunc operates on.
type Context interface {
	context.Context

	IsConnected() bool
	LocalHost() string
	RemoteHost() string

	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// HandlerFunc processes one connection, end to end, given its Context.
// The reactor server in socket/server/tcp does not invoke HandlerFuncs:
// its per-dispatch logic is a socket/worker.Processor, by default the
// byte-for-byte echo (spec.md §4.2.2).
type HandlerFunc func(ctx Context)

// Server is the lifecycle interface a protocol-specific server
// implements (socket/server/tcp.Server implements this interface).
type Server interface {
	RegisterFuncError(fct FuncError)
	RegisterFuncInfo(fct FuncInfo)
	RegisterServer(address string) error

	Listen(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Close() error

	IsRunning() bool
	IsGone() bool
	OpenConnections() int64
	Done() <-chan struct{}
}

// Client is the lifecycle interface a protocol-specific client
// implements.
type Client interface {
	RegisterFuncError(fct FuncError)
	RegisterFuncInfo(fct FuncInfo)

	Connect(ctx context.Context) error
	Close() error

	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// ErrorFilter drops errors that are the expected result of closing a
// connection that is already being torn down, so shutdown paths don't
// spam the logs with "use of closed network connection". Any other
// error is returned unchanged.
func ErrorFilter(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "use of closed network connection") {
		return nil
	}
	return err
}
