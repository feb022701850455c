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

// Package tcp is a minimal socket.Client implementation over net.Dial
// for dialing socket/server/tcp.Server. The repository's own tests dial
// with net.DialTimeout and do not use it. It is deliberately ordinary - there is no
// reactor on the client side of this repository's scope.
package tcp

import (
	"context"
	"net"
	"sync"

	"github.com/nabbar/nioreactor/socket"
	"github.com/nabbar/nioreactor/socket/config"
)

// Client implements socket.Client by dialing a plain net.Conn.
type Client struct {
	cfg config.Client

	mu   sync.Mutex
	conn net.Conn

	funcErr    socket.FuncError
	funcInfo   socket.FuncInfo
	funcUpdate socket.UpdateConn
}

// New builds a Client targeting cfg. cfg is validated eagerly.
func New(cfg config.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:      cfg,
		funcErr:  func(errs ...error) {},
		funcInfo: func(local, remote net.Addr, state socket.ConnState) {},
	}, nil
}

// RegisterUpdateConn registers a hook invoked once on the dialed
// net.Conn, right after Connect succeeds and before it is used for any
// Read/Write - the one caller in this repository able to apply
// socket.UpdateConn to a real net.Conn (see socket.UpdateConn's doc).
func (c *Client) RegisterUpdateConn(fct socket.UpdateConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcUpdate = fct
}

func (c *Client) RegisterFuncError(fct socket.FuncError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcErr = fct
}

func (c *Client) RegisterFuncInfo(fct socket.FuncInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcInfo = fct
}

// Connect dials the configured address, honoring ctx's deadline.
func (c *Client) Connect(ctx context.Context) error {
	var d net.Dialer

	conn, err := d.DialContext(ctx, c.cfg.Network.Code(), c.cfg.Address)
	if err != nil {
		c.funcErr(err)
		return err
	}

	c.mu.Lock()
	if c.funcUpdate != nil {
		c.funcUpdate(conn)
	}
	c.conn = conn
	c.mu.Unlock()

	c.funcInfo(conn.LocalAddr(), conn.RemoteAddr(), socket.ConnectionDial)
	return nil
}

func (c *Client) Read(p []byte) (int, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return 0, net.ErrClosed
	}
	return conn.Read(p)
}

func (c *Client) Write(p []byte) (int, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return 0, net.ErrClosed
	}
	return conn.Write(p)
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return socket.ErrorFilter(conn.Close())
}

var _ socket.Client = (*Client)(nil)
