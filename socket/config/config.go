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

// Package config holds the plain configuration structs for socket
// clients and servers (spec.md §6: configuration binding from properties
// is deliberately replaced by a plain struct, no reflective loading).
package config

import (
	"fmt"
	"net"
	"time"

	libptc "github.com/nabbar/nioreactor/network/protocol"
)

// Client describes a socket client's target.
type Client struct {
	Network libptc.NetworkProtocol
	Address string
}

// Validate checks Network/Address are consistent and resolvable.
func (c Client) Validate() error {
	if c.Network == libptc.NetworkEmpty {
		return fmt.Errorf("config: network protocol must be set")
	}

	if c.Network.IsUnix() {
		if c.Address == "" {
			return fmt.Errorf("config: unix socket path must not be empty")
		}
		return nil
	}

	if c.Address == "" {
		return fmt.Errorf("config: address must not be empty")
	}

	switch {
	case c.Network == libptc.NetworkTCP || c.Network == libptc.NetworkTCP4 || c.Network == libptc.NetworkTCP6:
		if _, err := net.ResolveTCPAddr(c.Network.Code(), c.Address); err != nil {
			return fmt.Errorf("config: invalid tcp address %q: %w", c.Address, err)
		}
	case c.Network == libptc.NetworkUDP || c.Network == libptc.NetworkUDP4 || c.Network == libptc.NetworkUDP6:
		if _, err := net.ResolveUDPAddr(c.Network.Code(), c.Address); err != nil {
			return fmt.Errorf("config: invalid udp address %q: %w", c.Address, err)
		}
	default:
		return fmt.Errorf("config: unsupported network protocol %q", c.Network)
	}

	return nil
}

// Server describes the reactor core's listening endpoint and tunables.
// Every field corresponds to a spec.md §6 configuration option.
type Server struct {
	// Network/Address: localHost:localPort (§6).
	Network libptc.NetworkProtocol
	Address string

	// RequestProcessor names the registered socket/worker.Factory to use;
	// default "echo" (requestProcessorClassname, §6).
	RequestProcessor string

	// NumRequestThreads sizes the worker pool; default 8, minimum 1 (§6).
	NumRequestThreads int

	// ShutdownGracePeriod bounds how long Shutdown waits for workers to
	// stop before escalating to interruption; default 30s (§6).
	ShutdownGracePeriod time.Duration

	// ReceiveBufferSize/SendBufferSize are hints applied to each accepted
	// Connection; defaults 8192/65536 (spec.md §3).
	ReceiveBufferSize int
	SendBufferSize    int

	// Debug enables verbose logging (§6).
	Debug bool
}

// DefaultServer returns a Server populated with spec.md §6's defaults.
func DefaultServer() Server {
	return Server{
		Network:             libptc.NetworkTCP,
		Address:             "localhost:4100",
		RequestProcessor:    "echo",
		NumRequestThreads:   8,
		ShutdownGracePeriod: 30 * time.Second,
		ReceiveBufferSize:   8192,
		SendBufferSize:      65536,
	}
}

// Validate applies the Server's own rules plus the zero-value defaulting
// spec.md §6 describes (a Server is valid on its own once defaulted).
func (s *Server) Validate() error {
	if s.Network == libptc.NetworkEmpty {
		s.Network = libptc.NetworkTCP
	}
	if !(s.Network == libptc.NetworkTCP || s.Network == libptc.NetworkTCP4 || s.Network == libptc.NetworkTCP6) {
		return fmt.Errorf("config: server network protocol %q is not a TCP family", s.Network)
	}
	if s.Address == "" {
		return fmt.Errorf("config: server address must not be empty")
	}
	if _, err := net.ResolveTCPAddr(s.Network.Code(), s.Address); err != nil {
		return fmt.Errorf("config: invalid server address %q: %w", s.Address, err)
	}
	if s.RequestProcessor == "" {
		s.RequestProcessor = "echo"
	}
	if s.NumRequestThreads < 1 {
		s.NumRequestThreads = 8
	}
	if s.ShutdownGracePeriod <= 0 {
		s.ShutdownGracePeriod = 30 * time.Second
	}
	if s.ReceiveBufferSize < 1 {
		s.ReceiveBufferSize = 8192
	}
	if s.SendBufferSize < 1 {
		s.SendBufferSize = 65536
	}
	return nil
}
