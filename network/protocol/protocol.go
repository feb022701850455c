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

// Package protocol enumerates the network families a socket client or
// server may use, and maps each to the string Go's net package expects.
package protocol

import (
	"fmt"
	"strings"
)

// NetworkProtocol identifies a network family for a socket client or server.
type NetworkProtocol uint8

const (
	NetworkEmpty NetworkProtocol = iota
	NetworkTCP
	NetworkTCP4
	NetworkTCP6
	NetworkUDP
	NetworkUDP4
	NetworkUDP6
	NetworkUnix
	NetworkUnixGram
)

var protocolNames = map[NetworkProtocol]string{
	NetworkEmpty:    "",
	NetworkTCP:      "tcp",
	NetworkTCP4:     "tcp4",
	NetworkTCP6:     "tcp6",
	NetworkUDP:      "udp",
	NetworkUDP4:     "udp4",
	NetworkUDP6:     "udp6",
	NetworkUnix:     "unix",
	NetworkUnixGram: "unixgram",
}

// Code returns the string literal net.Dial/net.Listen expects for this
// protocol (e.g. "tcp4", "unixgram").
func (n NetworkProtocol) Code() string {
	return protocolNames[n]
}

// String implements fmt.Stringer, returning the same value as Code.
func (n NetworkProtocol) String() string {
	if s, ok := protocolNames[n]; ok && s != "" {
		return s
	}
	return "unknown"
}

// IsStream reports whether the protocol is connection-oriented (TCP or
// Unix stream sockets), as opposed to datagram-oriented.
func (n NetworkProtocol) IsStream() bool {
	switch n {
	case NetworkTCP, NetworkTCP4, NetworkTCP6, NetworkUnix:
		return true
	default:
		return false
	}
}

// IsUnix reports whether the protocol addresses a filesystem path rather
// than a host:port pair.
func (n NetworkProtocol) IsUnix() bool {
	return n == NetworkUnix || n == NetworkUnixGram
}

// Parse maps a string (case-insensitive) back to a NetworkProtocol.
func Parse(s string) (NetworkProtocol, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, n := range protocolNames {
		if p == NetworkEmpty {
			continue
		}
		if n == s {
			return p, nil
		}
	}
	return NetworkEmpty, fmt.Errorf("protocol: unknown network protocol %q", s)
}
