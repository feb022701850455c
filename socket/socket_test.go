package socket_test

import (
	"fmt"
	"testing"

	libsck "github.com/nabbar/nioreactor/socket"
)

func TestErrorFilter(t *testing.T) {
	tests := []struct {
		name string
		err  error
		exp  error
	}{
		{"nil error", nil, nil},
		{"closed connection", fmt.Errorf("use of closed network connection"), nil},
		{"normal error", fmt.Errorf("connection timeout"), fmt.Errorf("connection timeout")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := libsck.ErrorFilter(tc.err)
			if tc.exp == nil {
				if got != nil {
					t.Errorf("expected nil, got %v", got)
				}
				return
			}
			if got == nil || got.Error() != tc.exp.Error() {
				t.Errorf("expected %v, got %v", tc.exp, got)
			}
		})
	}
}

func TestConnStateString(t *testing.T) {
	tests := []struct {
		state libsck.ConnState
		exp   string
	}{
		{libsck.ConnectionDial, "Dial Connection"},
		{libsck.ConnectionNew, "New Connection"},
		{libsck.ConnectionRead, "Read Incoming Stream"},
		{libsck.ConnectionHandler, "Run HandlerFunc"},
		{libsck.ConnectionWrite, "Write Outgoing Steam"},
		{libsck.ConnectionClose, "Close Connection"},
		{libsck.ConnState(255), "unknown connection state"},
	}

	for _, tc := range tests {
		if got := tc.state.String(); got != tc.exp {
			t.Errorf("ConnState(%d).String() = %q, want %q", tc.state, got, tc.exp)
		}
	}
}

func TestDefaultBufferSize(t *testing.T) {
	if libsck.DefaultBufferSize != 32*1024 {
		t.Errorf("DefaultBufferSize = %d, want %d", libsck.DefaultBufferSize, 32*1024)
	}
}

func TestEOL(t *testing.T) {
	if libsck.EOL != '\n' {
		t.Errorf("EOL = %q, want newline", libsck.EOL)
	}
}
