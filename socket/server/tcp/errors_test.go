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

package tcp_test

import (
	"context"
	"testing"
	"time"

	"github.com/nabbar/nioreactor/logger"
	"github.com/nabbar/nioreactor/reactorerr"
	"github.com/nabbar/nioreactor/socket/config"
	"github.com/nabbar/nioreactor/socket/server/tcp"
	_ "github.com/nabbar/nioreactor/socket/worker"
)

// Invariant 7: binding a second server to an already-bound address
// fails with a BindError (reactorerr.CodeBind), and does not corrupt
// the first server's state.
func TestRebindFails(t *testing.T) {
	cfg := config.DefaultServer()
	cfg.Address = "127.0.0.1:0"
	cfg.NumRequestThreads = 1

	first, err := tcp.New(cfg, logger.New("test", false, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go first.Listen(ctx)
	waitRunning(t, first, time.Second)

	second, err := tcp.New(config.Server{
		Network:             cfg.Network,
		Address:             first.Addr().String(),
		RequestProcessor:    "echo",
		NumRequestThreads:   1,
		ShutdownGracePeriod: time.Second,
		ReceiveBufferSize:   8192,
		SendBufferSize:      65536,
	}, logger.New("test", false, nil))
	if err != nil {
		t.Fatalf("New (second): %v", err)
	}

	listenErr := second.Listen(context.Background())
	if listenErr == nil {
		t.Fatal("expected bind error rebinding the same address")
	}
	if !reactorerr.Is(listenErr, reactorerr.CodeBind) {
		t.Fatalf("expected CodeBind, got %v", listenErr)
	}

	if !first.IsRunning() {
		t.Fatal("first server should remain running after the rebind attempt")
	}

	first.Shutdown(ctx)
}

func TestInvalidHandlerRejectedAtConstruction(t *testing.T) {
	cfg := config.DefaultServer()
	cfg.Address = "127.0.0.1:0"
	cfg.RequestProcessor = "does-not-exist"

	if _, err := tcp.New(cfg, logger.New("test", false, nil)); err == nil {
		t.Fatal("expected error constructing a server with an unregistered request processor")
	}
}
