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
	"net"
	"sync"
	"testing"
	"time"

	"github.com/nabbar/nioreactor/logger"
	"github.com/nabbar/nioreactor/socket/config"
	"github.com/nabbar/nioreactor/socket/server/tcp"
	_ "github.com/nabbar/nioreactor/socket/worker"
)

// Invariant 1: at most one worker ever processes a given session
// concurrently. Proven here by hammering a single connection with
// back-to-back writes while a second goroutine reads, and checking every
// echoed byte round-trips without interleaving corruption - corruption would
// indicate two workers racing on the same session's write queue.
func TestNoConcurrentDispatchPerSession(t *testing.T) {
	cfg := config.DefaultServer()
	cfg.Address = "127.0.0.1:0"
	cfg.NumRequestThreads = 8

	srv, err := tcp.New(cfg, logger.New("test", false, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.Listen(ctx)
	waitRunning(t, srv, time.Second)

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	const messages = 200
	msg := []byte("0123456789")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, len(msg))
		for i := 0; i < messages; i++ {
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			if _, err := readFull(conn, buf); err != nil {
				t.Errorf("read %d: %v", i, err)
				return
			}
			if string(buf) != string(msg) {
				t.Errorf("echo %d corrupted: got %q", i, buf)
				return
			}
		}
	}()

	for i := 0; i < messages; i++ {
		if _, err := conn.Write(msg); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	wg.Wait()

	srv.Shutdown(ctx)
}

// Invariant 3: the worker pool never grows or shrinks past
// NumRequestThreads, even under concurrent load from many clients.
// Exercised indirectly: a pool of 2 workers must still serve 50
// concurrent clients to completion (if the pool silently spawned a
// goroutine per connection instead, this would pass trivially and prove
// nothing - the real assertion is the absence of deadlock/starvation
// under a deliberately small, fixed pool).
func TestFixedPoolServesManyClients(t *testing.T) {
	cfg := config.DefaultServer()
	cfg.Address = "127.0.0.1:0"
	cfg.NumRequestThreads = 2

	srv, err := tcp.New(cfg, logger.New("test", false, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.Listen(ctx)
	waitRunning(t, srv, time.Second)

	const clients = 50
	var wg sync.WaitGroup
	wg.Add(clients)
	for i := 0; i < clients; i++ {
		go func(n int) {
			defer wg.Done()
			conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
			if err != nil {
				t.Errorf("client %d dial: %v", n, err)
				return
			}
			defer conn.Close()

			conn.Write([]byte("hi"))
			buf := make([]byte, 2)
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			if _, err := readFull(conn, buf); err != nil {
				t.Errorf("client %d read: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	srv.Shutdown(ctx)
}

// Invariant 6: every SelectorTask is eventually applied by the event
// loop, even when enqueued from many workers simultaneously - otherwise
// a connection could get stuck with WRITE permanently disarmed.
func TestSelectorTasksAllApplied(t *testing.T) {
	cfg := config.DefaultServer()
	cfg.Address = "127.0.0.1:0"
	cfg.NumRequestThreads = 4

	srv, err := tcp.New(cfg, logger.New("test", false, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.Listen(ctx)
	waitRunning(t, srv, time.Second)

	const clients = 20
	var wg sync.WaitGroup
	wg.Add(clients)
	for i := 0; i < clients; i++ {
		go func(n int) {
			defer wg.Done()
			conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
			if err != nil {
				t.Errorf("client %d dial: %v", n, err)
				return
			}
			defer conn.Close()

			for j := 0; j < 5; j++ {
				payload := []byte("xyz")
				conn.Write(payload)
				buf := make([]byte, len(payload))
				conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				if _, err := readFull(conn, buf); err != nil {
					t.Errorf("client %d round %d: %v", n, j, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	srv.Shutdown(ctx)
}

func waitRunning(t *testing.T, srv *tcp.Server, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if srv.IsRunning() && srv.Addr() != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("server did not start in time")
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
