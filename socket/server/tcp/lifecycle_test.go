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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// Invariants 4 & 5 (spec.md §8): Shutdown stops accepting new
// connections immediately, and returns once every in-flight Request has
// either completed or the grace period has elapsed.
var _ = Describe("server lifecycle", func() {
	It("stops accepting new connections once Shutdown begins", func() {
		srv, ctx, cancel := newTestServer(2)
		defer cancel()

		errCh, addr := listenAndWait(srv, ctx, time.Second)
		Expect(addr).NotTo(BeEmpty())

		conn, err := connectClient(addr, time.Second)
		Expect(err).NotTo(HaveOccurred())
		conn.Close()

		Expect(srv.Shutdown(ctx)).To(Succeed())

		_, err = connectClient(addr, 200*time.Millisecond)
		Expect(err).To(HaveOccurred())

		Eventually(errCh, time.Second).Should(Receive())
	})

	It("reports IsGone only after Shutdown completes", func() {
		srv, ctx, cancel := newTestServer(2)
		defer cancel()

		_, addr := listenAndWait(srv, ctx, time.Second)
		Expect(addr).NotTo(BeEmpty())

		Expect(srv.IsGone()).To(BeFalse())
		Expect(srv.Shutdown(ctx)).To(Succeed())
		Expect(srv.IsGone()).To(BeTrue())

		select {
		case <-srv.Done():
		default:
			Fail("Done channel should be closed once IsGone is true")
		}
	})

	It("drains an in-flight echo before Shutdown returns", func() {
		srv, ctx, cancel := newTestServer(1)
		defer cancel()

		_, addr := listenAndWait(srv, ctx, time.Second)
		Expect(addr).NotTo(BeEmpty())

		conn, err := connectClient(addr, time.Second)
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		_, err = conn.Write([]byte("ping"))
		Expect(err).NotTo(HaveOccurred())

		buf := make([]byte, 4)
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, err = conn.Read(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf)).To(Equal("ping"))

		Expect(srv.Shutdown(ctx)).To(Succeed())
	})
})
