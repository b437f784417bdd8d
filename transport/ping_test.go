/*
 * MIT License
 *
 * Copyright (c) 2026 zmqruntime authors
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

package transport_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/messages"
	"github.com/trissim/zmqruntime/transport"
)

// stubControlServer answers every request with a pong carrying the given
// ready flag, standing in for server.Base's control loop so this package's
// tests don't need to import the server package.
func stubControlServer(port int, ready bool) net.Listener {
	ln, err := transport.Listen(port, "127.0.0.1", transport.TCP, config.Default())
	Expect(err).ToNot(HaveOccurred())

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				raw, err := transport.ReadFrame(c)
				if err != nil {
					return
				}
				if _, err := messages.DecodeControl(raw); err != nil {
					return
				}
				pong := messages.PongResponse{Port: port, ControlPort: port, Ready: ready, Server: "stub"}.ToDict()
				reply, _ := messages.EncodeControl(pong)
				_ = transport.WriteFrame(c, reply)
			}(conn)
		}
	}()
	return ln
}

var _ = Describe("PingControl", func() {
	It("returns true for a ready server", func() {
		port := freePort()
		ln := stubControlServer(port, true)
		defer ln.Close()

		Expect(transport.PingControl(port, "127.0.0.1", transport.TCP, config.Default(), time.Second, true)).To(BeTrue())
	})

	It("returns false when requireReady is set but the server isn't ready", func() {
		port := freePort()
		ln := stubControlServer(port, false)
		defer ln.Close()

		Expect(transport.PingControl(port, "127.0.0.1", transport.TCP, config.Default(), time.Second, true)).To(BeFalse())
	})

	It("returns false when nothing is listening", func() {
		port := freePort()
		Expect(transport.PingControl(port, "127.0.0.1", transport.TCP, config.Default(), 200*time.Millisecond, false)).To(BeFalse())
	})
})

var _ = Describe("SendControlRequest", func() {
	It("round-trips an arbitrary request through a fresh connection", func() {
		port := freePort()
		ln := stubControlServer(port, true)
		defer ln.Close()

		d, err := transport.SendControlRequest(port, "127.0.0.1", transport.TCP, config.Default(), time.Second, messages.PingRequest{}.ToDict())
		Expect(err).ToNot(HaveOccurred())
		Expect(d["type"]).To(Equal(string(messages.Pong)))
		Expect(d["ready"]).To(Equal(true))
	})
})
