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

package acklistener_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/trissim/zmqruntime/acklistener"
	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/logging"
	"github.com/trissim/zmqruntime/messages"
)

var _ = Describe("Listener", func() {
	It("is not started before Start, and reports started after", func() {
		l := acklistener.NewListener(logging.Noop())
		Expect(l.IsStarted()).To(BeFalse())
		Expect(l.ClientURL()).To(BeEmpty())

		port := freePort()
		Expect(l.Start("127.0.0.1", port, config.Default())).To(Succeed())
		defer l.Stop()

		Expect(l.IsStarted()).To(BeTrue())
		Expect(l.ClientURL()).ToNot(BeEmpty())
	})

	It("Start is idempotent", func() {
		l := acklistener.NewListener(logging.Noop())
		port := freePort()
		Expect(l.Start("127.0.0.1", port, config.Default())).To(Succeed())
		defer l.Stop()

		url := l.ClientURL()
		Expect(l.Start("127.0.0.1", port, config.Default())).To(Succeed())
		Expect(l.ClientURL()).To(Equal(url))
	})

	It("dispatches a published ack to every registered callback", func() {
		l := acklistener.NewListener(logging.Noop())
		port := freePort()
		Expect(l.Start("127.0.0.1", port, config.Default())).To(Succeed())
		defer l.Stop()

		received := make(chan messages.ImageAck, 1)
		l.RegisterCallback(func(ack messages.ImageAck) {
			received <- ack
		})

		ack := messages.ImageAck{ImageID: "img-1", ViewerPort: 9100, Status: "success"}
		Expect(acklistener.PublishAck(l.ClientURL(), ack)).To(Succeed())

		Eventually(received, 2*time.Second).Should(Receive(Equal(ack)))
	})

	It("a panicking callback does not prevent other callbacks from running", func() {
		l := acklistener.NewListener(logging.Noop())
		port := freePort()
		Expect(l.Start("127.0.0.1", port, config.Default())).To(Succeed())
		defer l.Stop()

		received := make(chan messages.ImageAck, 1)
		l.RegisterCallback(func(ack messages.ImageAck) {
			panic("callback exploded")
		})
		l.RegisterCallback(func(ack messages.ImageAck) {
			received <- ack
		})

		ack := messages.ImageAck{ImageID: "img-2", ViewerPort: 9100, Status: "success"}
		Expect(acklistener.PublishAck(l.ClientURL(), ack)).To(Succeed())

		Eventually(received, 2*time.Second).Should(Receive(Equal(ack)))
	})

	It("Stop on a never-started listener is a no-op", func() {
		l := acklistener.NewListener(logging.Noop())
		Expect(func() { l.Stop() }).ToNot(Panic())
	})
})
