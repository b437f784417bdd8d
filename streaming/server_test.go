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

package streaming_test

import (
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/trissim/zmqruntime/acklistener"
	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/messages"
	"github.com/trissim/zmqruntime/streaming"
	"github.com/trissim/zmqruntime/transport"
)

type capturedImage struct {
	imageID  string
	data     []byte
	metadata map[string]interface{}
}

type displayStub struct {
	mu     sync.Mutex
	images []capturedImage
	err    error
	panics bool
}

func (d *displayStub) handle(imageID string, data []byte, metadata map[string]interface{}) error {
	if d.panics {
		panic("display exploded")
	}
	d.mu.Lock()
	d.images = append(d.images, capturedImage{imageID: imageID, data: append([]byte(nil), data...), metadata: metadata})
	d.mu.Unlock()
	return d.err
}

func (d *displayStub) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.images)
}

var _ = Describe("streaming.Server", func() {
	var (
		cfg      config.Config
		dataPort int
		display  *displayStub
		srv      *streaming.Server
	)

	BeforeEach(func() {
		cfg = config.Default()
		cfg.SharedAckPort = freePort()
		dataPort = freePort()
		display = &displayStub{}
		srv = streaming.NewServer("127.0.0.1", dataPort, transport.TCP, cfg, nil, "127.0.0.1", 9100, "napari", display.handle)
		Expect(srv.Start()).To(Succeed())
	})

	AfterEach(func() {
		srv.Stop()
	})

	sendImage := func(imageID string, payload []byte) {
		conn, err := transport.Dial(dataPort, "127.0.0.1", transport.TCP, cfg, time.Second)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		meta := streaming.ImageMeta{ImageID: imageID, Metadata: map[string]interface{}{"shape": "512x512"}}
		metaRaw, err := messages.EncodeJSON(meta)
		Expect(err).ToNot(HaveOccurred())
		Expect(transport.WriteFrame(conn, metaRaw)).To(Succeed())
		Expect(transport.WriteFrame(conn, payload)).To(Succeed())

		time.Sleep(100 * time.Millisecond)
	}

	It("decodes the metadata/data frame pair and dispatches to display_image", func() {
		sendImage("img-1", []byte{1, 2, 3, 4})

		Eventually(display.count, time.Second).Should(Equal(1))
		Expect(display.images[0].imageID).To(Equal("img-1"))
		Expect(display.images[0].data).To(Equal([]byte{1, 2, 3, 4}))
		Expect(display.images[0].metadata["shape"]).To(Equal("512x512"))
	})

	It("handles multiple images on the same connection", func() {
		conn, err := transport.Dial(dataPort, "127.0.0.1", transport.TCP, cfg, time.Second)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		for i := 0; i < 3; i++ {
			meta := streaming.ImageMeta{ImageID: fmt.Sprintf("img-%d", i)}
			metaRaw, _ := messages.EncodeJSON(meta)
			Expect(transport.WriteFrame(conn, metaRaw)).To(Succeed())
			Expect(transport.WriteFrame(conn, []byte{byte(i)})).To(Succeed())
		}

		Eventually(display.count, time.Second).Should(Equal(3))
	})

	// The streaming server always pushes acks through the package-wide
	// acklistener.Default() singleton (its embedded broker binds once, on
	// whichever port first starts it), so tests observe acks by registering
	// an extra callback there rather than standing up a second broker.
	registerAckSink := func(imageID string) chan messages.ImageAck {
		received := make(chan messages.ImageAck, 1)
		acklistener.Default().RegisterCallback(func(ack messages.ImageAck) {
			if ack.ImageID != imageID {
				return
			}
			select {
			case received <- ack:
			default:
			}
		})
		return received
	}

	It("publishes a success ack to the shared ack broker", func() {
		received := registerAckSink("img-ack")
		sendImage("img-ack", []byte{9})

		Eventually(received, 2*time.Second).Should(Receive())
	})

	It("acks status=error when display_image returns an error", func() {
		display.err = fmt.Errorf("decode failure")
		received := registerAckSink("img-err")
		sendImage("img-err", []byte{9})

		var ack messages.ImageAck
		Eventually(received, 2*time.Second).Should(Receive(&ack))
		Expect(ack.Status).To(Equal("error"))
	})

	It("acks status=error when display_image panics, without crashing the server", func() {
		display.panics = true
		received := registerAckSink("img-panic")
		sendImage("img-panic", []byte{9})

		var ack messages.ImageAck
		Eventually(received, 2*time.Second).Should(Receive(&ack))
		Expect(ack.Status).To(Equal("error"))

		Expect(srv.Base().IsRunning()).To(BeTrue())
	})
})
