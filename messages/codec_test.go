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

package messages_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/trissim/zmqruntime/messages"
)

var _ = Describe("control channel codec", func() {
	It("round-trips a Dict through EncodeControl/DecodeControl", func() {
		d := messages.PingRequest{}.ToDict()
		b, err := messages.EncodeControl(d)
		Expect(err).ToNot(HaveOccurred())

		got, err := messages.DecodeControl(b)
		Expect(err).ToNot(HaveOccurred())
		Expect(got["type"]).To(Equal(string(messages.Ping)))
	})

	It("round-trips nested maps", func() {
		req := messages.ExecuteRequest{
			PlateID:      "plate-1",
			PipelineCode: "code",
			ConfigParams: map[string]interface{}{"threshold": 5},
		}
		b, err := messages.EncodeControl(req.ToDict())
		Expect(err).ToNot(HaveOccurred())

		got, err := messages.DecodeControl(b)
		Expect(err).ToNot(HaveOccurred())
		Expect(got["plate_id"]).To(Equal("plate-1"))
		params, ok := got["config_params"].(map[string]interface{})
		Expect(ok).To(BeTrue())
		Expect(params["threshold"]).To(Equal(5))
	})

	It("fails to decode garbage bytes", func() {
		_, err := messages.DecodeControl([]byte("not a gob stream"))
		Expect(err).To(HaveOccurred())
	})

	It("extracts the request type and rejects a missing/malformed type field", func() {
		rt, err := messages.RequestTypeOf(messages.Dict{"type": "execute"})
		Expect(err).ToNot(HaveOccurred())
		Expect(rt).To(Equal(messages.Execute))

		_, err = messages.RequestTypeOf(messages.Dict{})
		Expect(err).To(HaveOccurred())

		_, err = messages.RequestTypeOf(messages.Dict{"type": 5})
		Expect(err).To(HaveOccurred())
	})

	It("round-trips JSON payloads", func() {
		ack := messages.ImageAck{ImageID: "img-1", ViewerPort: 9000, Status: "success"}
		b, err := messages.EncodeJSON(ack)
		Expect(err).ToNot(HaveOccurred())

		var got messages.ImageAck
		Expect(messages.DecodeJSON(b, &got)).To(Succeed())
		Expect(got).To(Equal(ack))
	})
})
