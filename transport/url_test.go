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
	"runtime"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/transport"
)

var _ = Describe("URL", func() {
	cfg := config.Default()

	It("builds a tcp:// endpoint", func() {
		u, err := transport.URL(9000, "127.0.0.1", transport.TCP, cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(u).To(Equal("tcp://127.0.0.1:9000"))
	})

	It("defaults the host to 127.0.0.1 when empty", func() {
		u, err := transport.URL(9000, "", transport.TCP, cfg)
		Expect(err).ToNot(HaveOccurred())
		Expect(u).To(Equal("tcp://127.0.0.1:9000"))
	})

	It("builds an ipc:// endpoint on POSIX, errors on Windows", func() {
		u, err := transport.URL(9000, "", transport.IPC, cfg)
		if runtime.GOOS == "windows" {
			Expect(err).To(MatchError(transport.ErrIPCOnWindows))
		} else {
			Expect(err).ToNot(HaveOccurred())
			Expect(strings.HasPrefix(u, "ipc://")).To(BeTrue())
			Expect(u).To(ContainSubstring("zmq-9000.sock"))
		}
	})
})
