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

package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/trissim/zmqruntime/config"
)

// maxFrame bounds a single control/data frame. It also bounds the raw
// image-bytes frame of the streaming protocol (the second length-prefixed
// segment, see streaming.Server), so an image larger than this is rejected.
const maxFrame = 64 << 20 // 64 MiB

// WriteFrame writes a length-prefixed frame: a 4-byte big-endian length
// followed by payload. This is the wire framing shared by the control
// channel (binary request/response blobs) and the data channel (UTF-8 JSON
// lines, framed the same way instead of relying on newline delimiters so
// that length-prefixing is uniform across both channels).
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("transport: write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("transport: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame written by WriteFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFrame {
		return nil, fmt.Errorf("transport: frame of %d bytes exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("transport: read frame payload: %w", err)
	}
	return buf, nil
}

// Listen opens a listener for port under mode, removing a stale IPC socket
// file first (IPC socket files are a shared namespace resource that must not
// block a fresh bind, per spec.md §5).
func Listen(port int, host string, mode Mode, cfg config.Config) (net.Listener, error) {
	network, addr, err := address(port, host, mode, cfg)
	if err != nil {
		return nil, err
	}
	if mode == IPC {
		_ = RemoveIPCSocket(port, cfg)
	}
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s %s: %w", network, addr, err)
	}
	return ln, nil
}

// Dial opens a client connection to port under mode with a bounded timeout.
func Dial(port int, host string, mode Mode, cfg config.Config, timeout time.Duration) (net.Conn, error) {
	network, addr, err := address(port, host, mode, cfg)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialTimeout(network, addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s %s: %w", network, addr, err)
	}
	return conn, nil
}

// bufferedConn pairs a net.Conn with a buffered reader, since ReadFrame does
// several small reads and raw net.Conn reads are one syscall each.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func newBufferedConn(c net.Conn) *bufferedConn {
	return &bufferedConn{Conn: c, r: bufio.NewReader(c)}
}

func (b *bufferedConn) Read(p []byte) (int, error) { return b.r.Read(p) }
