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
	"net"
	"os"

	"github.com/trissim/zmqruntime/config"
)

// IsEndpointInUse reports whether an endpoint is already bound. For TCP it
// attempts a short-timeout bind and treats failure as "in use"; for IPC it
// tests existence of the socket file. Probe operations never return an
// error: transient failures collapse to "not available" per spec.md §4.1.
func IsEndpointInUse(port int, host string, mode Mode, cfg config.Config) bool {
	network, addr, err := address(port, host, mode, cfg)
	if err != nil {
		return false
	}

	switch mode {
	case TCP:
		ln, err := net.Listen(network, addr)
		if err != nil {
			return true
		}
		_ = ln.Close()
		return false
	case IPC:
		_, err := os.Stat(addr)
		return err == nil
	default:
		return false
	}
}

// RemoveIPCSocket deletes the IPC socket file for port if present, reporting
// whether a file was actually removed.
func RemoveIPCSocket(port int, cfg config.Config) bool {
	path, err := IPCPath(port, cfg)
	if err != nil {
		return false
	}
	err = os.Remove(path)
	return err == nil
}
