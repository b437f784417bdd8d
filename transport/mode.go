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

// Package transport computes endpoints, checks liveness, and waits for
// readiness across TCP and IPC (Unix-domain-socket) modes. It owns no
// long-lived state; every function is a pure probe or a one-shot dial.
package transport

import "runtime"

// Mode is the tagged TransportMode variant from spec.md §3.
type Mode uint8

const (
	// TCP yields "tcp://host:port" endpoints.
	TCP Mode = iota
	// IPC yields "ipc://<path>" endpoints; disallowed on Windows.
	IPC
)

func (m Mode) String() string {
	switch m {
	case TCP:
		return "tcp"
	case IPC:
		return "ipc"
	default:
		return "unknown"
	}
}

// network returns the Go net package network name backing this mode.
func (m Mode) network() string {
	if m == IPC {
		return "unix"
	}
	return "tcp"
}

// DefaultMode is IPC on POSIX, TCP on Windows, per spec.md §4.1.
func DefaultMode() Mode {
	if runtime.GOOS == "windows" {
		return TCP
	}
	return IPC
}
