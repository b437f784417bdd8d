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
	"time"

	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/messages"
)

// PingControl opens a one-shot connection to the control endpoint, sends a
// ping, and waits for a pong. If requireReady is set, a pong with ready=false
// is treated as a failed probe. Probe operations never return an error to
// the caller; all failures collapse to false (spec.md §4.1).
func PingControl(port int, host string, mode Mode, cfg config.Config, timeout time.Duration, requireReady bool) bool {
	d, err := roundTrip(port, host, mode, cfg, timeout, messages.PingRequest{}.ToDict())
	if err != nil {
		return false
	}

	t, _ := d["type"].(string)
	if messages.ResponseType(t) != messages.Pong {
		return false
	}
	if requireReady {
		ready, _ := d["ready"].(bool)
		if !ready {
			return false
		}
	}
	return true
}

// SendControlRequest opens a fresh connection to the control endpoint, sends
// one framed+encoded request, reads the framed+encoded reply, and closes the
// connection — spec.md §4.9's send_control_request, exported for clients.
func SendControlRequest(port int, host string, mode Mode, cfg config.Config, timeout time.Duration, req messages.Dict) (messages.Dict, error) {
	return roundTrip(port, host, mode, cfg, timeout, req)
}

// roundTrip dials the control endpoint, writes one framed+encoded request,
// reads one framed+encoded response, and closes the connection: exactly the
// one-shot request/reply turn spec.md §4.8 describes for send_control_request.
func roundTrip(port int, host string, mode Mode, cfg config.Config, timeout time.Duration, req messages.Dict) (messages.Dict, error) {
	conn, err := Dial(port, host, mode, cfg, timeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))

	payload, err := messages.EncodeControl(req)
	if err != nil {
		return nil, err
	}
	if err := WriteFrame(conn, payload); err != nil {
		return nil, err
	}

	raw, err := ReadFrame(newBufferedConn(conn))
	if err != nil {
		return nil, err
	}
	return messages.DecodeControl(raw)
}

// WaitForReady polls first that both the data and control endpoints are
// bound, then pings the control endpoint until it returns a ready pong, or
// timeout elapses (spec.md §4.1).
func WaitForReady(dataPort int, host string, mode Mode, cfg config.Config, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	controlPort := cfg.ControlPort(dataPort)

	for time.Now().Before(deadline) {
		if IsEndpointInUse(dataPort, host, mode, cfg) && IsEndpointInUse(controlPort, host, mode, cfg) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	for time.Now().Before(deadline) {
		if PingControl(controlPort, host, mode, cfg, 500*time.Millisecond, true) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
