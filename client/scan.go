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

package client

import (
	"sync"
	"time"

	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/messages"
	"github.com/trissim/zmqruntime/transport"
)

// scanConcurrency bounds the fan-out in ScanServers so probing a large port
// range doesn't open hundreds of sockets at once.
const scanConcurrency = 16

// ScannedServer annotates a pong with the port it answered on, per spec.md
// §4.8's scan_servers.
type ScannedServer struct {
	Port        int
	ControlPort int
	Pong        messages.Dict
}

// ScanServers probes every port in ports concurrently (bounded fan-out) and
// returns a ScannedServer for each one that answered a ready ping.
func ScanServers(ports []int, host string, timeout time.Duration, mode transport.Mode, cfg config.Config) []ScannedServer {
	results := make(chan *ScannedServer, len(ports))
	sem := make(chan struct{}, scanConcurrency)

	var wg sync.WaitGroup
	for _, port := range ports {
		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			controlPort := cfg.ControlPort(port)
			if !transport.IsEndpointInUse(port, host, mode, cfg) {
				results <- nil
				return
			}

			d, err := transport.SendControlRequest(controlPort, host, mode, cfg, timeout, messages.PingRequest{}.ToDict())
			if err != nil {
				results <- nil
				return
			}
			results <- &ScannedServer{Port: port, ControlPort: controlPort, Pong: d}
		}(port)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	found := make([]ScannedServer, 0, len(ports))
	for r := range results {
		if r != nil {
			found = append(found, *r)
		}
	}
	return found
}

// KillServerOnPort implements spec.md §4.8's two shutdown paths: graceful
// sends "shutdown" and awaits a shutdown_ack; forced sends "force_shutdown"
// best-effort and falls back to removing stale IPC files or killing
// processes directly.
func KillServerOnPort(port int, graceful bool, timeout time.Duration, mode transport.Mode, host string, cfg config.Config) bool {
	controlPort := cfg.ControlPort(port)

	if graceful {
		d, err := transport.SendControlRequest(controlPort, host, mode, cfg, timeout, messages.ShutdownRequest{}.ToDict())
		if err != nil {
			return false
		}
		t, _ := d["type"].(string)
		return messages.ResponseType(t) == messages.ShutdownAck
	}

	_, _ = transport.SendControlRequest(controlPort, host, mode, cfg, timeout, messages.ForceShutdownRequest{}.ToDict())

	if mode == transport.IPC {
		transport.RemoveIPCSocket(port, cfg)
		transport.RemoveIPCSocket(controlPort, cfg)
	}
	killed := transport.KillProcessesOnPort(port)
	killed += transport.KillProcessesOnPort(controlPort)
	return killed > 0
}
