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

// Package client implements the connect-or-launch protocol of spec.md §4.8:
// probe an existing server, adopt it on a ready handshake, or spawn one and
// wait for readiness — plus the static scan/kill-on-port helpers of §4.8.
package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/logging"
	"github.com/trissim/zmqruntime/messages"
	"github.com/trissim/zmqruntime/transport"
)

// SpawnHandle is whatever a SpawnFunc hands back for lifecycle control of a
// spawned server process; *os.Process and *exec.Cmd-backed wrappers both
// satisfy it.
type SpawnHandle interface {
	// Wait blocks up to timeout for the process to exit on its own,
	// reporting whether it did.
	Wait(timeout time.Duration) bool
	Kill() error
}

// SpawnFunc is the subclass hook spec.md §4.8 calls _spawn_server_process:
// launching the concrete server process is external to this package.
type SpawnFunc func() (SpawnHandle, error)

// Base is the ClientBase of spec.md §4.8.
type Base struct {
	host        string
	dataPort    int
	controlPort int
	mode        transport.Mode
	cfg         config.Config
	log         logging.Logger
	spawn       SpawnFunc

	mu                  sync.Mutex
	connected           bool
	connectedToExisting bool
	persistent          bool
	handle              SpawnHandle
}

// NewBase constructs a client targeting dataPort on host/mode. spawn may be
// nil for clients that only ever attach to an already-running server.
func NewBase(host string, dataPort int, mode transport.Mode, cfg config.Config, log logging.Logger, spawn SpawnFunc) *Base {
	if log == nil {
		log = logging.Noop()
	}
	return &Base{
		host:        host,
		dataPort:    dataPort,
		controlPort: cfg.ControlPort(dataPort),
		mode:        mode,
		cfg:         cfg,
		log:         log,
		spawn:       spawn,
	}
}

func (b *Base) Host() string            { return b.host }
func (b *Base) DataPort() int           { return b.dataPort }
func (b *Base) ControlPort() int        { return b.controlPort }
func (b *Base) Mode() transport.Mode    { return b.mode }
func (b *Base) Config() config.Config   { return b.cfg }

// SetPersistent controls whether Disconnect terminates a spawned server
// process (false, the default) or leaves it running (true).
func (b *Base) SetPersistent(p bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.persistent = p
}

func (b *Base) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *Base) ConnectedToExisting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connectedToExisting
}

// Connect runs the connect-or-launch protocol of spec.md §4.8. It is a
// no-op if already connected.
func (b *Base) Connect(timeout time.Duration) error {
	b.mu.Lock()
	if b.connected {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if transport.IsEndpointInUse(b.dataPort, b.host, b.mode, b.cfg) {
		if transport.PingControl(b.controlPort, b.host, b.mode, b.cfg, 500*time.Millisecond, true) {
			b.mu.Lock()
			b.connected = true
			b.connectedToExisting = true
			b.mu.Unlock()
			b.log.Infof("client: adopted existing server on data port %d", b.dataPort)
			return nil
		}

		b.log.Warnf("client: stale endpoint on port %d, reaping", b.dataPort)
		transport.KillProcessesOnPort(b.dataPort)
		transport.KillProcessesOnPort(b.controlPort)
		time.Sleep(200 * time.Millisecond)
	}

	if b.spawn == nil {
		return fmt.Errorf("client: no server reachable on port %d and no spawn hook configured", b.dataPort)
	}

	handle, err := b.spawn()
	if err != nil {
		return fmt.Errorf("client: spawn server process: %w", err)
	}

	if !transport.WaitForReady(b.dataPort, b.host, b.mode, b.cfg, timeout) {
		if handle != nil {
			_ = handle.Kill()
		}
		return fmt.Errorf("client: server on port %d did not become ready within %s", b.dataPort, timeout)
	}

	b.mu.Lock()
	b.connected = true
	b.connectedToExisting = false
	b.handle = handle
	b.mu.Unlock()
	return nil
}

// Disconnect tears down the client side of the connection. A spawned,
// non-persistent server is asked to exit gracefully, then force-killed if
// it hasn't within 5s; an adopted server is left untouched (spec.md §4.8).
func (b *Base) Disconnect() {
	b.mu.Lock()
	connected := b.connected
	ownsProcess := connected && !b.connectedToExisting && !b.persistent
	handle := b.handle
	b.connected = false
	b.connectedToExisting = false
	b.handle = nil
	b.mu.Unlock()

	if !connected {
		return
	}

	if ownsProcess && handle != nil {
		_, _ = transport.SendControlRequest(b.controlPort, b.host, b.mode, b.cfg, 2*time.Second, messages.ForceShutdownRequest{}.ToDict())
		if !handle.Wait(5 * time.Second) {
			_ = handle.Kill()
		}
	}
}
