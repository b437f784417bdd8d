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

package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/logging"
	"github.com/trissim/zmqruntime/messages"
	"github.com/trissim/zmqruntime/transport"
)

// Handler answers one decoded control-channel request. It never panics
// across the call boundary it's invoked from: Base recovers any panic and
// turns it into an ErrorResponse so the CRITICAL INVARIANT of spec.md §4.5
// holds — exactly one response follows every accepted control connection.
type Handler func(d messages.Dict) messages.Dict

// ReceiveHandler is invoked with the decoded payload of every frame read
// off a Pull or Subscribe data socket.
type ReceiveHandler func(payload []byte)

// Base is the dual-socket server of spec.md §4.5: a control reply socket at
// dataPort+offset and a data socket whose role (publish/subscribe/pull)
// subclasses choose. It owns the stopped -> running(ready=false) ->
// running(ready=true) -> stopped state machine and the request dispatch
// table; subclasses register Handlers and a pong augmenter instead of
// reimplementing accept loops.
type Base struct {
	name        string
	cfg         config.Config
	host        string
	dataPort    int
	controlPort int
	mode        transport.Mode
	role        DataRole
	remoteHost  string
	log         logging.Logger

	logFilePath atomic.Value // string

	running atomic.Bool
	ready   atomic.Bool

	startTime time.Time

	controlLn net.Listener
	dataLn    net.Listener

	subMu sync.Mutex
	subs  map[net.Conn]struct{}

	onReceive   ReceiveHandler
	connHandler func(net.Conn)

	handlersMu sync.RWMutex
	handlers   map[messages.RequestType]Handler

	pongMu      sync.Mutex
	pongAugment func() messages.Dict

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewBase constructs a Base in the stopped state. host/dataPort/mode/cfg
// determine both socket addresses (the control socket is always
// dataPort+cfg's configured offset, per spec.md §3's invariant). name
// identifies the server class in pong responses (e.g. "ExecutionServer").
// shutdown and force_shutdown get default handlers that answer with a
// shutdown_ack (force_shutdown also calls RequestShutdown); subclasses may
// replace them with RegisterHandler.
func NewBase(name, host string, dataPort int, mode transport.Mode, role DataRole, cfg config.Config, log logging.Logger) *Base {
	if log == nil {
		log = logging.Noop()
	}
	b := &Base{
		name:        name,
		cfg:         cfg,
		host:        host,
		dataPort:    dataPort,
		controlPort: cfg.ControlPort(dataPort),
		mode:        mode,
		role:        role,
		log:         log,
		handlers:    make(map[messages.RequestType]Handler),
		subs:        make(map[net.Conn]struct{}),
		stopCh:      make(chan struct{}),
	}
	b.handlers[messages.Shutdown] = func(messages.Dict) messages.Dict {
		return messages.ShutdownAckResponse{Status: "ok", Message: "shutdown acknowledged"}.ToDict()
	}
	b.handlers[messages.ForceShutdown] = func(messages.Dict) messages.Dict {
		b.RequestShutdown()
		return messages.ShutdownAckResponse{Status: "ok", Message: "force shutdown acknowledged"}.ToDict()
	}
	return b
}

// SetRemoteHost sets the address a Subscribe-role data socket dials. It must
// be called before Start.
func (b *Base) SetRemoteHost(host string) { b.remoteHost = host }

// SetOnReceive installs the callback invoked for every frame read off a
// Pull or Subscribe data socket. Must be called before Start.
func (b *Base) SetOnReceive(fn ReceiveHandler) { b.onReceive = fn }

// SetConnHandler lets a subclass own an entire Pull-role connection's read
// loop (e.g. to read a multi-frame image+metadata protocol) instead of
// receiving one decoded frame at a time via SetOnReceive. Must be called
// before Start; when set, it takes precedence over SetOnReceive.
func (b *Base) SetConnHandler(fn func(net.Conn)) { b.connHandler = fn }

// SetPongAugment installs a subclass hook that returns extra/override
// key-value pairs merged into the base pong dict (spec.md §4.6's
// active_executions/running/workers augmentation).
func (b *Base) SetPongAugment(fn func() messages.Dict) {
	b.pongMu.Lock()
	defer b.pongMu.Unlock()
	b.pongAugment = fn
}

// RegisterHandler binds a request type to its handler. Registering "ping" is
// rejected: ping is answered internally so every server, regardless of
// subclass, behaves identically for the handshake spec.md §4.1 depends on.
func (b *Base) RegisterHandler(t messages.RequestType, h Handler) {
	if t == messages.Ping {
		return
	}
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[t] = h
}

// SetLogFilePath records the path advertised in pong responses (spec.md §3
// supplement: log_file_path is optional, omitted when unset).
func (b *Base) SetLogFilePath(path string) { b.logFilePath.Store(path) }

// SetReady flips the ready flag subclasses use once their own startup work
// (e.g. launching a queue worker) has completed.
func (b *Base) SetReady(v bool) { b.ready.Store(v) }

func (b *Base) IsRunning() bool { return b.running.Load() }
func (b *Base) IsReady() bool   { return b.ready.Load() }
func (b *Base) DataPort() int   { return b.dataPort }
func (b *Base) ControlPort() int { return b.controlPort }
func (b *Base) Name() string   { return b.name }

func (b *Base) Uptime() time.Duration {
	if b.startTime.IsZero() {
		return 0
	}
	return time.Since(b.startTime)
}

// Start binds the control socket and, per role, the data socket, then
// launches the accept loops as background goroutines. Start is not
// idempotent; calling it twice on a live Base is a programmer error.
func (b *Base) Start() error {
	controlLn, err := transport.Listen(b.controlPort, b.host, b.mode, b.cfg)
	if err != nil {
		return fmt.Errorf("server: %s: bind control socket: %w", b.name, err)
	}
	b.controlLn = controlLn

	switch b.role {
	case Publish, Pull:
		dataLn, err := transport.Listen(b.dataPort, b.host, b.mode, b.cfg)
		if err != nil {
			controlLn.Close()
			return fmt.Errorf("server: %s: bind data socket: %w", b.name, err)
		}
		b.dataLn = dataLn
	}

	b.startTime = time.Now()
	b.running.Store(true)
	b.ready.Store(false)

	b.wg.Add(1)
	go b.acceptControlLoop()

	switch b.role {
	case Publish:
		b.wg.Add(1)
		go b.acceptSubscriberLoop()
	case Pull:
		b.wg.Add(1)
		go b.acceptPusherLoop()
	case Subscribe:
		b.wg.Add(1)
		go b.subscribeLoop()
	}

	b.log.Infof("server: %s: listening data=%d control=%d", b.name, b.dataPort, b.controlPort)
	return nil
}

func (b *Base) acceptControlLoop() {
	defer b.wg.Done()
	for {
		conn, err := b.controlLn.Accept()
		if err != nil {
			select {
			case <-b.stopCh:
				return
			default:
				b.log.Warnf("server: %s: control accept error: %v", b.name, err)
				return
			}
		}
		b.wg.Add(1)
		go b.handleControlConn(conn)
	}
}

// handleControlConn performs exactly one recv -> dispatch -> send turn then
// closes the connection, matching spec.md §4.5's strict request/reply
// alternation.
func (b *Base) handleControlConn(conn net.Conn) {
	defer b.wg.Done()
	defer conn.Close()

	raw, err := transport.ReadFrame(conn)
	if err != nil {
		return
	}

	req, err := messages.DecodeControl(raw)
	if err != nil {
		b.respond(conn, messages.ErrorResponse{Error: err.Error()}.ToDict())
		return
	}

	b.respond(conn, b.processRequest(req))
}

func (b *Base) respond(conn net.Conn, resp messages.Dict) {
	payload, err := messages.EncodeControl(resp)
	if err != nil {
		b.log.Errorf("server: %s: encode response: %v", b.name, err)
		return
	}
	if err := transport.WriteFrame(conn, payload); err != nil {
		b.log.Warnf("server: %s: write response: %v", b.name, err)
	}
}

// processRequest dispatches one decoded request through the enumerated
// table, recovering any handler panic into an ErrorResponse so a single bad
// request can never take the server down (spec.md §7).
func (b *Base) processRequest(req messages.Dict) (resp messages.Dict) {
	rt, err := messages.RequestTypeOf(req)
	if err != nil {
		return messages.ErrorResponse{Error: err.Error()}.ToDict()
	}

	if rt == messages.Ping {
		b.ready.Store(true)
		return b.buildPong()
	}

	b.handlersMu.RLock()
	h, ok := b.handlers[rt]
	b.handlersMu.RUnlock()
	if !ok {
		return messages.ErrorResponse{Error: fmt.Sprintf("Unknown message type: %s", rt)}.ToDict()
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Errorf("server: %s: handler panic on %s: %v", b.name, rt, r)
			resp = messages.ErrorResponse{Error: fmt.Sprintf("internal error: %v", r)}.ToDict()
		}
	}()
	return h(req)
}

func (b *Base) buildPong() messages.Dict {
	logPath, _ := b.logFilePath.Load().(string)
	base := messages.PongResponse{
		Port:          b.dataPort,
		ControlPort:   b.controlPort,
		Ready:         b.ready.Load(),
		Server:        b.name,
		LogFilePath:   logPath,
		UptimeSeconds: b.Uptime().Seconds(),
	}.ToDict()

	b.pongMu.Lock()
	augment := b.pongAugment
	b.pongMu.Unlock()
	if augment == nil {
		return base
	}
	for k, v := range augment() {
		base[k] = v
	}
	return base
}

func (b *Base) acceptSubscriberLoop() {
	defer b.wg.Done()
	for {
		conn, err := b.dataLn.Accept()
		if err != nil {
			select {
			case <-b.stopCh:
				return
			default:
				b.log.Warnf("server: %s: data accept error: %v", b.name, err)
				return
			}
		}
		b.subMu.Lock()
		b.subs[conn] = struct{}{}
		b.subMu.Unlock()
	}
}

func (b *Base) acceptPusherLoop() {
	defer b.wg.Done()
	for {
		conn, err := b.dataLn.Accept()
		if err != nil {
			select {
			case <-b.stopCh:
				return
			default:
				b.log.Warnf("server: %s: data accept error: %v", b.name, err)
				return
			}
		}
		b.wg.Add(1)
		go b.servePusherConn(conn)
	}
}

func (b *Base) servePusherConn(conn net.Conn) {
	defer b.wg.Done()
	if b.connHandler != nil {
		defer conn.Close()
		b.invokeConnHandler(conn)
		return
	}
	b.readLoop(conn)
}

func (b *Base) invokeConnHandler(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorf("server: %s: connection handler panic: %v", b.name, r)
		}
	}()
	b.connHandler(conn)
}

func (b *Base) subscribeLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}

		conn, err := transport.Dial(b.dataPort, b.remoteHost, b.mode, b.cfg, 5*time.Second)
		if err != nil {
			time.Sleep(time.Second)
			continue
		}
		b.readLoop(conn)
	}
}

// readLoop dispatches every decoded frame to onReceive until the connection
// errors or closes, then returns (subscribeLoop redials; the pusher
// acceptor simply drops a spent connection).
func (b *Base) readLoop(conn net.Conn) {
	defer conn.Close()
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}
		payload, err := transport.ReadFrame(conn)
		if err != nil {
			return
		}
		if b.onReceive != nil {
			b.invokeReceive(payload)
		}
	}
}

func (b *Base) invokeReceive(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorf("server: %s: receive handler panic: %v", b.name, r)
		}
	}()
	b.onReceive(payload)
}

// PublishData broadcasts payload, framed, to every currently connected
// subscriber. A write failure drops that subscriber; it never surfaces to
// the caller, matching the fire-and-forget publish semantics of spec.md
// §4.5.
func (b *Base) PublishData(payload []byte) error {
	if b.role != Publish {
		return fmt.Errorf("server: %s: PublishData called on a non-publish role", b.name)
	}

	b.subMu.Lock()
	conns := make([]net.Conn, 0, len(b.subs))
	for c := range b.subs {
		conns = append(conns, c)
	}
	b.subMu.Unlock()

	for _, c := range conns {
		if err := transport.WriteFrame(c, payload); err != nil {
			b.subMu.Lock()
			delete(b.subs, c)
			b.subMu.Unlock()
			c.Close()
		}
	}
	return nil
}

// RequestShutdown flips the server to not-running and unblocks every accept
// loop by closing the bound listeners; it does not wait for in-flight
// connections to finish (use Stop for that).
func (b *Base) RequestShutdown() {
	b.stopOnce.Do(func() {
		b.running.Store(false)
		close(b.stopCh)
		if b.controlLn != nil {
			b.controlLn.Close()
		}
		if b.dataLn != nil {
			b.dataLn.Close()
		}
		b.subMu.Lock()
		for c := range b.subs {
			c.Close()
		}
		b.subs = make(map[net.Conn]struct{})
		b.subMu.Unlock()
	})
}

// Stop requests shutdown and blocks until every accept/read goroutine has
// exited.
func (b *Base) Stop() {
	b.RequestShutdown()
	b.wg.Wait()
}
