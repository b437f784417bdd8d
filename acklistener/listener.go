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

// Package acklistener is the process-wide singleton background receiver of
// spec.md §4.4: it binds the shared ack port once, dispatches decoded
// ImageAck messages to every registered callback, and is shared across all
// streaming components in one process.
//
// The underlying transport is an embedded NATS server plus a queue
// subscription (queue group "ack-listener"), the push/pull analogue this
// runtime uses for the ack channel (see SPEC_FULL.md §1); message dispatch
// is therefore callback-driven rather than poll-driven, but the contract —
// one callback failure must not prevent others, transport errors are
// logged and do not crash the process — is identical to spec.md's polling
// loop description.
package acklistener

import (
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/logging"
	"github.com/trissim/zmqruntime/messages"
	"github.com/trissim/zmqruntime/queuetracker"
)

const (
	ackSubject = "zmqruntime.ack"
	ackQueue   = "ack-listener"
	// pendingMsgLimit mirrors spec.md §4.5's HWM of 100000 for receive-side
	// sockets that must survive a blocking downstream consumer.
	pendingMsgLimit = 100000
)

// Callback handles one decoded ack. Panics are recovered so one callback's
// failure never prevents the others from running (spec.md §4.4).
type Callback func(ack messages.ImageAck)

// Listener is the singleton ack receiver. Use Default() to get the
// process-wide instance; NewListener exists for test isolation.
type Listener struct {
	log logging.Logger

	m         sync.Mutex
	started   bool
	broker    *embeddedBroker
	nc        *nats.Conn
	sub       *nats.Subscription
	callbacks []Callback
}

var (
	defaultOnce sync.Once
	defaultInst *Listener
)

// Default returns the process-wide singleton, registering the default
// callback (registry lookup + MarkProcessed) on first use.
func Default() *Listener {
	defaultOnce.Do(func() {
		defaultInst = NewListener(logging.Noop())
		defaultInst.RegisterCallback(defaultCallback)
	})
	return defaultInst
}

// NewListener constructs an independent listener, for tests that want
// isolation from the process-wide singleton.
func NewListener(log logging.Logger) *Listener {
	return &Listener{log: log}
}

// defaultCallback looks up ack.ViewerPort in the registry and marks the
// image processed, per spec.md §4.4.
func defaultCallback(ack messages.ImageAck) {
	t := queuetracker.DefaultRegistry().Get(ack.ViewerPort)
	if t == nil {
		return
	}
	t.MarkProcessed(ack.ImageID)
}

// RegisterCallback appends fn to the callback list. The list is
// append-only during normal operation and iterated under snapshot
// semantics (copy-then-call), so registering from inside a callback is
// safe (spec.md §5).
func (l *Listener) RegisterCallback(fn Callback) {
	l.m.Lock()
	defer l.m.Unlock()
	l.callbacks = append(l.callbacks, fn)
}

// Start is idempotent: a second call on an already-started listener is a
// no-op (spec.md §4.4).
func (l *Listener) Start(host string, port int, cfg config.Config) error {
	l.m.Lock()
	defer l.m.Unlock()

	if l.started {
		return nil
	}

	broker, err := startEmbeddedBroker(host, port)
	if err != nil {
		l.log.Errorf("acklistener: fatal setup error: %v", err)
		return err
	}

	nc, err := nats.Connect(broker.clientURL(), nats.Timeout(2*time.Second))
	if err != nil {
		broker.shutdown()
		l.log.Errorf("acklistener: fatal setup error: %v", err)
		return err
	}

	sub, err := nc.QueueSubscribe(ackSubject, ackQueue, l.onMessage)
	if err != nil {
		nc.Close()
		broker.shutdown()
		l.log.Errorf("acklistener: fatal setup error: %v", err)
		return err
	}
	_ = sub.SetPendingLimits(pendingMsgLimit, -1)

	l.broker = broker
	l.nc = nc
	l.sub = sub
	l.started = true
	return nil
}

// onMessage decodes one ack and dispatches it to a snapshot of the
// registered callbacks, each guarded so a panic in one never stops another.
func (l *Listener) onMessage(msg *nats.Msg) {
	var ack messages.ImageAck
	if err := messages.DecodeJSON(msg.Data, &ack); err != nil {
		l.log.Warnf("acklistener: malformed ack payload: %v", err)
		return
	}

	l.m.Lock()
	cbs := make([]Callback, len(l.callbacks))
	copy(cbs, l.callbacks)
	l.m.Unlock()

	for _, cb := range cbs {
		l.invoke(cb, ack)
	}
}

func (l *Listener) invoke(cb Callback, ack messages.ImageAck) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("acklistener: callback panic: %v", r)
		}
	}()
	cb(ack)
}

// Stop signals the listener to release its resources. Calling Stop on a
// listener that was never started is a no-op.
func (l *Listener) Stop() {
	l.m.Lock()
	defer l.m.Unlock()

	if !l.started {
		return
	}

	if l.sub != nil {
		_ = l.sub.Unsubscribe()
	}
	if l.nc != nil {
		l.nc.Close()
	}
	if l.broker != nil {
		l.broker.shutdown()
	}
	l.started = false
	l.broker = nil
	l.nc = nil
	l.sub = nil
}

// IsStarted reports whether the listener currently owns a running broker.
func (l *Listener) IsStarted() bool {
	l.m.Lock()
	defer l.m.Unlock()
	return l.started
}

// ClientURL returns the NATS URL viewers should publish acks to. Empty if
// the listener has not started.
func (l *Listener) ClientURL() string {
	l.m.Lock()
	defer l.m.Unlock()
	if l.broker == nil {
		return ""
	}
	return l.broker.clientURL()
}

// PublishAck is a convenience for senders (viewers) in the same process;
// out-of-process viewers connect with nats.Connect(listener.ClientURL())
// directly and publish to ackSubject themselves.
func PublishAck(url string, ack messages.ImageAck) error {
	nc, err := nats.Connect(url, nats.Timeout(2*time.Second))
	if err != nil {
		return err
	}
	defer nc.Close()

	payload, err := messages.EncodeJSON(ack)
	if err != nil {
		return err
	}
	return nc.Publish(ackSubject, payload)
}
