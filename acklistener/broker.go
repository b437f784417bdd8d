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

package acklistener

import (
	"fmt"
	"time"

	natsd "github.com/nats-io/nats-server/v2/server"
)

// embeddedBroker owns an in-process NATS server bound to the shared ack
// port, following nabbar-golib's config/components/natsServer pattern of
// building server.Options and starting the server as a goroutine
// (_examples/nabbar-golib/config/components/natsServer/default.go).
type embeddedBroker struct {
	srv *natsd.Server
}

func startEmbeddedBroker(host string, port int) (*embeddedBroker, error) {
	opts := &natsd.Options{
		Host:           host,
		Port:           port,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 4096,
	}

	srv, err := natsd.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("acklistener: create embedded broker: %w", err)
	}

	go srv.Start()

	if !srv.ReadyForConnections(5 * time.Second) {
		srv.Shutdown()
		return nil, fmt.Errorf("acklistener: embedded broker on %s:%d never became ready", host, port)
	}

	return &embeddedBroker{srv: srv}, nil
}

func (b *embeddedBroker) clientURL() string {
	return b.srv.ClientURL()
}

func (b *embeddedBroker) shutdown() {
	b.srv.Shutdown()
	b.srv.WaitForShutdown()
}
