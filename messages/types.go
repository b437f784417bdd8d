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

// Package messages implements the wire-level message codec of spec.md §4.2:
// enumerated request/response/execution-status types, a dict-shaped
// to-map/from-map round trip for every message, and the two encodings the
// runtime uses (an opaque binary blob on the control channel, UTF-8 JSON on
// the data and ack channels).
package messages

// RequestType enumerates control-channel request types.
type RequestType string

const (
	Ping           RequestType = "ping"
	Execute        RequestType = "execute"
	Status         RequestType = "status"
	Cancel         RequestType = "cancel"
	Shutdown       RequestType = "shutdown"
	ForceShutdown  RequestType = "force_shutdown"
)

// ResponseType enumerates control-channel response types.
type ResponseType string

const (
	Pong        ResponseType = "pong"
	Accepted    ResponseType = "accepted"
	Ok          ResponseType = "ok"
	ErrorType   ResponseType = "error"
	ShutdownAck ResponseType = "shutdown_ack"
)

// ExecutionStatus enumerates the ExecutionRecord lifecycle states of
// spec.md §3. The ordering below matches the monotonic total order:
// Queued < Running < {Complete, Failed, Cancelled}.
type ExecutionStatus string

const (
	Queued    ExecutionStatus = "queued"
	Running   ExecutionStatus = "running"
	Complete  ExecutionStatus = "complete"
	Failed    ExecutionStatus = "failed"
	Cancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether s is one of {complete, failed, cancelled}.
func (s ExecutionStatus) IsTerminal() bool {
	return s == Complete || s == Failed || s == Cancelled
}

// Dict is the wire shape every message round-trips through: a mapping with a
// "type" field plus typed payload fields.
type Dict map[string]interface{}
