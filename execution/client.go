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

package execution

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/trissim/zmqruntime/client"
	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/logging"
	"github.com/trissim/zmqruntime/messages"
	"github.com/trissim/zmqruntime/transport"
)

const defaultConnectTimeout = 10 * time.Second

// TaskSerializer is the subclass hook spec.md §4.9 calls serialize_task: the
// task/job payload format is external to this runtime (spec.md §1).
type TaskSerializer func(task interface{}, cfg config.Config) (messages.ExecuteRequest, error)

// ProgressCallback is invoked for every decoded progress message received on
// the client's data socket.
type ProgressCallback func(messages.ProgressMessage)

// Client is the ExecutionClient of spec.md §4.9, layered on client.Base.
type Client struct {
	*client.Base

	cfg       config.Config
	log       logging.Logger
	serialize TaskSerializer

	progressMu      sync.Mutex
	onProgress      ProgressCallback
	progressStarted bool
	progressStop    chan struct{}
	progressWG      sync.WaitGroup
}

// NewClient constructs an execution client targeting dataPort. spawn may be
// nil for clients that only ever attach to a pre-existing server.
func NewClient(host string, dataPort int, mode transport.Mode, cfg config.Config, log logging.Logger, spawn client.SpawnFunc, serialize TaskSerializer) *Client {
	if log == nil {
		log = logging.Noop()
	}
	return &Client{
		Base:      client.NewBase(host, dataPort, mode, cfg, log, spawn),
		cfg:       cfg,
		log:       log,
		serialize: serialize,
	}
}

// SetProgressCallback installs the callback invoked for every progress
// update; pass nil to disable (the listener goroutine is only started while
// a callback is configured).
func (c *Client) SetProgressCallback(fn ProgressCallback) {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	c.onProgress = fn
}

// SubmitExecution connects if needed, serializes task, and sends it as an
// execute request, returning the server's raw response.
func (c *Client) SubmitExecution(task interface{}) (messages.Dict, error) {
	if err := c.Connect(defaultConnectTimeout); err != nil {
		return nil, err
	}
	c.startProgressListenerIfNeeded()

	req, err := c.serialize(task, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("execution client: serialize_task: %w", err)
	}

	d := req.ToDict()
	d["type"] = string(messages.Execute)

	return transport.SendControlRequest(c.ControlPort(), c.Host(), c.Mode(), c.cfg, 5*time.Second, d)
}

// PollStatus asks for one execution's status, or the server summary when
// executionID is empty.
func (c *Client) PollStatus(executionID string) (messages.Dict, error) {
	req := messages.StatusRequest{ExecutionID: executionID}.ToDict()
	return transport.SendControlRequest(c.ControlPort(), c.Host(), c.Mode(), c.cfg, 5*time.Second, req)
}

// WaitForCompletion polls status every pollInterval until the execution
// reaches a terminal state, returning its projection. After
// maxConsecutiveErrors transport failures in a row it synthesizes a
// cancelled projection with error "Lost connection to server" rather than
// blocking forever (spec.md §4.9).
func (c *Client) WaitForCompletion(executionID string, pollInterval time.Duration, maxConsecutiveErrors int) messages.ExecutionProjection {
	if maxConsecutiveErrors <= 0 {
		maxConsecutiveErrors = 5
	}

	consecutiveErrors := 0
	for {
		resp, err := c.PollStatus(executionID)
		if err != nil {
			consecutiveErrors++
			if consecutiveErrors >= maxConsecutiveErrors {
				return lostConnectionProjection(executionID)
			}
			time.Sleep(pollInterval)
			continue
		}
		consecutiveErrors = 0

		if proj, ok := projectionFromDict(resp); ok {
			if proj.Status.IsTerminal() {
				return proj
			}
		}
		time.Sleep(pollInterval)
	}
}

func lostConnectionProjection(executionID string) messages.ExecutionProjection {
	return messages.ExecutionProjection{
		ExecutionID: executionID,
		Status:      messages.Cancelled,
		Error:       "Lost connection to server",
	}
}

func projectionFromDict(d messages.Dict) (messages.ExecutionProjection, bool) {
	status, _ := d["status"].(string)
	if status != string(messages.Ok) {
		return messages.ExecutionProjection{}, false
	}
	execStatus, ok := d["exec_status"].(string)
	if !ok {
		return messages.ExecutionProjection{}, false
	}

	proj := messages.ExecutionProjection{
		Status: messages.ExecutionStatus(execStatus),
	}
	if v, ok := d["execution_id"].(string); ok {
		proj.ExecutionID = v
	}
	if v, ok := d["plate_id"].(string); ok {
		proj.PlateID = v
	}
	if v, ok := d["error"].(string); ok {
		proj.Error = v
	}
	if v, ok := d["results_summary"].(map[string]interface{}); ok {
		proj.ResultsSummary = v
	}
	return proj, true
}

// Execute submits task and blocks until it completes, using the package's
// default poll interval and error tolerance.
func (c *Client) Execute(task interface{}) (messages.ExecutionProjection, error) {
	resp, err := c.SubmitExecution(task)
	if err != nil {
		return messages.ExecutionProjection{}, err
	}
	id, _ := resp["execution_id"].(string)
	if id == "" {
		errMsg, _ := resp["error"].(string)
		return messages.ExecutionProjection{}, fmt.Errorf("execution client: submit rejected: %s", errMsg)
	}
	return c.WaitForCompletion(id, 500*time.Millisecond, 5), nil
}

// CancelExecution requests cancellation of one execution.
func (c *Client) CancelExecution(executionID string) (messages.Dict, error) {
	req := messages.CancelRequest{ExecutionID: executionID}.ToDict()
	return transport.SendControlRequest(c.ControlPort(), c.Host(), c.Mode(), c.cfg, 5*time.Second, req)
}

// Ping sends a bare ping and returns the decoded pong.
func (c *Client) Ping() (messages.Dict, error) {
	return transport.SendControlRequest(c.ControlPort(), c.Host(), c.Mode(), c.cfg, 5*time.Second, messages.PingRequest{}.ToDict())
}

// GetServerInfo is an alias for Ping: the pong payload is the server's
// self-description (spec.md §4.9).
func (c *Client) GetServerInfo() (messages.Dict, error) {
	return c.Ping()
}

// Disconnect stops the progress listener (if running) before tearing down
// the underlying client.Base connection.
func (c *Client) Disconnect() {
	c.stopProgressListener()
	c.Base.Disconnect()
}

func (c *Client) startProgressListenerIfNeeded() {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	if c.progressStarted || c.onProgress == nil {
		return
	}
	c.progressStarted = true
	c.progressStop = make(chan struct{})
	c.progressWG.Add(1)
	go c.progressListenerLoop(c.progressStop)
}

func (c *Client) stopProgressListener() {
	c.progressMu.Lock()
	if !c.progressStarted {
		c.progressMu.Unlock()
		return
	}
	close(c.progressStop)
	c.progressStarted = false
	c.progressMu.Unlock()

	c.progressWG.Wait()
}

func (c *Client) progressListenerLoop(stop chan struct{}) {
	defer c.progressWG.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}

		conn, err := transport.Dial(c.DataPort(), c.Host(), c.Mode(), c.cfg, 2*time.Second)
		if err != nil {
			time.Sleep(200 * time.Millisecond)
			continue
		}
		c.readProgress(conn, stop)
	}
}

// readProgress reads frames until the connection errors/closes or stop
// fires; a watchdog goroutine closes the connection the moment stop fires
// so a blocking ReadFrame can't outlive Disconnect (spec.md §4.9: "stopped
// on disconnect").
func (c *Client) readProgress(conn net.Conn, stop chan struct{}) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-stop:
			conn.Close()
		case <-done:
		}
	}()

	for {
		raw, err := transport.ReadFrame(conn)
		if err != nil {
			return
		}
		var msg messages.ProgressMessage
		if err := messages.DecodeJSON(raw, &msg); err != nil {
			continue
		}
		if msg.Type != "progress" {
			continue
		}
		c.invokeProgress(msg)
	}
}

func (c *Client) invokeProgress(msg messages.ProgressMessage) {
	c.progressMu.Lock()
	cb := c.onProgress
	c.progressMu.Unlock()
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorf("execution client: progress callback panic: %v", r)
		}
	}()
	cb(msg)
}
