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
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	gproc "github.com/shirou/gopsutil/process"

	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/logging"
	"github.com/trissim/zmqruntime/messages"
	"github.com/trissim/zmqruntime/server"
	"github.com/trissim/zmqruntime/transport"
)

func init() {
	server.RegisterType("execution", "FIFO single-worker execution server")
}

// progressQueueCapacity bounds the progress channel; a full queue drops the
// newest update with a warning rather than blocking the submitter
// (spec.md §4.6).
const progressQueueCapacity = 1000

// visualizerNamePattern excludes paired viewer processes from the worker
// reaper so cancelling a job never kills the window displaying its output
// (spec.md §4.6's "excluding known visualizer commands").
var visualizerNamePattern = regexp.MustCompile(`(?i)viewer|visuali[sz]er`)

// TaskExecutor is the subclass hook spec.md §4.6 calls execute_task: the
// actual pipeline/plate processing logic is an external collaborator, not
// part of this runtime (spec.md §1).
type TaskExecutor interface {
	ExecuteTask(executionID string, req messages.ExecuteRequest) (map[string]interface{}, error)
}

type queueItem struct {
	executionID string
	req         messages.ExecuteRequest
	record      *Record
}

// Server is the ExecutionServer of spec.md §4.6: a FIFO submission queue
// with a single sequential worker, layered on server.Base.
type Server struct {
	base     *server.Base
	cfg      config.Config
	log      logging.Logger
	executor TaskExecutor

	mu      sync.Mutex
	active  map[string]*Record
	order   []string
	queue   []queueItem

	progressCh chan messages.ProgressMessage

	wg sync.WaitGroup
}

// NewServer constructs an ExecutionServer bound to dataPort (publish role:
// the data socket broadcasts progress updates) with executor as the
// pluggable task-execution hook.
func NewServer(host string, dataPort int, mode transport.Mode, cfg config.Config, log logging.Logger, executor TaskExecutor) *Server {
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		cfg:        cfg,
		log:        log,
		executor:   executor,
		active:     make(map[string]*Record),
		progressCh: make(chan messages.ProgressMessage, progressQueueCapacity),
	}
	s.base = server.NewBase("ExecutionServer", host, dataPort, mode, server.Publish, cfg, log)
	s.base.RegisterHandler(messages.Execute, s.handleExecute)
	s.base.RegisterHandler(messages.Status, s.handleStatus)
	s.base.RegisterHandler(messages.Cancel, s.handleCancel)
	s.base.RegisterHandler(messages.Shutdown, s.handleShutdown)
	s.base.RegisterHandler(messages.ForceShutdown, s.handleForceShutdown)
	s.base.SetPongAugment(s.pongAugment)
	return s
}

// Base exposes the underlying lifecycle for probes/tests.
func (s *Server) Base() *server.Base { return s.base }

// Start binds both sockets and launches the queue worker and progress
// publisher goroutines.
func (s *Server) Start() error {
	if err := s.base.Start(); err != nil {
		return err
	}
	s.wg.Add(2)
	go s.workerLoop()
	go s.progressPublishLoop()
	return nil
}

// Stop requests shutdown, cancels outstanding work, and waits for every
// goroutine this server owns to exit.
func (s *Server) Stop() {
	s.bulkCancel()
	s.base.Stop()
	close(s.progressCh)
	s.wg.Wait()
}

func (s *Server) handleExecute(d messages.Dict) messages.Dict {
	req, err := messages.ExecuteRequestFromDict(d)
	if err != nil {
		return messages.ErrorResponse{Error: err.Error()}.ToDict()
	}
	if msg := req.Validate(); msg != "" {
		return messages.ErrorResponse{Error: msg}.ToDict()
	}

	id := uuid.NewString()
	rec := NewRecord(id, req.PlateID, req.ClientAddress)

	s.mu.Lock()
	s.active[id] = rec
	s.order = append(s.order, id)
	s.queue = append(s.queue, queueItem{executionID: id, req: req, record: rec})
	position := len(s.queue)
	s.mu.Unlock()

	return messages.AcceptedResponse{
		ExecutionID: id,
		Message:     fmt.Sprintf("queued (position %d)", position),
	}.ToDict()
}

func (s *Server) handleStatus(d messages.Dict) messages.Dict {
	if idVal, ok := d["execution_id"]; ok {
		id, _ := idVal.(string)
		s.mu.Lock()
		rec := s.active[id]
		s.mu.Unlock()
		if rec == nil {
			return messages.ErrorResponse{Error: fmt.Sprintf("Unknown execution_id: %s", id)}.ToDict()
		}
		proj := rec.Projection()
		return messages.StatusOkResponse{Execution: &proj}.ToDict()
	}

	s.mu.Lock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	active := len(s.active)
	s.mu.Unlock()

	return messages.StatusOkResponse{
		ActiveExecutions: active,
		UptimeSeconds:    s.base.Uptime().Seconds(),
		Executions:       ids,
	}.ToDict()
}

func (s *Server) handleCancel(d messages.Dict) messages.Dict {
	id, _ := d["execution_id"].(string)
	s.mu.Lock()
	rec := s.active[id]
	s.mu.Unlock()
	if rec == nil {
		return messages.ErrorResponse{Error: fmt.Sprintf("Unknown execution_id: %s", id)}.ToDict()
	}

	killed := s.bulkCancel()
	return messages.CancelOkResponse{WorkersKilled: killed, Message: "cancelled"}.ToDict()
}

func (s *Server) handleShutdown(d messages.Dict) messages.Dict {
	s.bulkCancel()
	return messages.ShutdownAckResponse{Status: "ok", Message: "shutdown acknowledged"}.ToDict()
}

func (s *Server) handleForceShutdown(d messages.Dict) messages.Dict {
	s.bulkCancel()
	s.base.RequestShutdown()
	return messages.ShutdownAckResponse{Status: "ok", Message: "force shutdown acknowledged"}.ToDict()
}

// bulkCancel transitions every non-terminal record to cancelled and reaps
// worker processes; it is invoked by cancel, shutdown, and force_shutdown
// alike because this runtime's single-worker model makes cancellation
// fleet-wide (spec.md §4.6, §8's recorded open question).
func (s *Server) bulkCancel() int {
	now := time.Now()
	s.mu.Lock()
	for _, rec := range s.active {
		rec.MarkCancelled(now)
	}
	s.mu.Unlock()
	return s.killWorkerProcesses()
}

// workerLoop is the single-consumer FIFO worker of spec.md §4.6.
func (s *Server) workerLoop() {
	defer s.wg.Done()
	for s.base.IsRunning() {
		item, ok := s.dequeueWait(time.Second)
		if !ok {
			continue
		}
		if !s.base.IsRunning() {
			item.record.MarkCancelled(time.Now())
			break
		}
		if item.record.Status() == messages.Cancelled {
			continue
		}
		s.runExecution(item)
	}
	s.drainQueue()
}

func (s *Server) dequeueWait(timeout time.Duration) (queueItem, bool) {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			item := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return item, true
		}
		s.mu.Unlock()

		if time.Now().After(deadline) {
			return queueItem{}, false
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (s *Server) drainQueue() {
	s.mu.Lock()
	remaining := s.queue
	s.queue = nil
	s.mu.Unlock()

	now := time.Now()
	for _, item := range remaining {
		item.record.MarkCancelled(now)
	}
}

func (s *Server) runExecution(item queueItem) {
	item.record.MarkRunning(time.Now())

	result, err := s.callExecutor(item.executionID, item.req)
	switch {
	case err != nil && item.record.Status() == messages.Cancelled:
		// Cancellation reached the worker before execute_task returned; the
		// broken-worker error is expected and not a failure (spec.md §5).
	case err != nil:
		item.record.MarkFailed(time.Now(), err.Error())
	default:
		item.record.MarkComplete(time.Now(), SummarizeResults(result))
	}

	s.killWorkerProcesses()
}

func (s *Server) callExecutor(id string, req messages.ExecuteRequest) (result map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("execute_task panic: %v", r)
		}
	}()
	return s.executor.ExecuteTask(id, req)
}

// SendProgressUpdate enqueues a progress payload for publication on the
// data socket; a full queue drops the update with a warning instead of
// blocking the caller (spec.md §4.6).
func (s *Server) SendProgressUpdate(wellID, step, status string) {
	msg := messages.NewProgressMessage(wellID, step, status, float64(time.Now().UnixNano())/1e9)
	select {
	case s.progressCh <- msg:
	default:
		s.log.Warnf("execution: progress queue full, dropping update for well %s", wellID)
	}
}

func (s *Server) progressPublishLoop() {
	defer s.wg.Done()
	for msg := range s.progressCh {
		payload, err := messages.EncodeJSON(msg)
		if err != nil {
			s.log.Warnf("execution: encode progress update: %v", err)
			continue
		}
		_ = s.base.PublishData(payload)
	}
}

// pongAugment reports queue/worker state per spec.md §4.6's pong
// augmentation.
func (s *Server) pongAugment() messages.Dict {
	now := time.Now()

	s.mu.Lock()
	activeExecutions := len(s.active)
	queuedCount := len(s.queue)
	runningCount := 0
	running := make([]messages.RunningSummary, 0)
	for _, rec := range s.active {
		if rec.Status() != messages.Running {
			continue
		}
		runningCount++
		proj := rec.Projection()
		running = append(running, messages.RunningSummary{
			ExecutionID:    proj.ExecutionID,
			PlateID:        proj.PlateID,
			ElapsedSeconds: rec.ElapsedSeconds(now),
		})
	}
	s.mu.Unlock()

	d := messages.Dict{
		"active_executions":  activeExecutions,
		"running_executions": runningCount,
		"queued_executions":  queuedCount,
	}
	if len(running) > 0 {
		d["running"] = running
	}
	if workers := s.workerInfo(); len(workers) > 0 {
		d["workers"] = workers
	}
	return d
}

// workerInfo reports metadata for every direct child process, when gopsutil
// can enumerate them (spec.md §4.6: "worker metadata ... if a
// process-inspection facility is available").
func (s *Server) workerInfo() []messages.WorkerInfo {
	self, err := gproc.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil
	}
	children, err := self.Children()
	if err != nil {
		return nil
	}

	infos := make([]messages.WorkerInfo, 0, len(children))
	for _, c := range children {
		running, _ := c.IsRunning()
		status := "stopped"
		if running {
			status = "running"
		}
		cpuPct, _ := c.CPUPercent()
		memMB := 0.0
		if mem, err := c.MemoryInfo(); err == nil && mem != nil {
			memMB = float64(mem.RSS) / (1024 * 1024)
		}
		createTime, _ := c.CreateTime()
		infos = append(infos, messages.WorkerInfo{
			PID:        c.Pid,
			Status:     status,
			CPUPercent: cpuPct,
			MemoryMB:   memMB,
			CreateTime: createTime,
		})
	}
	return infos
}

// killWorkerProcesses is the reaper of spec.md §4.6: it enumerates direct
// child processes, separates zombies from live ones, excludes visualizer
// commands, and escalates live workers from terminate to kill.
func (s *Server) killWorkerProcesses() int {
	self, err := gproc.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	children, err := self.Children()
	if err != nil {
		return 0
	}

	affected := 0
	live := make([]*gproc.Process, 0, len(children))
	for _, c := range children {
		if isZombie(c) {
			affected++
			continue
		}
		if name, err := c.Name(); err == nil && visualizerNamePattern.MatchString(name) {
			continue
		}
		live = append(live, c)
	}

	for _, c := range live {
		_ = c.Terminate()
	}

	deadline := time.Now().Add(3 * time.Second)
	for _, c := range live {
		for time.Now().Before(deadline) {
			if running, _ := c.IsRunning(); !running {
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
	}

	for _, c := range live {
		if running, _ := c.IsRunning(); running {
			_ = c.Kill()
			time.Sleep(time.Second)
		}
		affected++
	}

	return affected
}

func isZombie(p *gproc.Process) bool {
	statuses, err := p.Status()
	if err != nil {
		return false
	}
	for _, st := range statuses {
		if st == "Z" || st == "zombie" {
			return true
		}
	}
	return false
}
