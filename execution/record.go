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

// Package execution implements the FIFO submission queue, single-consumer
// worker, cancellation model, and client-side submit/poll/wait API of
// spec.md §4.6/§4.9 — "the heart" of the runtime.
package execution

import (
	"sync"
	"time"

	"github.com/trissim/zmqruntime/messages"
)

// Record is the per-job ExecutionRecord of spec.md §3. Status transitions
// are monotonic: queued -> running -> {complete, failed, cancelled}; a
// transition out of a terminal state is forbidden and every setter here
// enforces that under its own lock.
type Record struct {
	m sync.Mutex

	ExecutionID    string
	PlateID        string
	ClientAddress  string
	status         messages.ExecutionStatus
	startTime      *int64
	endTime        *int64
	errorMsg       string
	resultsSummary map[string]interface{}
}

// NewRecord creates a record in the "queued" state.
func NewRecord(executionID, plateID, clientAddress string) *Record {
	return &Record{
		ExecutionID:   executionID,
		PlateID:       plateID,
		ClientAddress: clientAddress,
		status:        messages.Queued,
	}
}

// Status returns the record's current status.
func (r *Record) Status() messages.ExecutionStatus {
	r.m.Lock()
	defer r.m.Unlock()
	return r.status
}

// MarkRunning transitions queued -> running and stamps StartTime.
func (r *Record) MarkRunning(now time.Time) bool {
	r.m.Lock()
	defer r.m.Unlock()

	if r.status != messages.Queued {
		return false
	}
	r.status = messages.Running
	t := now.Unix()
	r.startTime = &t
	return true
}

// MarkComplete transitions running -> complete, stamping EndTime and
// storing resultsSummary.
func (r *Record) MarkComplete(now time.Time, resultsSummary map[string]interface{}) {
	r.m.Lock()
	defer r.m.Unlock()

	if r.status.IsTerminal() {
		return
	}
	r.status = messages.Complete
	t := now.Unix()
	r.endTime = &t
	r.resultsSummary = resultsSummary
}

// MarkFailed transitions to failed, stamping EndTime and the error string.
func (r *Record) MarkFailed(now time.Time, errMsg string) {
	r.m.Lock()
	defer r.m.Unlock()

	if r.status.IsTerminal() {
		return
	}
	r.status = messages.Failed
	t := now.Unix()
	r.endTime = &t
	r.errorMsg = errMsg
}

// MarkCancelled transitions {queued, running} -> cancelled, stamping
// EndTime. Returns whether the transition happened (false if the record
// was already terminal).
func (r *Record) MarkCancelled(now time.Time) bool {
	r.m.Lock()
	defer r.m.Unlock()

	if r.status.IsTerminal() {
		return false
	}
	r.status = messages.Cancelled
	t := now.Unix()
	r.endTime = &t
	return true
}

// Projection returns the read-only view returned by the "status" handler.
func (r *Record) Projection() messages.ExecutionProjection {
	r.m.Lock()
	defer r.m.Unlock()

	return messages.ExecutionProjection{
		ExecutionID:    r.ExecutionID,
		PlateID:        r.PlateID,
		Status:         r.status,
		StartTime:      r.startTime,
		EndTime:        r.endTime,
		Error:          r.errorMsg,
		ResultsSummary: r.resultsSummary,
	}
}

// ElapsedSeconds returns time.Since(StartTime) for a running record, 0
// otherwise. Used for the pong's abbreviated running-record summaries.
func (r *Record) ElapsedSeconds(now time.Time) float64 {
	r.m.Lock()
	defer r.m.Unlock()

	if r.status != messages.Running || r.startTime == nil {
		return 0
	}
	return now.Sub(time.Unix(*r.startTime, 0)).Seconds()
}

// SummarizeResults builds the results_summary map spec.md §4.6 describes:
// when result is a map, it stores the key count and key list.
func SummarizeResults(result map[string]interface{}) map[string]interface{} {
	if result == nil {
		return nil
	}
	keys := make([]string, 0, len(result))
	for k := range result {
		keys = append(keys, k)
	}
	return map[string]interface{}{
		"well_count": len(keys),
		"wells":      keys,
	}
}
