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

package messages

// WorkerInfo is the per-worker-process augmentation of a PongResponse,
// populated only when a process-inspection facility is available
// (spec.md §4.6).
type WorkerInfo struct {
	PID        int32   `json:"pid"`
	Status     string  `json:"status"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb"`
	CreateTime int64   `json:"create_time"`
}

// PongResponse answers a ping. ActiveExecutions, RunningCount, QueuedCount,
// Running and Workers are subclass augmentations per spec.md §4.5/§4.6; the
// other fields are filled by the base server.
type PongResponse struct {
	Port             int
	ControlPort      int
	Ready            bool
	Server           string
	LogFilePath      string
	ActiveExecutions int
	RunningCount     int
	QueuedCount      int
	Running          []RunningSummary
	Workers          []WorkerInfo
	UptimeSeconds    float64
}

// RunningSummary abbreviates a running ExecutionRecord for the pong payload.
type RunningSummary struct {
	ExecutionID    string
	PlateID        string
	ElapsedSeconds float64
}

func (p PongResponse) ToDict() Dict {
	d := Dict{
		"type":              string(Pong),
		"port":              p.Port,
		"control_port":      p.ControlPort,
		"ready":             p.Ready,
		"server":            p.Server,
		"active_executions": p.ActiveExecutions,
		"running_executions": p.RunningCount,
		"queued_executions":  p.QueuedCount,
		"uptime":              p.UptimeSeconds,
	}
	if p.LogFilePath != "" {
		d["log_file_path"] = p.LogFilePath
	}
	if len(p.Running) > 0 {
		d["running"] = p.Running
	}
	if len(p.Workers) > 0 {
		d["workers"] = p.Workers
	}
	return d
}

// AcceptedResponse answers a successful execute.
type AcceptedResponse struct {
	ExecutionID string
	Message     string
}

func (r AcceptedResponse) ToDict() Dict {
	return Dict{
		"status":       string(Accepted),
		"execution_id": r.ExecutionID,
		"message":      r.Message,
	}
}

// ExecutionProjection is the status-response projection of one record.
type ExecutionProjection struct {
	ExecutionID    string
	PlateID        string
	Status         ExecutionStatus
	StartTime      *int64
	EndTime        *int64
	Error          string
	ResultsSummary map[string]interface{}
}

// StatusOkResponse answers a status request, either for one execution or
// (when Execution is nil) the server-wide summary.
type StatusOkResponse struct {
	Execution        *ExecutionProjection
	ActiveExecutions int
	UptimeSeconds    float64
	Executions       []string
}

func (r StatusOkResponse) ToDict() Dict {
	if r.Execution != nil {
		e := r.Execution
		d := Dict{
			"status":       string(Ok),
			"execution_id": e.ExecutionID,
			"plate_id":     e.PlateID,
			"exec_status":  string(e.Status),
		}
		if e.StartTime != nil {
			d["start_time"] = *e.StartTime
		}
		if e.EndTime != nil {
			d["end_time"] = *e.EndTime
		}
		if e.Error != "" {
			d["error"] = e.Error
		}
		if e.ResultsSummary != nil {
			d["results_summary"] = e.ResultsSummary
		}
		return d
	}

	return Dict{
		"status":            string(Ok),
		"active_executions": r.ActiveExecutions,
		"uptime":            r.UptimeSeconds,
		"executions":        r.Executions,
	}
}

// CancelOkResponse answers a successful cancel.
type CancelOkResponse struct {
	WorkersKilled int
	Message       string
}

func (r CancelOkResponse) ToDict() Dict {
	return Dict{"status": string(Ok), "workers_killed": r.WorkersKilled, "message": r.Message}
}

// ErrorResponse is returned for validation failures, unknown message types,
// and handler exceptions (spec.md §7).
type ErrorResponse struct {
	Error string
}

func (r ErrorResponse) ToDict() Dict {
	return Dict{"status": string(ErrorType), "type": string(ErrorType), "error": r.Error, "message": r.Error}
}

// ShutdownAckResponse answers shutdown / force_shutdown.
type ShutdownAckResponse struct {
	Status  string
	Message string
}

func (r ShutdownAckResponse) ToDict() Dict {
	return Dict{"type": string(ShutdownAck), "status": r.Status, "message": r.Message}
}
