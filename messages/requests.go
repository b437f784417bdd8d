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

import "fmt"

// PingRequest carries no payload.
type PingRequest struct{}

func (PingRequest) ToDict() Dict { return Dict{"type": string(Ping)} }

// ExecuteRequest is validated per spec.md §4.2: plate_id and pipeline_code
// are always required; at least one of config_params/config_code is required.
type ExecuteRequest struct {
	PlateID            string
	PipelineCode       string
	ConfigParams       map[string]interface{}
	ConfigCode         string
	PipelineConfigCode string
	ClientAddress      string
}

// Validate returns a descriptive error string for the first missing
// required field, or empty if the request is well-formed. Returning a
// string (not an error) mirrors the reply payload spec.md §4.2 requires:
// validation failures are surfaced as data, not exceptions.
func (r ExecuteRequest) Validate() string {
	if r.PlateID == "" {
		return "Missing required field: plate_id"
	}
	if r.PipelineCode == "" {
		return "Missing required field: pipeline_code"
	}
	if len(r.ConfigParams) == 0 && r.ConfigCode == "" {
		return "Missing required field: config_params or config_code"
	}
	return ""
}

func (r ExecuteRequest) ToDict() Dict {
	d := Dict{
		"type":          string(Execute),
		"plate_id":      r.PlateID,
		"pipeline_code": r.PipelineCode,
	}
	if len(r.ConfigParams) > 0 {
		d["config_params"] = r.ConfigParams
	}
	if r.ConfigCode != "" {
		d["config_code"] = r.ConfigCode
	}
	if r.PipelineConfigCode != "" {
		d["pipeline_config_code"] = r.PipelineConfigCode
	}
	if r.ClientAddress != "" {
		d["client_address"] = r.ClientAddress
	}
	return d
}

// ExecuteRequestFromDict rebuilds an ExecuteRequest from its wire Dict.
// Unlike Validate, this only fails when a field has the wrong Go type on
// the wire (a codec-level defect), not when a required field is absent;
// presence is checked by Validate once the struct is already constructed.
func ExecuteRequestFromDict(d Dict) (ExecuteRequest, error) {
	r := ExecuteRequest{}
	if v, ok := d["plate_id"]; ok {
		s, ok := v.(string)
		if !ok {
			return r, fmt.Errorf("messages: plate_id: expected string")
		}
		r.PlateID = s
	}
	if v, ok := d["pipeline_code"]; ok {
		s, ok := v.(string)
		if !ok {
			return r, fmt.Errorf("messages: pipeline_code: expected string")
		}
		r.PipelineCode = s
	}
	if v, ok := d["config_params"]; ok {
		m, ok := v.(map[string]interface{})
		if !ok {
			return r, fmt.Errorf("messages: config_params: expected mapping")
		}
		r.ConfigParams = m
	}
	if v, ok := d["config_code"]; ok {
		s, _ := v.(string)
		r.ConfigCode = s
	}
	if v, ok := d["pipeline_config_code"]; ok {
		s, _ := v.(string)
		r.PipelineConfigCode = s
	}
	if v, ok := d["client_address"]; ok {
		s, _ := v.(string)
		r.ClientAddress = s
	}
	return r, nil
}

// StatusRequest asks for one execution's record, or the server summary when
// ExecutionID is empty.
type StatusRequest struct {
	ExecutionID string
}

func (r StatusRequest) ToDict() Dict {
	d := Dict{"type": string(Status)}
	if r.ExecutionID != "" {
		d["execution_id"] = r.ExecutionID
	}
	return d
}

// CancelRequest targets one execution.
type CancelRequest struct {
	ExecutionID string
}

func (r CancelRequest) ToDict() Dict {
	return Dict{"type": string(Cancel), "execution_id": r.ExecutionID}
}

// ShutdownRequest and ForceShutdownRequest carry no payload.
type ShutdownRequest struct{}

func (ShutdownRequest) ToDict() Dict { return Dict{"type": string(Shutdown)} }

type ForceShutdownRequest struct{}

func (ForceShutdownRequest) ToDict() Dict { return Dict{"type": string(ForceShutdown)} }
