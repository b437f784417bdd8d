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

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

func init() {
	// Concrete types that can appear boxed in a Dict's interface{} values;
	// gob needs every one of them registered before it will decode an
	// interface successfully.
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
	gob.Register([]string{})
	gob.Register([]RunningSummary{})
	gob.Register([]WorkerInfo{})
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(bool(false))
	gob.Register("")
}

// EncodeControl serializes a Dict as an opaque binary blob for the control
// channel (spec.md §4.2: "language-native object serialization is
// acceptable so long as both endpoints agree").
func EncodeControl(d Dict) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d); err != nil {
		return nil, fmt.Errorf("messages: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeControl is the inverse of EncodeControl. It fails with a wrapped gob
// decode error when the blob is not a valid Dict, which the server turns
// into an ErrorResponse.
func DecodeControl(b []byte) (Dict, error) {
	var d Dict
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&d); err != nil {
		return nil, fmt.Errorf("messages: gob decode: %w", err)
	}
	return d, nil
}

// RequestTypeOf extracts and validates the "type" field of a decoded Dict.
func RequestTypeOf(d Dict) (RequestType, error) {
	v, ok := d["type"]
	if !ok {
		return "", fmt.Errorf("messages: missing required field: type")
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("messages: type field is not a string")
	}
	return RequestType(s), nil
}

// EncodeJSON/DecodeJSON serialize data-channel and ack-channel payloads
// (progress updates, ImageAck) as UTF-8 JSON per spec.md §4.2.
func EncodeJSON(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("messages: json encode: %w", err)
	}
	return b, nil
}

func DecodeJSON(b []byte, v interface{}) error {
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("messages: json decode: %w", err)
	}
	return nil
}
