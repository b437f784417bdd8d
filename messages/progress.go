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

// ProgressMessage is published on the data channel as UTF-8 JSON
// (spec.md §4.2/§6).
type ProgressMessage struct {
	Type      string  `json:"type"`
	WellID    string  `json:"well_id"`
	Step      string  `json:"step"`
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

// NewProgressMessage sets Type to "progress".
func NewProgressMessage(wellID, step, status string, timestamp float64) ProgressMessage {
	return ProgressMessage{Type: "progress", WellID: wellID, Step: step, Status: status, Timestamp: timestamp}
}
