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

package execution_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/trissim/zmqruntime/execution"
	"github.com/trissim/zmqruntime/messages"
)

var _ = Describe("Record", func() {
	It("starts queued", func() {
		r := execution.NewRecord("exec-1", "plate-1", "10.0.0.1")
		Expect(r.Status()).To(Equal(messages.Queued))
	})

	It("MarkRunning transitions queued -> running exactly once", func() {
		r := execution.NewRecord("exec-1", "plate-1", "")
		Expect(r.MarkRunning(time.Now())).To(BeTrue())
		Expect(r.Status()).To(Equal(messages.Running))
		Expect(r.MarkRunning(time.Now())).To(BeFalse())
	})

	It("MarkComplete is a no-op once a record is already terminal", func() {
		r := execution.NewRecord("exec-1", "plate-1", "")
		r.MarkRunning(time.Now())
		r.MarkCancelled(time.Now())
		r.MarkComplete(time.Now(), map[string]interface{}{"a": 1})
		Expect(r.Status()).To(Equal(messages.Cancelled))
	})

	It("MarkFailed stamps the error message", func() {
		r := execution.NewRecord("exec-1", "plate-1", "")
		r.MarkRunning(time.Now())
		r.MarkFailed(time.Now(), "pipeline exploded")
		proj := r.Projection()
		Expect(proj.Status).To(Equal(messages.Failed))
		Expect(proj.Error).To(Equal("pipeline exploded"))
	})

	It("MarkCancelled transitions from queued or running, never twice", func() {
		r := execution.NewRecord("exec-1", "plate-1", "")
		Expect(r.MarkCancelled(time.Now())).To(BeTrue())
		Expect(r.MarkCancelled(time.Now())).To(BeFalse())
	})

	It("ElapsedSeconds is zero unless running", func() {
		r := execution.NewRecord("exec-1", "plate-1", "")
		Expect(r.ElapsedSeconds(time.Now())).To(Equal(0.0))

		r.MarkRunning(time.Now().Add(-2 * time.Second))
		Expect(r.ElapsedSeconds(time.Now())).To(BeNumerically(">", 0))
	})

	It("Projection reflects the current state under lock", func() {
		r := execution.NewRecord("exec-9", "plate-9", "addr")
		proj := r.Projection()
		Expect(proj.ExecutionID).To(Equal("exec-9"))
		Expect(proj.PlateID).To(Equal("plate-9"))
		Expect(proj.Status).To(Equal(messages.Queued))
	})
})

var _ = Describe("SummarizeResults", func() {
	It("returns nil for a nil result", func() {
		Expect(execution.SummarizeResults(nil)).To(BeNil())
	})

	It("reports well_count and the well list for a result map", func() {
		s := execution.SummarizeResults(map[string]interface{}{"A01": 1, "A02": 2})
		Expect(s["well_count"]).To(Equal(2))
		wells, ok := s["wells"].([]string)
		Expect(ok).To(BeTrue())
		Expect(wells).To(ConsistOf("A01", "A02"))
	})
})
