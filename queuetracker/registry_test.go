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

package queuetracker_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/trissim/zmqruntime/queuetracker"
)

var _ = Describe("Registry", func() {
	It("GetOrCreate returns the same tracker for repeated calls", func() {
		r := queuetracker.NewRegistry()
		t1 := r.GetOrCreate(9100, "napari")
		t2 := r.GetOrCreate(9100, "ignored-on-second-call")
		Expect(t1).To(BeIdenticalTo(t2))
	})

	It("Get returns nil for an unknown port", func() {
		r := queuetracker.NewRegistry()
		Expect(r.Get(9999)).To(BeNil())
	})

	It("Remove deletes the tracker", func() {
		r := queuetracker.NewRegistry()
		r.GetOrCreate(9100, "napari")
		r.Remove(9100)
		Expect(r.Get(9100)).To(BeNil())
	})

	It("All returns an independent snapshot", func() {
		r := queuetracker.NewRegistry()
		r.GetOrCreate(9100, "napari")

		snap := r.All()
		Expect(snap).To(HaveLen(1))
		r.GetOrCreate(9200, "vedo")
		Expect(snap).To(HaveLen(1))
	})

	It("ClearAll empties the registry", func() {
		r := queuetracker.NewRegistry()
		r.GetOrCreate(9100, "napari")
		r.GetOrCreate(9200, "vedo")
		r.ClearAll()
		Expect(r.All()).To(BeEmpty())
	})

	It("DefaultRegistry is a process-wide singleton", func() {
		Expect(queuetracker.DefaultRegistry()).To(BeIdenticalTo(queuetracker.DefaultRegistry()))
	})
})
