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

// Package queuetracker implements the per-viewer pending/processed
// accounting of spec.md §4.3 and its process-wide registry.
package queuetracker

import (
	"sync"
	"time"
)

// Tracker is a single viewer's pending/processed accounting. All mutators
// are mutually exclusive under m, per spec.md's ownership note: the ack
// listener mutates via MarkProcessed, senders mutate via RegisterSent.
type Tracker struct {
	m sync.Mutex

	viewerPort     int
	viewerType     string
	timeoutSeconds float64

	pending        map[string]time.Time
	processed      map[string]struct{}
	totalSent      int
	totalProcessed int
}

// NewTracker constructs a tracker for one viewer.
func NewTracker(viewerPort int, viewerType string, timeoutSeconds float64) *Tracker {
	return &Tracker{
		viewerPort:     viewerPort,
		viewerType:     viewerType,
		timeoutSeconds: timeoutSeconds,
		pending:        make(map[string]time.Time),
		processed:      make(map[string]struct{}),
	}
}

// ViewerPort and ViewerType are read-only accessors used by the registry.
func (t *Tracker) ViewerPort() int      { return t.viewerPort }
func (t *Tracker) ViewerType() string   { return t.viewerType }

// RegisterSent records image_id as pending and increments TotalSent.
func (t *Tracker) RegisterSent(imageID string) {
	t.m.Lock()
	defer t.m.Unlock()

	t.pending[imageID] = time.Now()
	t.totalSent++
}

// MarkProcessed moves image_id from pending to processed. If it was never
// registered (a cross-process sender that bypassed RegisterSent), it is
// retroactively counted as both sent and processed, per spec.md §4.3.
func (t *Tracker) MarkProcessed(imageID string) {
	t.m.Lock()
	defer t.m.Unlock()

	if _, ok := t.pending[imageID]; ok {
		delete(t.pending, imageID)
		t.processed[imageID] = struct{}{}
		t.totalProcessed++
		return
	}

	if _, already := t.processed[imageID]; already {
		return
	}

	t.processed[imageID] = struct{}{}
	t.totalSent++
	t.totalProcessed++
}

// Progress returns (processed, sent) counts.
func (t *Tracker) Progress() (processed, sent int) {
	t.m.Lock()
	defer t.m.Unlock()
	return t.totalProcessed, t.totalSent
}

// PendingCount returns the number of images sent but not yet processed.
func (t *Tracker) PendingCount() int {
	t.m.Lock()
	defer t.m.Unlock()
	return len(t.pending)
}

// StuckImage is one entry returned by StuckImages.
type StuckImage struct {
	ImageID        string
	ElapsedSeconds float64
}

// StuckImages returns every pending entry whose age exceeds timeoutSeconds.
func (t *Tracker) StuckImages() []StuckImage {
	t.m.Lock()
	defer t.m.Unlock()

	now := time.Now()
	var stuck []StuckImage
	for id, sentAt := range t.pending {
		elapsed := now.Sub(sentAt).Seconds()
		if elapsed > t.timeoutSeconds {
			stuck = append(stuck, StuckImage{ImageID: id, ElapsedSeconds: elapsed})
		}
	}
	return stuck
}

// ResetForNewBatch empties all pending/processed tracking and counters,
// leaving viewerPort/viewerType/timeoutSeconds untouched.
func (t *Tracker) ResetForNewBatch() {
	t.m.Lock()
	defer t.m.Unlock()

	t.pending = make(map[string]time.Time)
	t.processed = make(map[string]struct{})
	t.totalSent = 0
	t.totalProcessed = 0
}

// Clear is an alias for ResetForNewBatch: the original implementation gives
// callers two names for the same reset (one for "viewer closed", one for
// "new batch starting") but both have the identical body
// (original_source/src/zmqruntime/queue_tracker.py's clear/reset_for_new_batch).
func (t *Tracker) Clear() {
	t.ResetForNewBatch()
}
