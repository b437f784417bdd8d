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

package queuetracker

import "sync"

// Registry is the process-wide viewer_port -> Tracker map of spec.md §4.3.
// It is implemented as a lazily-initialized owned instance (DefaultRegistry)
// guarded by its own lock, never as package-level mutable state accessed
// without synchronization (spec.md §9).
type Registry struct {
	m sync.RWMutex
	t map[int]*Tracker
}

// NewRegistry constructs an empty registry; most callers use DefaultRegistry.
func NewRegistry() *Registry {
	return &Registry{t: make(map[int]*Tracker)}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// DefaultRegistry returns the process-wide singleton registry.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
	})
	return defaultReg
}

// GetOrCreate returns the tracker for viewerPort, creating one if absent.
// The returned pointer remains valid until an explicit Remove.
func (r *Registry) GetOrCreate(viewerPort int, viewerType string) *Tracker {
	r.m.Lock()
	defer r.m.Unlock()

	if t, ok := r.t[viewerPort]; ok {
		return t
	}
	t := NewTracker(viewerPort, viewerType, 30)
	r.t[viewerPort] = t
	return t
}

// Get returns the tracker for viewerPort, or nil if none exists.
func (r *Registry) Get(viewerPort int) *Tracker {
	r.m.RLock()
	defer r.m.RUnlock()
	return r.t[viewerPort]
}

// Remove deletes the tracker for viewerPort.
func (r *Registry) Remove(viewerPort int) {
	r.m.Lock()
	defer r.m.Unlock()
	delete(r.t, viewerPort)
}

// All returns a snapshot copy of the registry's viewerPort -> Tracker map.
func (r *Registry) All() map[int]*Tracker {
	r.m.RLock()
	defer r.m.RUnlock()

	out := make(map[int]*Tracker, len(r.t))
	for k, v := range r.t {
		out[k] = v
	}
	return out
}

// ClearAll removes every tracker, for test isolation (spec.md §9).
func (r *Registry) ClearAll() {
	r.m.Lock()
	defer r.m.Unlock()
	r.t = make(map[int]*Tracker)
}
