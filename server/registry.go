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

package server

import "sync"

// typeRegistry replaces the source runtime's metaclass auto-registration
// with an explicit call at server-type definition time (spec.md §9):
// execution.init() and streaming.init() call RegisterType with their own
// server_type tag so a host process can enumerate what's available without
// reflection.
var (
	typeRegistryMu sync.Mutex
	typeRegistry   = map[string]string{}
)

// RegisterType records that a server subclass identifies itself as key
// (e.g. "execution", "streaming"), with a human-readable description.
func RegisterType(key, description string) {
	typeRegistryMu.Lock()
	defer typeRegistryMu.Unlock()
	typeRegistry[key] = description
}

// RegisteredTypes returns a snapshot of key -> description for every
// registered server subclass.
func RegisteredTypes() map[string]string {
	typeRegistryMu.Lock()
	defer typeRegistryMu.Unlock()

	out := make(map[string]string, len(typeRegistry))
	for k, v := range typeRegistry {
		out[k] = v
	}
	return out
}
