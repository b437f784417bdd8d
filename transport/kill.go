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

package transport

import (
	"time"

	gnet "github.com/shirou/gopsutil/net"
	gproc "github.com/shirou/gopsutil/process"
)

// KillProcessesOnPort is the best-effort reaper of spec.md §4.5: it finds
// whichever PIDs are listening on port and terminates them, gracefully
// first and then forcibly. It uses gopsutil's connection enumeration
// instead of shelling out to lsof/netstat and parsing text.
func KillProcessesOnPort(port int) int {
	conns, err := gnet.Connections("inet")
	if err != nil {
		return 0
	}

	seen := map[int32]bool{}
	for _, c := range conns {
		if c.Status != "LISTEN" || c.Pid == 0 {
			continue
		}
		if int(c.Laddr.Port) != port {
			continue
		}
		seen[c.Pid] = true
	}

	killed := 0
	for pid := range seen {
		p, err := gproc.NewProcess(pid)
		if err != nil {
			continue
		}
		_ = p.Terminate()
		time.Sleep(50 * time.Millisecond)
		if running, _ := p.IsRunning(); running {
			_ = p.Kill()
		}
		killed++
	}
	return killed
}
