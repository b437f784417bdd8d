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
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/trissim/zmqruntime/config"
)

// ErrIPCOnWindows is returned by URL and IPCPath when Mode is IPC on Windows.
var ErrIPCOnWindows = fmt.Errorf("transport: IPC mode is not supported on Windows")

// IPCPath returns the filesystem path backing an IPC endpoint for port,
// ensuring the parent directory exists: ~/.<app>/<dir>/<prefix>-<port><ext>.
func IPCPath(port int, cfg config.Config) (string, error) {
	if runtime.GOOS == "windows" {
		return "", ErrIPCOnWindows
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("transport: resolve home directory: %w", err)
	}

	dir := filepath.Join(home, "."+cfg.AppName, cfg.IPCSocketDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("transport: create ipc directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s-%d%s", cfg.IPCSocketPrefix, port, cfg.IPCSocketExt)
	return filepath.Join(dir, name), nil
}

// URL returns the dial/listen endpoint for port under mode: "tcp://host:port"
// or "ipc://<path>".
func URL(port int, host string, mode Mode, cfg config.Config) (string, error) {
	switch mode {
	case TCP:
		if host == "" {
			host = "127.0.0.1"
		}
		return fmt.Sprintf("tcp://%s:%d", host, port), nil
	case IPC:
		path, err := IPCPath(port, cfg)
		if err != nil {
			return "", err
		}
		return "ipc://" + path, nil
	default:
		return "", fmt.Errorf("transport: unknown mode %v", mode)
	}
}

// address strips the tcp:// or ipc:// scheme, returning the bare dial/listen
// address ("host:port" or a filesystem path) plus the net.Listen network name.
func address(port int, host string, mode Mode, cfg config.Config) (network, addr string, err error) {
	switch mode {
	case TCP:
		if host == "" {
			host = "127.0.0.1"
		}
		return "tcp", fmt.Sprintf("%s:%d", host, port), nil
	case IPC:
		path, err := IPCPath(port, cfg)
		if err != nil {
			return "", "", err
		}
		return "unix", path, nil
	default:
		return "", "", fmt.Errorf("transport: unknown mode %v", mode)
	}
}
