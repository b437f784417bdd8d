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

// Package config holds the immutable runtime configuration shared by every
// other package: port arithmetic, IPC path layout, and the ambient log level
// knob that the rest of the runtime reads but never mutates after load.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the immutable record described in spec.md §3. control_port is
// always data_port + ControlPortOffset: callers never set control_port
// directly, they derive it with ControlPort.
type Config struct {
	ControlPortOffset int    `mapstructure:"control_port_offset"`
	DefaultPort       int    `mapstructure:"default_port"`
	IPCSocketDir      string `mapstructure:"ipc_socket_dir"`
	IPCSocketPrefix   string `mapstructure:"ipc_socket_prefix"`
	IPCSocketExt      string `mapstructure:"ipc_socket_extension"`
	SharedAckPort     int    `mapstructure:"shared_ack_port"`
	AppName           string `mapstructure:"app_name"`

	// LogLevel is ambient: it does not appear in spec.md §3, but every
	// component needs a level to hand to the logging package.
	LogLevel string `mapstructure:"log_level"`
}

// Default returns the configuration described by spec.md §3's field list.
func Default() Config {
	return Config{
		ControlPortOffset: 1000,
		DefaultPort:       7777,
		IPCSocketDir:      "ipc",
		IPCSocketPrefix:   "zmq",
		IPCSocketExt:      ".sock",
		SharedAckPort:     7555,
		AppName:           "zmqruntime",
		LogLevel:          "info",
	}
}

// ControlPort enforces the global invariant control_port == data_port + offset.
func (c Config) ControlPort(dataPort int) int {
	return dataPort + c.ControlPortOffset
}

// Load reads overrides from a viper instance on top of Default, the way
// nabbar-golib's config/components wire a JSON default document through
// viper.Unmarshal. A nil v is equivalent to Default().
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if v == nil {
		return cfg, nil
	}

	v.SetDefault("control_port_offset", cfg.ControlPortOffset)
	v.SetDefault("default_port", cfg.DefaultPort)
	v.SetDefault("ipc_socket_dir", cfg.IPCSocketDir)
	v.SetDefault("ipc_socket_prefix", cfg.IPCSocketPrefix)
	v.SetDefault("ipc_socket_extension", cfg.IPCSocketExt)
	v.SetDefault("shared_ack_port", cfg.SharedAckPort)
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("log_level", cfg.LogLevel)

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	return cfg, nil
}
