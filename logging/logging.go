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

// Package logging is a small structured-logging facade over logrus, in the
// shape of nabbar-golib's logger package: a FuncLog constructor type for
// dependency injection, a Logger interface instead of a concrete *logrus.Logger
// leaking through the codebase, and per-call field injection.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// FuncLog returns a Logger lazily. The server and client constructors in
// this module do not take a FuncLog; they accept a Logger value directly.
type FuncLog func() Logger

// Logger is the logging surface every other package depends on.
type Logger interface {
	WithField(key string, val interface{}) Logger
	WithFields(fields map[string]interface{}) Logger

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	SetOutput(w io.Writer)
	SetLevel(level string)
}

type lgr struct {
	e *logrus.Entry
}

// New builds a Logger writing to stderr at the given level (any of logrus's
// level names; an invalid name falls back to info, matching the teacher's
// tolerant level parsing in logger/level.go).
func New(level string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	l.SetLevel(lv)

	return &lgr{e: logrus.NewEntry(l)}
}

// Noop returns a Logger that discards everything, for tests that don't care.
func Noop() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &lgr{e: logrus.NewEntry(l)}
}

func (g *lgr) WithField(key string, val interface{}) Logger {
	return &lgr{e: g.e.WithField(key, val)}
}

func (g *lgr) WithFields(fields map[string]interface{}) Logger {
	return &lgr{e: g.e.WithFields(fields)}
}

func (g *lgr) Debug(args ...interface{})                 { g.e.Debug(args...) }
func (g *lgr) Debugf(format string, args ...interface{}) { g.e.Debugf(format, args...) }
func (g *lgr) Info(args ...interface{})                  { g.e.Info(args...) }
func (g *lgr) Infof(format string, args ...interface{})  { g.e.Infof(format, args...) }
func (g *lgr) Warn(args ...interface{})                  { g.e.Warn(args...) }
func (g *lgr) Warnf(format string, args ...interface{})  { g.e.Warnf(format, args...) }
func (g *lgr) Error(args ...interface{})                 { g.e.Error(args...) }
func (g *lgr) Errorf(format string, args ...interface{}) { g.e.Errorf(format, args...) }

func (g *lgr) SetOutput(w io.Writer) {
	g.e.Logger.SetOutput(w)
}

func (g *lgr) SetLevel(level string) {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	g.e.Logger.SetLevel(lv)
}
