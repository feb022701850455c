/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

// Package logger is a thin, leveled, structured logging facade used
// throughout the reactor core. It adapts github.com/hashicorp/go-hclog
// for the actual emission and github.com/sirupsen/logrus for level
// parsing, so callers never depend on either library directly.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/sirupsen/logrus"
)

// Logger is the facade every package in this repository logs through.
type Logger interface {
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warn(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})
	Named(name string) Logger
	SetDebug(enabled bool)
}

type logg struct {
	h hclog.Logger
}

// New returns a Logger named name, writing to w (os.Stderr if w is nil).
// Debug-level output is enabled when debug is true, matching the
// `debug` configuration option of spec.md §6.
func New(name string, debug bool, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl := hclog.Info
	if debug {
		lvl = hclog.Debug
	}

	return &logg{h: hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  lvl,
		Output: w,
	})}
}

func (l *logg) Debug(msg string, kv ...interface{}) { l.h.Debug(msg, kv...) }
func (l *logg) Info(msg string, kv ...interface{})  { l.h.Info(msg, kv...) }
func (l *logg) Warn(msg string, kv ...interface{})  { l.h.Warn(msg, kv...) }
func (l *logg) Error(msg string, kv ...interface{}) { l.h.Error(msg, kv...) }

func (l *logg) Named(name string) Logger {
	return &logg{h: l.h.Named(name)}
}

func (l *logg) SetDebug(enabled bool) {
	if enabled {
		l.h.SetLevel(hclog.Debug)
	} else {
		l.h.SetLevel(hclog.Info)
	}
}

// ParseLevel maps a level name (as accepted on the CLI or in config
// files) to an hclog level, using logrus' parser for the name table so
// "warn"/"warning", "err"/"error" and so on are all accepted.
func ParseLevel(name string) hclog.Level {
	lv, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		return hclog.Info
	}

	switch lv {
	case logrus.PanicLevel, logrus.FatalLevel:
		return hclog.Error
	case logrus.ErrorLevel:
		return hclog.Error
	case logrus.WarnLevel:
		return hclog.Warn
	case logrus.InfoLevel:
		return hclog.Info
	case logrus.DebugLevel, logrus.TraceLevel:
		return hclog.Debug
	default:
		return hclog.Info
	}
}
