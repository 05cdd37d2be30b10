// Copyright 2026 The Sigchain Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides the diagnostic logging used throughout sigchain.
// The dispatcher's two non-fatal diagnostics (its re-entry warning and its
// SIG_DFL-reversion notice) bypass this package entirely in favor of a raw
// write(2) and a lock-free rate gate, since RateLimited and the loggers it
// wraps both take locks that a dispatcher-interrupted thread might already
// hold. The dispatcher only ever reaches this package through Fatalf on
// its fatal-error paths (a failed re-raise, an exhausted handling-flag
// table), where the process is about to exit.
package log

import (
	"fmt"
	"os"
	"time"
)

// Logger is the interface through which sigchain emits diagnostics.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warningf(format string, v ...any)
	Fatalf(format string, v ...any)
}

// basicLogger writes formatted, timestamped lines to an *os.File.
type basicLogger struct {
	w *os.File
}

func (l *basicLogger) emit(level byte, format string, v ...any) {
	var b buffer
	b.start()
	b.writeHeader(level)
	b.writeAll([]byte(fmt.Sprintf(format, v...)))
	if len(b.data) == 0 || b.data[len(b.data)-1] != '\n' {
		b.write('\n')
	}
	l.w.Write(b.data)
}

func (l *basicLogger) Debugf(format string, v ...any)   { l.emit('D', format, v...) }
func (l *basicLogger) Infof(format string, v ...any)    { l.emit('I', format, v...) }
func (l *basicLogger) Warningf(format string, v ...any) { l.emit('W', format, v...) }
func (l *basicLogger) Fatalf(format string, v ...any) {
	l.emit('F', format, v...)
	fatalHook()
	os.Exit(2)
}

// fatalHook is invoked by Fatalf just before the process exits, so that
// callers with a best-effort stack printer (pkg/unwind) can dump a
// trace. Overridden by sigchain's init to wire in pkg/unwind without
// creating an import cycle.
var fatalHook = func() {}

// SetFatalHook installs f to run immediately before Fatalf terminates the
// process.
func SetFatalHook(f func()) { fatalHook = f }

// buffer is a small inline formatter to keep the common logging path
// allocation-light, mirroring the style of sigchain's other ambient
// infrastructure: most call sites are not hot, but Warningf is reachable
// from Sigaction, which an application may call in a tight loop.
type buffer struct {
	local [256]byte
	data  []byte
}

func (b *buffer) start() { b.data = b.local[:0] }
func (b *buffer) write(c byte) { b.data = append(b.data, c) }
func (b *buffer) writeAll(d []byte) { b.data = append(b.data, d...) }

func (b *buffer) writeHeader(level byte) {
	now := time.Now()
	b.write(level)
	b.write(' ')
	b.writeAll([]byte(now.Format("0102 15:04:05.000000")))
	b.write(' ')
}

// Default is the package-wide logger used by the package-level
// convenience functions below.
var Default Logger = &basicLogger{w: os.Stderr}

// BasicLoggerTo returns a Logger that writes timestamped lines to w.
func BasicLoggerTo(w *os.File) Logger { return &basicLogger{w: w} }

// RateLimited wraps inner so that all Debugf/Infof/Warningf messages logged
// through the returned Logger share one limit of eventsPerSecond events per
// second, bursting up to burst; Fatalf is never limited. Used on sigchain's
// non-handler diagnostic paths, such as Sigaction's SIGSEGV-to-SIG_DFL
// warning, where a caller in a tight loop could otherwise flood stderr;
// not used on any path reachable from inside a signal handler, where
// taking a lock is not safe — see this package's doc comment.
func RateLimited(inner Logger, eventsPerSecond float64, burst int) Logger {
	return &rateLimited{inner: inner, lim: newLimiter(eventsPerSecond, burst)}
}

func Debugf(format string, v ...any)   { Default.Debugf(format, v...) }
func Infof(format string, v ...any)    { Default.Infof(format, v...) }
func Warningf(format string, v ...any) { Default.Warningf(format, v...) }
func Fatalf(format string, v ...any)   { Default.Fatalf(format, v...) }
