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

// Package unwind provides the minimal stack-printing adapter sigchain uses
// on its diagnostic paths (losing the VM's segfault handler, and every
// log.Fatalf, such as an exhausted special-handler table). It is
// deliberately small: on most of these paths the process is seconds from
// exiting, so the bar is "best effort, does not itself
// crash" rather than strict async-signal-safety. Real signal-chain
// libraries (bionic's libsigchain calling into libunwindstack) make the
// same trade: symbolication is not on the list of operations POSIX
// guarantees are safe from a handler, but every shipping implementation
// does it anyway on the fatal path because there is nothing left to lose.
package unwind

import (
	"fmt"
	"runtime"
)

// Writer is the narrow sink unwind writes through. Implementations used
// from genuinely signal-safe contexts should restrict WriteRaw to a raw
// write(2) syscall and nothing else.
type Writer interface {
	WriteRaw(p []byte)
}

// fdWriter adapts a raw file descriptor number to Writer using the
// unix.Write syscall directly, avoiding the buffering and locking inside
// *os.File.
type fdWriter struct {
	fd int
}

// PrintStack writes a best-effort Go stack trace for the calling
// goroutine to w, skipping the first `skip` frames of this package's own
// call stack.
func PrintStack(w Writer, skip int) {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		w.WriteRaw([]byte("sigchain: stack unavailable\n"))
		return
	}
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		line := fmt.Sprintf("  %s\n      %s:%d\n", frame.Function, frame.File, frame.Line)
		w.WriteRaw([]byte(line))
		if !more {
			break
		}
	}
}

// StderrWriter is a Writer backed by file descriptor 2.
var StderrWriter Writer = fdWriter{fd: 2}
