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

//go:build linux

package tlsbits

import "golang.org/x/sys/unix"

// CurrentTID returns the calling OS thread's id via a direct
// gettid(2) syscall. It is async-signal-safe and, unlike goroutine
// identity, stable for the entire lifetime of the OS thread that is
// executing a signal handler.
//
//go:nosplit
func CurrentTID() int32 {
	return int32(unix.Gettid())
}

// Tgkill sends signo to thread tid within the calling process via
// tgkill(2), the same primitive raise(3) is built on. It is
// async-signal-safe: no allocation, no libc call, just a syscall.
//
//go:nosplit
func Tgkill(tid int32, signo int) error {
	return unix.Tgkill(unix.Getpid(), int(tid), unix.Signal(signo))
}
