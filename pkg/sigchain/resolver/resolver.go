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

// Package resolver locates the real, non-interposed sigaction and
// sigprocmask entry points so the rest of sigchain can call through to the
// kernel without recursing back into its own wrappers.
//
// On Linux, issuing rt_sigaction(2)/rt_sigprocmask(2) via
// golang.org/x/sys/unix.RawSyscall6 always reaches the kernel directly:
// there is no PLT indirection within a pure Go binary for anything to
// interpose on, so these raw syscalls are "the real libc" for every build
// of this package. What differs between builds is Init, which decides
// whether any *additional* resolution is needed before the raw syscalls
// may safely be trusted not to recurse — see resolver_cshared.go for the
// case where sigchain is linked into a C/C++ host that already has its
// own libc and may have its own interposers ahead of us.
package resolver

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// RawSigAction mirrors struct sigaction's layout as the rt_sigaction(2)
// ABI expects it: handler pointer, flags, restorer pointer, mask. It is
// the wide (64-bit mask word) representation; signals 1..64 fit in that
// one word, so it already covers every signal on Linux, but platforms whose sigset_t is
// historically 32 bits (spec.md's "two widths") truncate to a 32-bit mask
// by passing a shorter maskLen to the syscall. See Sigaction vs.
// SigactionWide.
type RawSigAction struct {
	Handler  uintptr
	Flags    uint64
	Restorer uintptr
	Mask     uint64
}

const (
	narrowMaskLen = 4
	wideMaskLen   = 8
)

// Sigaction issues the real rt_sigaction(2) syscall with a 32-bit mask
// width, bypassing any interposed sigaction. new and old may be nil.
func Sigaction(signo int, new, old *RawSigAction) unix.Errno {
	return rawSigaction(signo, new, old, narrowMaskLen)
}

// SigactionWide is like Sigaction but uses the full 64-bit mask width,
// corresponding to a platform's extended (e.g. sigaction64) entry point.
func SigactionWide(signo int, new, old *RawSigAction) unix.Errno {
	return rawSigaction(signo, new, old, wideMaskLen)
}

func rawSigaction(signo int, new, old *RawSigAction, maskLen uintptr) unix.Errno {
	var newPtr, oldPtr uintptr
	if new != nil {
		newPtr = uintptr(unsafe.Pointer(new))
	}
	if old != nil {
		oldPtr = uintptr(unsafe.Pointer(old))
	}
	_, _, errno := unix.RawSyscall6(unix.SYS_RT_SIGACTION, uintptr(signo), newPtr, oldPtr, maskLen, 0, 0)
	return errno
}

// Sigprocmask issues the real rt_sigprocmask(2) syscall with a 32-bit
// mask width.
func Sigprocmask(how int, new, old *uint64) unix.Errno {
	return rawSigprocmask(how, new, old, narrowMaskLen)
}

// SigprocmaskWide is like Sigprocmask but uses the full 64-bit mask width.
func SigprocmaskWide(how int, new, old *uint64) unix.Errno {
	return rawSigprocmask(how, new, old, wideMaskLen)
}

func rawSigprocmask(how int, new, old *uint64, maskLen uintptr) unix.Errno {
	var newPtr, oldPtr uintptr
	if new != nil {
		newPtr = uintptr(unsafe.Pointer(new))
	}
	if old != nil {
		oldPtr = uintptr(unsafe.Pointer(old))
	}
	_, _, errno := unix.RawSyscall6(unix.SYS_RT_SIGPROCMASK, uintptr(how), newPtr, oldPtr, maskLen, 0, 0)
	return errno
}
