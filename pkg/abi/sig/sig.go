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

// Package sig defines the POSIX/Linux signal ABI constants and set
// manipulation helpers shared by the sigchain packages. It mirrors the
// subset of golang.org/x/sys/unix that the dispatcher needs while adding
// the signal-index arithmetic used to build handling-flag bitmaps.
package sig

import "github.com/Katya-Incorporated/platform-art/pkg/bits"

// NSIG is one past the highest valid signal number. Index 0 of any
// signal-indexed array is reserved and unused.
const NSIG = 65

// FirstStdSignal and LastStdSignal bound the standard (non-realtime) range.
const (
	FirstStdSignal = 1
	LastStdSignal  = 31
	FirstRTSignal  = 32
	LastRTSignal   = 64
)

// Num is a signal number in [1, NSIG).
type Num int

// IsValid reports whether s is in (0, NSIG). 0 is never valid.
func (s Num) IsValid() bool {
	return s > 0 && s < NSIG
}

// Index returns the zero-based index of s for use against signal-indexed
// arrays and sets.
//
// Preconditions: s.IsValid().
func (s Num) Index() int {
	return int(s - 1)
}

// Standard signal numbers, matching uapi asm-generic/signal.h.
const (
	SIGHUP    Num = 1
	SIGINT    Num = 2
	SIGQUIT   Num = 3
	SIGILL    Num = 4
	SIGTRAP   Num = 5
	SIGABRT   Num = 6
	SIGIOT    Num = 6
	SIGBUS    Num = 7
	SIGFPE    Num = 8
	SIGKILL   Num = 9
	SIGUSR1   Num = 10
	SIGSEGV   Num = 11
	SIGUSR2   Num = 12
	SIGPIPE   Num = 13
	SIGALRM   Num = 14
	SIGTERM   Num = 15
	SIGSTKFLT Num = 16
	SIGCHLD   Num = 17
	SIGCONT   Num = 18
	SIGSTOP   Num = 19
	SIGTSTP   Num = 20
	SIGTTIN   Num = 21
	SIGTTOU   Num = 22
	SIGURG    Num = 23
	SIGXCPU   Num = 24
	SIGXFSZ   Num = 25
	SIGVTALRM Num = 26
	SIGPROF   Num = 27
	SIGWINCH  Num = 28
	SIGIO     Num = 29
	SIGPOLL   Num = 29
	SIGPWR    Num = 30
	SIGSYS    Num = 31
	SIGUNUSED Num = 31

	// SIGRTMIN is the first real-time signal number. Linux reserves a
	// handful below it for glibc's internal use (pthread cancellation,
	// NPTL), but sigaction(2) itself accepts the full range starting here.
	SIGRTMIN Num = FirstRTSignal
)

// Set is a 64-bit signal mask, one bit per signal number (bit i represents
// signal i+1). It is the full 64-bit sigset_t representation that the
// wide (rt_sigaction/rt_sigprocmask) entry points use.
type Set uint64

// SetSize is the size in bytes of a Set, as passed to rt_sigaction
// and rt_sigprocmask.
const SetSize = 8

// MakeSet returns a Set with the bit for each of sigs set.
func MakeSet(sigs ...Num) Set {
	indices := make([]int, len(sigs))
	for i, s := range sigs {
		indices[i] = s.Index()
	}
	return Set(bits.Mask64(indices...))
}

// SetOf returns a Set with only sig's bit set.
func SetOf(sig Num) Set {
	return Set(bits.MaskOf64(sig.Index()))
}

// Full returns a Set with every valid signal bit set.
func Full() Set {
	var s Set
	for i := 0; i < NSIG-1; i++ {
		s |= Set(bits.MaskOf64(i))
	}
	return s
}

// Contains reports whether sig's bit is set in s.
func (s Set) Contains(sig Num) bool {
	return bits.IsOn64(uint64(s), uint64(bits.MaskOf64(sig.Index())))
}

// Add returns s with sig's bit set.
func (s Set) Add(sig Num) Set {
	return s | SetOf(sig)
}

// Remove returns s with sig's bit cleared.
func (s Set) Remove(sig Num) Set {
	return s &^ SetOf(sig)
}

// ForEach invokes f for every signal set in mask, in ascending order.
func ForEach(mask Set, f func(sig Num)) {
	bits.ForEachSetBit64(uint64(mask), func(i int) {
		f(Num(i + 1))
	})
}

// 'how' values for rt_sigprocmask(2).
const (
	SIG_BLOCK   = 0
	SIG_UNBLOCK = 1
	SIG_SETMASK = 2
)

// Special one-argument handler values for rt_sigaction(2).
const (
	SIG_DFL = 0
	SIG_IGN = 1
)

// Signal action flags for rt_sigaction(2), from uapi/asm-generic/signal.h.
const (
	SA_NOCLDSTOP      = 0x00000001
	SA_NOCLDWAIT      = 0x00000002
	SA_SIGINFO        = 0x00000004
	SA_UNSUPPORTED    = 0x00000400
	SA_EXPOSE_TAGBITS = 0x00000800
	SA_RESTORER       = 0x04000000
	SA_ONSTACK        = 0x08000000
	SA_RESTART        = 0x10000000
	SA_NODEFER        = 0x40000000
	SA_RESETHAND      = 0x80000000
	SA_NOMASK         = SA_NODEFER
	SA_ONESHOT        = SA_RESETHAND
)

// si_code values classifying the source of a signal, from
// uapi/asm-generic/siginfo.h.
const (
	SI_MASK   = 0xffff0000
	SI_KILL   = 0 << 16
	SI_TIMER  = 1 << 16
	SI_POLL   = 2 << 16
	SI_FAULT  = 3 << 16
	SI_CHLD   = 4 << 16
	SI_RT     = 5 << 16
	SI_MESGQ  = 6 << 16
	SI_SYS    = 7 << 16
	SI_KERNEL = 0x80
)

// SEGV_* si_codes for SIGSEGV, from uapi/asm-generic/siginfo.h.
const (
	SEGV_MAPERR  = 1
	SEGV_ACCERR  = 2
	SEGV_BNDERR  = 3
	SEGV_PKUERR  = 4
	SEGV_MTEAERR = 8 // synchronous ARM MTE tag-check fault
	SEGV_MTESERR = 9 // asynchronous ARM MTE tag-check fault
)

// TRAP_* si_codes for SIGTRAP.
const (
	TRAP_BRKPT  = 1 // process breakpoint (software, e.g. int3)
	TRAP_TRACE  = 2
	TRAP_BRANCH = 3
	TRAP_HWBKPT = 4 // hardware breakpoint/watchpoint
)

// IsSyncFault reports whether sig is one of the synchronous fault signals
// the dispatcher must consider for hardware address-tag stripping:
// ILL, FPE, SEGV, BUS, TRAP (excluding hardware breakpoints, which carry
// their tag bits intentionally for the debugger).
func IsSyncFault(sig Num, siCode int32) bool {
	switch sig {
	case SIGILL, SIGFPE, SIGSEGV, SIGBUS:
		return true
	case SIGTRAP:
		return siCode != TRAP_HWBKPT
	default:
		return false
	}
}
