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

package sigchain

import (
	"time"
	"unsafe"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
	"github.com/Katya-Incorporated/platform-art/pkg/atomicbitops"
	"github.com/Katya-Incorporated/platform-art/pkg/log"
	"github.com/Katya-Incorporated/platform-art/pkg/sigchain/resolver"
	"github.com/Katya-Incorporated/platform-art/pkg/sigchain/tlsbits"
	"github.com/Katya-Incorporated/platform-art/pkg/unwind"
)

// signalSafeRateGate rate-limits a diagnostic emitted from inside the
// dispatcher itself, using only an atomic word: no mutex, no blocking. The
// obvious choice, pkg/log's RateLimited wrapper, is built on
// golang.org/x/time/rate.Limiter, which takes a sync.Mutex on every Allow
// call — safe from ordinary calling threads such as Sigaction's, but not
// safe here, where the interrupted thread could already be holding that
// very mutex.
type signalSafeRateGate struct {
	nextAllowedNanos atomicbitops.Uint64
}

// allow reports whether the caller may emit now, admitting at most one
// caller per minInterval.
func (g *signalSafeRateGate) allow(minInterval time.Duration) bool {
	now := uint64(time.Now().UnixNano())
	for {
		next := g.nextAllowedNanos.Load()
		if now < next {
			return false
		}
		if g.nextAllowedNanos.CompareAndSwap(next, now+uint64(minInterval)) {
			return true
		}
	}
}

// dispatchReentryGate throttles dispatch's re-entry diagnostic, capped well
// short of what a signal storm could produce. A thread re-entering dispatch
// for a signal it is already handling is normal in a couple of known
// shapes (a special handler, or the platform recovery hook, faulting on
// itself) but is also the only externally
// visible symptom of the handling bit getting corrupted or of a genuinely
// unbounded recursive fault, so it is worth a rate-limited diagnostic
// rather than silence.
var dispatchReentryGate signalSafeRateGate

// appendUint appends v's decimal digits to buf without allocating, for
// building a diagnostic message inside code that must not allocate.
func appendUint(buf []byte, v uint64) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(buf, tmp[i:]...)
}

// writeDiagnostic writes prefix, s's decimal value, and suffix to stderr via
// a single raw write(2), with no formatting allocation: the stack-resident
// buf never escapes, so this is safe to call from inside the dispatcher.
//
//go:nosplit
func writeDiagnostic(prefix string, s sig.Num, suffix string) {
	var stack [160]byte
	buf := stack[:0]
	buf = append(buf, prefix...)
	buf = appendUint(buf, uint64(s))
	buf = append(buf, suffix...)
	unwind.StderrWriter.WriteRaw(buf)
}

// PlatformRecoveryHandler, when non-nil, is tried after the special
// handlers and before the chained user action. It exists for an embedding
// runtime that wants a single, globally-installed recovery hook rather
// than one special handler per signal — the Go realization of bionic's
// weak android_handle_signal symbol. Unlike special handlers it carries no
// mask of its own; the dispatcher calls it with whatever mask is in effect
// at entry.
//
// Like special handlers, it must be safe to call from inside a signal
// handler and must return promptly: true if it fully handled the signal,
// false to keep going down the chain.
var PlatformRecoveryHandler func(signo sig.Num, info *SigInfo, ctx UContext) bool

// dispatchTrampoline is implemented in dispatch_linux_amd64.s /
// dispatch_linux_arm64.s. Its address is installed as the kernel-visible
// SA_SIGINFO handler for every claimed signal; it shuffles the three
// arguments the kernel passes in machine registers into a call to
// dispatch using the regular Go calling convention, then returns to
// whatever the kernel resumes after the handler — trampoline and callee
// never touch the Go scheduler, matching gvisor's bluepill/safecopy
// pattern for receiving raw signal deliveries outside runtime-owned
// signal handling.
func dispatchTrampoline()

// addrOfDispatchTrampoline returns dispatchTrampoline's entry address, for
// installing as a struct sigaction handler pointer. Go forbids taking a
// function value's code address directly; this mirrors gvisor's
// addrOfSignalHandler, a matching bodyless declaration backed by a
// three-instruction assembly body that just materializes the symbol's
// address into the return slot.
func addrOfDispatchTrampoline() uintptr

// dispatch is the entry point the assembly trampoline calls for every
// delivery of a claimed signal. It must remain async-signal-safe: no
// allocation, no blocking, no calls back into anything that might take a
// lock the interrupted thread already held.
//
//go:nosplit
func dispatch(signo int32, infoPtr, ucontextPtr unsafe.Pointer) {
	s := sig.Num(signo)
	record := recordFor(s)
	info := sigInfoFromRaw(infoPtr)
	ctx := UContext{ptr: ucontextPtr}
	tid := tlsbits.CurrentTID()

	// A signal claimed by sigchain but re-delivered to this same thread
	// while one of its special handlers or the platform recovery hook is
	// running (e.g. that handler's own fault) skips straight to the
	// chained user action. The handling bit is clear again while the
	// chained user action runs, so a re-delivery from there goes through
	// every phase as usual. Special
	// handlers and the platform recovery hook are not re-entrant by
	// design, and re-running them risks exactly the unbounded recursion
	// the handling bit exists to prevent.
	alreadyHandling := tlsbits.Get(tid, s)
	if alreadyHandling && dispatchReentryGate.allow(250*time.Millisecond) {
		writeDiagnostic("sigchain: signal ", s, " re-entered dispatch while already handling\n")
	}

	if !alreadyHandling {
		if dispatchSpecialHandlers(record, s, info, ctx, tid) {
			return
		}
		if PlatformRecoveryHandler != nil {
			restore := tlsbits.ScopedHandlingSignal(tid, s, true)
			handled := PlatformRecoveryHandler(s, info, ctx)
			restore()
			if handled {
				return
			}
		}
	}

	dispatchChainedAction(record, s, info, ctx)
}

// dispatchSpecialHandlers runs every special handler registered for s, in
// registration order, short-circuiting on the first one that reports it
// fully handled the signal. It returns true iff one did.
//
//go:nosplit
func dispatchSpecialHandlers(record *ChainRecord, s sig.Num, info *SigInfo, ctx UContext, tid int32) bool {
	n := record.numHandlers
	for i := 0; i < n; i++ {
		h := record.specialHandlers[i]
		setBit := h.Flags&AllowNoreturn == 0

		effective := uint64(h.Mask)
		var restoreMask uint64
		resolver.SigprocmaskWide(sig.SIG_SETMASK, &effective, &restoreMask)

		restore := tlsbits.ScopedHandlingSignal(tid, s, setBit)
		handled := h.Fn(s, info, ctx)
		restore()

		resolver.SigprocmaskWide(sig.SIG_SETMASK, &restoreMask, nil)
		if handled {
			return true
		}
	}
	return false
}

// dispatchChainedAction forwards the signal to whatever disposition the
// application last installed (or the original disposition present at
// claim time, if the application never replaced it).
//
//go:nosplit
func dispatchChainedAction(record *ChainRecord, s sig.Num, info *SigInfo, ctx UContext) {
	action := record.action

	if !action.isSigInfo() {
		switch action.Handler {
		case sig.SIG_IGN:
			return
		case sig.SIG_DFL:
			dispatchDefault(s, info, ctx)
			return
		}
	}

	effectiveMask := uint64(ctx.Sigmask()) | uint64(action.Mask)
	if action.Flags&sig.SA_NODEFER == 0 {
		effectiveMask |= uint64(sig.SetOf(s))
	}
	var prevMask uint64
	resolver.SigprocmaskWide(sig.SIG_SETMASK, &effectiveMask, &prevMask)

	if action.isSigInfo() {
		addr := info.Addr
		if action.Flags&sig.SA_EXPOSE_TAGBITS == 0 && sig.IsSyncFault(s, info.Code) {
			addr = stripTagBits(addr)
		}
		callThreeArgHandler(action.SigAction, uintptr(s), patchedSiginfo(info, addr), ctx.Raw())
	} else {
		callOneArgHandler(action.Handler, uintptr(s))
	}

	resolver.SigprocmaskWide(sig.SIG_SETMASK, &prevMask, nil)
}

// dispatchDefault emulates SIG_DFL for a signal the chain has claimed: for
// the signals whose default action is process termination, it writes a raw
// diagnostic line, restores the kernel's own default disposition, and
// re-raises, so the process dies exactly as it would have with no chain
// installed, but leaves a record of why. For the default-ignore signals it
// is a no-op, matching the kernel's own default action. For the job-control
// stop signals it is also a no-op: the thread is not stopped, unlike under
// the kernel's default action.
//
// This is the mainline path when an application never replaced the claimed
// signal's disposition, not a rare corner, so it carries the same
// constraint as the rest of dispatch: no allocation, no runtime frame
// walking. unwind.PrintStack is deliberately not called here — that
// stack-trace-on-exit diagnostic is reserved for paths that have already
// left the signal handler (log.Fatalf's hook, api.go's SIGSEGV-to-SIG_DFL
// warning at Sigaction time), where walking the Go runtime's frame tables
// is actually safe.
//
//go:nosplit
func dispatchDefault(s sig.Num, info *SigInfo, ctx UContext) {
	switch s {
	case sig.SIGCHLD, sig.SIGURG, sig.SIGWINCH, sig.SIGCONT:
		return
	case sig.SIGSTOP, sig.SIGTSTP, sig.SIGTTIN, sig.SIGTTOU:
		return
	}

	writeDiagnostic("sigchain: signal ", s, " reverting to default disposition, process will terminate\n")

	restore := resolver.RawSigAction{Handler: sig.SIG_DFL}
	resolver.SigactionWide(int(s), &restore, nil)
	raiseSelf(s)
}

// patchedSiginfo returns info's raw siginfo_t pointer, first overwriting
// its si_addr field in place with addr if it differs — the minimal mutation
// needed to strip hardware tag bits before forwarding to a handler that
// did not ask to see them, without reconstructing the rest of the union.
//
//go:nosplit
func patchedSiginfo(info *SigInfo, addr uintptr) unsafe.Pointer {
	if addr != info.Addr {
		(*rawSiginfo)(info.raw).Addr = uint64(addr)
	}
	return info.raw
}

// callThreeArgHandler and callOneArgHandler invoke a raw C function
// pointer captured from struct sigaction using the platform's C calling
// convention, implemented alongside dispatchTrampoline in
// dispatch_linux_{amd64,arm64}.s. Go cannot call through an arbitrary
// uintptr as if it were a func value; these are the asm bridges that make
// that safe without cgo.
func callThreeArgHandler(fn uintptr, signo uintptr, info, ctx unsafe.Pointer)
func callOneArgHandler(fn uintptr, signo uintptr)

// CallThreeArgHandler exposes callThreeArgHandler for the cshared build's
// C-ABI export wrappers (cmd/libsigchain), which need to invoke a raw
// function pointer a C caller handed them the same way the dispatcher
// invokes a chained SA_SIGINFO action.
func CallThreeArgHandler(fn, signo uintptr, info, ctx unsafe.Pointer) {
	callThreeArgHandler(fn, signo, info, ctx)
}

// raiseSelf sends s to the calling thread, the same way tgkill(2)-based
// raise(3) does, so re-raising a default-disposition fatal signal from
// inside its own handler terminates the process instead of looping.
//
//go:nosplit
func raiseSelf(s sig.Num) {
	if err := tlsbits.Tgkill(tlsbits.CurrentTID(), int(s)); err != nil {
		log.Fatalf("sigchain: failed to re-raise signal %d after restoring default disposition: %v", s, err)
	}
}
