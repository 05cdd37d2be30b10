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
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
	"github.com/Katya-Incorporated/platform-art/pkg/atomicbitops"
	"github.com/Katya-Incorporated/platform-art/pkg/log"
	"github.com/Katya-Incorporated/platform-art/pkg/sigchain/resolver"
	"github.com/Katya-Incorporated/platform-art/pkg/sigchain/tlsbits"
	"github.com/Katya-Incorporated/platform-art/pkg/unwind"
)

// skipAll is the global bypass SkipAddSignalHandler toggles. While it is
// set, every interposed sigaction/sigprocmask call below returns success
// immediately without touching this library's state or the kernel's.
var skipAll atomicbitops.Bool

// SkipAddSignalHandler sets or clears the global bypass: while value is
// true, Sigaction, SigactionWide, Sigprocmask, and SigprocmaskWide all
// become no-ops that report success. It exists for test code and
// embedding runtimes that need to install a signal handler straight
// through to the kernel, with this library entirely out of the way,
// rather than chained behind its dispatcher.
func SkipAddSignalHandler(value bool) {
	skipAll.Store(value)
}

func isSkipped() bool {
	return skipAll.Load()
}

// segvDflWarning guards the SIGSEGV-to-SIG_DFL diagnostic below against a
// caller that calls Sigaction in a loop: unlike the dispatcher's own
// diagnostics, Sigaction runs on an ordinary thread with the Go runtime
// fully available, so golang.org/x/time/rate's internal mutex is safe to
// take here.
var segvDflWarning = log.RateLimited(log.Default, 1, 4)

// narrowSignalMask covers signal numbers 1-32: the width of the legacy
// sigset_t the narrow Sigaction entry point emulates, as opposed to the
// full 64-bit mask SigactionWide exposes.
const narrowSignalMask sig.Set = 1<<32 - 1

// Sigaction is a drop-in replacement for the legacy, narrow-sigset_t
// sigaction(2): like SigactionWide, but both the mask it installs and the
// mask it reports back in oldAct are truncated to the low 32 signal
// numbers, matching struct sigaction's original width before Linux grew
// real-time signals.
//
// The first call for a given signo transparently claims it.
func Sigaction(signo sig.Num, act, oldAct *SigActionRecord) error {
	var narrowAct *SigActionRecord
	if act != nil {
		masked := *act
		masked.Mask &= narrowSignalMask
		narrowAct = &masked
	}
	if err := sigaction(signo, narrowAct, oldAct); err != nil {
		return err
	}
	if oldAct != nil {
		oldAct.Mask &= narrowSignalMask
	}
	return nil
}

// SigactionWide is Sigaction using the full 64-bit mask width, the
// interposed entry point for rt_sigaction(2).
func SigactionWide(signo sig.Num, act, oldAct *SigActionRecord) error {
	return sigaction(signo, act, oldAct)
}

func sigaction(signo sig.Num, act, oldAct *SigActionRecord) error {
	if isSkipped() {
		return nil
	}
	if !signo.IsValid() {
		return fmt.Errorf("sigchain: invalid signal number %d", signo)
	}
	if act != nil && signo == sig.SIGSEGV && !act.isSigInfo() && act.Handler == sig.SIG_DFL {
		segvDflWarning.Warningf("sigchain: application is reverting SIGSEGV to default disposition")
		unwind.PrintStack(unwind.StderrWriter, 1)
	}
	if err := Claim(signo); err != nil {
		return err
	}
	record := recordFor(signo)
	record.mu.Lock()
	defer record.mu.Unlock()
	if oldAct != nil {
		*oldAct = record.action
	}
	if act != nil {
		supported := record.kernelSupportedFlags.Load()
		masked := *act
		masked.Flags &= supported | uint64(sig.SA_SIGINFO|sig.SA_RESTART|sig.SA_ONSTACK|sig.SA_NODEFER|sig.SA_RESETHAND)
		record.action = masked
	}
	return nil
}

// Signal is the one-argument signal(2)/bsd_signal(3) wrapper: install
// handler (SIG_DFL, SIG_IGN, or a one-argument handler address) for signo
// with SA_RESTART set and an empty blocked-signal mask, and return the
// previously installed one-argument handler.
func Signal(signo sig.Num, handler uintptr) uintptr {
	var old SigActionRecord
	act := SigActionRecord{Handler: handler, Flags: uint64(sig.SA_RESTART)}
	if err := Sigaction(signo, &act, &old); err != nil {
		return sig.SIG_DFL
	}
	if old.isSigInfo() {
		// A three-argument handler was installed; signal(2) has no way to
		// represent that as a return value, so report SIG_DFL like glibc
		// does in the equivalent case.
		return sig.SIG_DFL
	}
	return old.Handler
}

// Sigprocmask is a drop-in replacement for sigprocmask(2)/pthread_sigmask
// with one deliberate deviation: it silently drops, from a SIG_BLOCK or
// SIG_SETMASK request, any signal that currently has a special handler
// registered. An application blocking (say) the signal the runtime uses
// for implicit null-check traps would otherwise be able to defeat that
// mechanism outright; upstream sigaction(2)-interposing chains make the
// same call. Requests issued from inside the dispatcher itself (any
// handling bit already set on the calling thread) are never filtered, since the dispatcher's
// own mask manipulation must be exact.
func Sigprocmask(how int, set, oldSet *sig.Set) error {
	return sigprocmask(how, set, oldSet, resolver.Sigprocmask)
}

// SigprocmaskWide is Sigprocmask using the 64-bit mask width.
func SigprocmaskWide(how int, set, oldSet *sig.Set) error {
	return sigprocmask(how, set, oldSet, resolver.SigprocmaskWide)
}

func sigprocmask(how int, set, oldSet *sig.Set, syscall func(int, *uint64, *uint64) unix.Errno) error {
	if isSkipped() {
		return nil
	}
	var newRaw, oldRaw uint64
	var newPtr, oldPtr *uint64
	if set != nil {
		filtered := *set
		if (how == sig.SIG_BLOCK || how == sig.SIG_SETMASK) && !tlsbits.GetAny(tlsbits.CurrentTID()) {
			filtered = filterSpecialHandled(filtered)
		}
		newRaw = uint64(filtered)
		newPtr = &newRaw
	}
	if oldSet != nil {
		oldPtr = &oldRaw
	}
	if errno := syscall(how, newPtr, oldPtr); errno != 0 {
		return fmt.Errorf("sigchain: sigprocmask: %w", errno)
	}
	if oldSet != nil {
		*oldSet = sig.Set(oldRaw)
	}
	return nil
}

// filterSpecialHandled clears every bit in set belonging to a signal that
// currently has at least one special handler registered.
func filterSpecialHandled(set sig.Set) sig.Set {
	sig.ForEach(set, func(s sig.Num) {
		if recordFor(s).numHandlers > 0 {
			set = set.Remove(s)
		}
	})
	return set
}

// AddSpecialSignalHandlerFn registers action as a special handler for
// signo, ahead of whatever chained user action is installed. It claims
// signo if this is the first handler registered for it. Registering more
// than maxSpecialHandlers handlers for the same signal is fatal: the
// dispatcher walks a fixed-capacity array with no allocation, so the limit
// is structural, not a tunable default.
func AddSpecialSignalHandlerFn(signo sig.Num, action SigchainAction) error {
	if !signo.IsValid() {
		return fmt.Errorf("sigchain: invalid signal number %d", signo)
	}
	if err := Claim(signo); err != nil {
		return err
	}
	record := recordFor(signo)
	record.mu.Lock()
	defer record.mu.Unlock()
	if record.numHandlers >= maxSpecialHandlers {
		log.Fatalf("sigchain: signal %d already has the maximum of %d special handlers", signo, maxSpecialHandlers)
	}
	record.specialHandlers[record.numHandlers] = action
	record.numHandlers++
	return nil
}

// RemoveSpecialSignalHandlerFn removes the special handler for signo whose
// Fn matches fn via shouldRemove, compacting the remaining handlers so
// dispatch order is preserved. Failing to find a matching handler is
// fatal: a caller removing a handler it never registered indicates a bug
// in the caller's own bookkeeping, not a recoverable condition.
func RemoveSpecialSignalHandlerFn(signo sig.Num, shouldRemove func(SignalHandlerFn) bool) error {
	if !signo.IsValid() {
		return fmt.Errorf("sigchain: invalid signal number %d", signo)
	}
	record := recordFor(signo)
	record.mu.Lock()
	defer record.mu.Unlock()
	for i := 0; i < record.numHandlers; i++ {
		if !shouldRemove(record.specialHandlers[i].Fn) {
			continue
		}
		copy(record.specialHandlers[i:record.numHandlers-1], record.specialHandlers[i+1:record.numHandlers])
		record.numHandlers--
		record.specialHandlers[record.numHandlers] = SigchainAction{}
		return nil
	}
	log.Fatalf("sigchain: no matching special handler registered for signal %d", signo)
	return nil
}

// EnsureFrontOfChain verifies that this library's dispatcher is still
// signo's kernel-visible disposition, and if some other component has
// since installed its own handler on top (a library with no knowledge of
// sigchain calling sigaction(2) directly), re-claims the front position
// and folds that component's handler into the chained user action, so it
// is still reached — just behind this library's own phases rather than
// in front of them.
func EnsureFrontOfChain(signo sig.Num) error {
	if !signo.IsValid() {
		return fmt.Errorf("sigchain: invalid signal number %d", signo)
	}
	record := recordFor(signo)
	if !record.claimed.Load() {
		return Claim(signo)
	}

	var current resolver.RawSigAction
	if errno := resolver.SigactionWide(int(signo), nil, &current); errno != 0 {
		return fmt.Errorf("sigchain: checking signal %d: %w", signo, errno)
	}
	if current.Handler == addrOfDispatchTrampoline() {
		return nil
	}

	record.mu.Lock()
	defer record.mu.Unlock()
	record.action = SigActionRecord{
		Handler:   current.Handler,
		SigAction: current.Handler,
		Flags:     current.Flags,
		Mask:      sig.Set(current.Mask),
	}
	installed := resolver.RawSigAction{
		Handler: addrOfDispatchTrampoline(),
		Flags:   uint64(claimFlags) & record.kernelSupportedFlags.Load(),
		Mask:    uint64(sig.Full()),
	}
	if errno := resolver.SigactionWide(int(signo), &installed, nil); errno != 0 {
		return fmt.Errorf("sigchain: reclaiming signal %d: %w", signo, errno)
	}
	return nil
}
