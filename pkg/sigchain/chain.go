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

// Package sigchain lets a privileged runtime (typically embedded via cgo
// into a managed-language VM) claim first-response rights on selected
// POSIX signals while still faithfully forwarding to whatever disposition
// application code has installed. See SPEC_FULL.md for the full design.
package sigchain

import (
	"sync"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
	"github.com/Katya-Incorporated/platform-art/pkg/atomicbitops"
)

// maxSpecialHandlers bounds the number of special handlers a single
// signal's chain may carry. Two is what spec.md's origin actually ships:
// one slot for a stack-overflow probe, one for a null-check trap.
// Exhausting it is fatal (see AddSpecialSignalHandlerFn) rather than
// growing the list, because the list must be walked without allocation
// from inside the dispatcher.
const maxSpecialHandlers = 2

// SignalHandlerFn is a special handler's entry point: it receives the
// same (signo, siginfo, ucontext) triple the kernel would have delivered
// to a SA_SIGINFO handler, and returns true if it fully handled the
// signal (the dispatcher must not continue down the chain).
//
// SignalHandlerFn runs inside the dispatcher, which runs inside the
// kernel-delivered signal handler: only async-signal-safe operations are
// permitted anywhere in its call graph.
type SignalHandlerFn func(signo sig.Num, info *SigInfo, ucontext UContext) bool

// SigchainAction is a runtime-supplied special handler: the function to
// run, the signal mask to apply while it runs, and flags controlling how
// the dispatcher treats it.
type SigchainAction struct {
	Fn    SignalHandlerFn
	Mask  sig.Set
	Flags SigchainActionFlags
}

// SigchainActionFlags are bits of SigchainAction.Flags.
type SigchainActionFlags uint32

const (
	// AllowNoreturn tells the dispatcher that Fn may not return — for
	// example, it longjmps out, or execs, or the fault it handles is one
	// from which there is no resumption. The dispatcher must not set the
	// handling bit for the dynamic extent of such a call, because it
	// would never be cleared.
	AllowNoreturn SigchainActionFlags = 1 << 0
)

// SigActionRecord is an opaque copy of a POSIX signal disposition: a
// one-argument handler, a three-argument (SA_SIGINFO) handler, flags, and
// a mask. At most one of Handler/SigAction is meaningful, selected by
// whether Flags has SA_SIGINFO set — mirroring struct sigaction's
// handler/sigaction union.
type SigActionRecord struct {
	// Handler is the one-argument handler, or SIG_DFL/SIG_IGN.
	Handler uintptr
	// SigAction is the three-argument (SA_SIGINFO) handler. Valid only
	// when Flags&sig.SA_SIGINFO != 0.
	SigAction uintptr
	Flags     uint64
	Mask      sig.Set
}

// isSigInfo reports whether a is dispatched via the 3-argument handler.
func (a SigActionRecord) isSigInfo() bool {
	return a.Flags&sig.SA_SIGINFO != 0
}

// ChainRecord holds the per-signal state the library maintains.
type ChainRecord struct {
	// claimed is true once the runtime has taken over this signal. Claim
	// is idempotent; everything else in this record is meaningless until
	// claimed is true.
	claimed atomicbitops.Bool

	// kernelSupportedFlags is the subset of SA_* flag bits the running
	// kernel accepts for this signal, probed once at claim time. Every
	// user-supplied flag set is masked by this before being stored, so
	// the chain never advertises a flag the kernel would silently drop.
	kernelSupportedFlags atomicbitops.Uint64

	// mu serializes writers (the interposed API, called from arbitrary
	// application threads, never from inside a signal handler). It does
	// NOT guard the dispatcher's reads: those must never block, so the
	// dispatcher reads action/specialHandlers without taking mu,
	// relying on single-word/single-struct-assignment visibility (see
	// SPEC_FULL.md's concurrency section).
	mu sync.Mutex

	// action is the current user disposition: what the dispatcher
	// forwards to once its own phases are done.
	action SigActionRecord

	// origAction is the disposition present just before this signal was
	// first claimed. It is recorded by Claim and not read anywhere else:
	// the dispatcher always forwards to action, including for hardware
	// memory-tagging faults.
	origAction SigActionRecord

	// specialHandlers is a fixed-capacity, ordered list whose first
	// numHandlers entries are in use. Insertion order is dispatch order;
	// removal compacts in place so dispatch order of the remaining entries
	// is preserved.
	specialHandlers [maxSpecialHandlers]SigchainAction
	numHandlers     int
}

// records holds one ChainRecord per valid signal number. Index 0 is
// unused (signal 0 is never valid); records are zero-initialized, which
// is exactly the "not yet claimed" state.
var records [sig.NSIG]ChainRecord

func recordFor(signo sig.Num) *ChainRecord {
	return &records[signo]
}

// Claimed reports whether signo has ever been claimed by the runtime.
func Claimed(signo sig.Num) bool {
	if !signo.IsValid() {
		return false
	}
	return recordFor(signo).claimed.Load()
}
