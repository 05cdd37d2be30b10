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

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
	"github.com/Katya-Incorporated/platform-art/pkg/sigchain/resolver"
)

// baselineSupportedFlags are the SA_* bits every Linux kernel this library
// targets is known to honor for rt_sigaction(2). SA_EXPOSE_TAGBITS is
// younger (added for ARM MTE) and is probed separately rather than
// assumed.
const baselineSupportedFlags = sig.SA_NOCLDSTOP | sig.SA_NOCLDWAIT | sig.SA_SIGINFO |
	sig.SA_RESTORER | sig.SA_ONSTACK | sig.SA_RESTART | sig.SA_NODEFER | sig.SA_RESETHAND

// claimFlags are the flags sigchain installs its own dispatcher with. It
// always wants SA_SIGINFO (to see siginfo_t/ucontext_t), SA_RESTART (so a
// claimed signal never spuriously interrupts a syscall a handler-free
// process would have had restarted for it), SA_ONSTACK (so a stack
// overflow special handler has room to run), and SA_EXPOSE_TAGBITS (so the
// dispatcher itself always sees untouched tag bits; stripping happens only
// when forwarding to the chained action).
const claimFlags = sig.SA_SIGINFO | sig.SA_RESTART | sig.SA_ONSTACK | sig.SA_EXPOSE_TAGBITS

// Claim installs sigchain's dispatcher as signo's disposition, if it has
// not already been installed, recording whatever disposition was present
// beforehand as both the current and original chained action. It is safe
// to call concurrently and safe to call more than once for the same
// signal.
func Claim(signo sig.Num) error {
	if !signo.IsValid() {
		return fmt.Errorf("sigchain: invalid signal number %d", signo)
	}
	resolver.Init()

	record := recordFor(signo)
	if record.claimed.Load() {
		return nil
	}

	record.mu.Lock()
	defer record.mu.Unlock()
	if record.claimed.Load() {
		return nil
	}

	supported := probeKernelSupportedFlags(signo)
	record.kernelSupportedFlags.Store(supported)

	installed := resolver.RawSigAction{
		Handler:  addrOfDispatchTrampoline(),
		Flags:    uint64(claimFlags) & supported,
		Restorer: 0,
		Mask:     uint64(sig.Full()),
	}
	var prior resolver.RawSigAction
	if errno := resolver.SigactionWide(int(signo), &installed, &prior); errno != 0 {
		return fmt.Errorf("sigchain: claiming signal %d: %w", signo, errno)
	}

	priorRecord := SigActionRecord{
		Handler:   prior.Handler,
		SigAction: prior.Handler,
		Flags:     prior.Flags,
		Mask:      sig.Set(prior.Mask),
	}
	record.action = priorRecord
	record.origAction = priorRecord
	record.claimed.Store(true)
	return nil
}

// probeKernelSupportedFlags determines which optional flag bits the
// running kernel actually honors for signo, by installing a harmless
// probe action with every candidate bit set, reading the disposition
// back, and seeing which bits survived. It leaves signo's disposition
// exactly as it found it.
//
// SA_EXPOSE_TAGBITS is only trusted if the kernel also cleared
// SA_UNSUPPORTED: a kernel new enough to implement the tag-bits flag
// clears SA_UNSUPPORTED to say "I understood this sa_flags word and
// stripped the bits I don't recognize", which is also the signal that its
// read-back of SA_EXPOSE_TAGBITS is meaningful rather than a stale echo
// of whatever was written. An older kernel that has never heard of either
// flag just returns sa_flags unchanged, so SA_UNSUPPORTED comes back set
// and SA_EXPOSE_TAGBITS must not be trusted even though it also reads back
// set.
func probeKernelSupportedFlags(signo sig.Num) uint64 {
	probe := resolver.RawSigAction{
		Handler: sig.SIG_DFL,
		Flags:   uint64(baselineSupportedFlags | sig.SA_EXPOSE_TAGBITS | sig.SA_UNSUPPORTED),
	}
	var observed, original resolver.RawSigAction
	if errno := resolver.SigactionWide(int(signo), &probe, &original); errno != 0 {
		// Can't probe; fall back to the hard-coded baseline and hope for
		// the best. original was never populated so there is nothing to
		// restore.
		return uint64(baselineSupportedFlags)
	}
	resolver.SigactionWide(int(signo), &original, &observed)
	supported := uint64(baselineSupportedFlags)
	unsupportedCleared := observed.Flags&uint64(sig.SA_UNSUPPORTED) == 0
	if unsupportedCleared && observed.Flags&uint64(sig.SA_EXPOSE_TAGBITS) != 0 {
		supported |= uint64(sig.SA_EXPOSE_TAGBITS)
	}
	return supported
}
