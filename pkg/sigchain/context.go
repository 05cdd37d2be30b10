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
	"unsafe"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
)

// SigInfo is the subset of siginfo_t the dispatcher and special handlers
// need. It is filled in from the raw siginfo_t the kernel delivers; see
// siginfo_unsafe.go.
type SigInfo struct {
	Signo int32
	Code  int32
	// Addr is the faulting address for synchronous fault signals
	// (ILL, FPE, SEGV, BUS, TRAP). This field always holds the untouched
	// value; before forwarding to a SA_SIGINFO action that did not request
	// SA_EXPOSE_TAGBITS, the dispatcher strips hardware address-tag bits
	// from the raw siginfo_t's si_addr instead (see patchedSiginfo in
	// dispatcher.go), so special handlers always see the untouched value.
	Addr uintptr

	// raw points at the original siginfo_t, preserved so the dispatcher
	// can pass it through to the chained user action unmodified (modulo
	// tag stripping) without having to reconstruct kernel-specific
	// fields this type does not model.
	raw unsafe.Pointer
}

// UContext is an opaque handle to the ucontext_t the kernel delivered.
// The dispatcher only needs to read its saved signal mask (Sigmask) and
// pass the pointer through unmodified to the chained user action; it
// never otherwise interprets machine context, which is
// architecture-specific and exposed only for register-level introspection
// the chain itself has no need of.
type UContext struct {
	ptr unsafe.Pointer
}

// Sigmask returns the signal mask ucontext_t.uc_sigmask saved when the
// signal was delivered.
func (c UContext) Sigmask() sig.Set {
	if c.ptr == nil {
		return 0
	}
	return ucontextSigmask(c.ptr)
}

// Raw returns the opaque ucontext_t pointer, for forwarding to a chained
// three-argument user action.
func (c UContext) Raw() unsafe.Pointer { return c.ptr }

// Raw returns the opaque siginfo_t pointer, for forwarding to a chained
// three-argument user action.
func (i *SigInfo) Raw() unsafe.Pointer { return i.raw }
