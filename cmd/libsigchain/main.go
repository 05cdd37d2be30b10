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

//go:build cshared

// Command libsigchain is built with -buildmode=c-shared to produce a
// shared object a managed-language runtime loads into the same address
// space as its own libc, exporting the C-ABI entry points applications
// and the runtime itself call in place of the platform's real
// sigaction/signal/sigprocmask: this binary's whole job is to sit between
// them and the kernel.
package main

/*
#include <signal.h>
#include <stdint.h>

typedef void (*sa_sigaction_t)(int, siginfo_t *, void *);
typedef void (*sa_handler_t)(int);
*/
import "C"

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
	"github.com/Katya-Incorporated/platform-art/pkg/sigchain"
	"github.com/Katya-Incorporated/platform-art/pkg/sigchain/resolver"
)

// registry tracks, per signal, the raw C function pointers registered via
// AddSpecialSignalHandlerFn in the same order sigchain's own
// specialHandlers array holds them, so RemoveSpecialSignalHandlerFn can
// translate "remove the handler at this address" into "remove the handler
// at this position" — sigchain.RemoveSpecialSignalHandlerFn's predicate
// sees only the registered closure, and every closure created below
// shares the same code address regardless of which fn it captured, so
// position is the only reliable way to tell them apart from here.
var (
	registryMu sync.Mutex
	registry   [sig.NSIG][]uintptr
)

func main() {}

func init() {
	// Both arguments are the same address here: this binary links its own
	// exported sigaction directly (no separate static copy), so there is
	// only one address for resolveSharedLibrary's recursion guard to
	// compare dlsym results against.
	ourSigaction := reflect.ValueOf(sigaction).Pointer()
	resolver.SetOwnAddresses(ourSigaction, ourSigaction)
	resolver.Init()
}

// toRecord converts a C struct sigaction into this library's disposition
// record, selecting sa_sigaction or sa_handler by SA_SIGINFO exactly as
// the union in struct sigaction itself does.
func toRecord(act *C.struct_sigaction) sigchain.SigActionRecord {
	flags := uint64(act.sa_flags)
	r := sigchain.SigActionRecord{
		Flags: flags,
		Mask:  sig.Set(*(*uint64)(unsafe.Pointer(&act.sa_mask))),
	}
	if flags&uint64(sig.SA_SIGINFO) != 0 {
		r.SigAction = uintptr(unsafe.Pointer(act.sa_sigaction))
	} else {
		r.Handler = uintptr(unsafe.Pointer(act.sa_handler))
	}
	return r
}

// fromRecord writes r back into a C struct sigaction, the inverse of
// toRecord.
func fromRecord(r sigchain.SigActionRecord, out *C.struct_sigaction) {
	out.sa_flags = C.int(r.Flags)
	*(*uint64)(unsafe.Pointer(&out.sa_mask)) = uint64(r.Mask)
	if r.Flags&uint64(sig.SA_SIGINFO) != 0 {
		out.sa_sigaction = *(*C.sa_sigaction_t)(unsafe.Pointer(&r.SigAction))
	} else {
		out.sa_handler = *(*C.sa_handler_t)(unsafe.Pointer(&r.Handler))
	}
}

//export sigaction
func sigaction(signum C.int, act, oldact *C.struct_sigaction) C.int {
	var newRec, oldRec sigchain.SigActionRecord
	var newPtr, oldPtr *sigchain.SigActionRecord
	if act != nil {
		newRec = toRecord(act)
		newPtr = &newRec
	}
	if oldact != nil {
		oldPtr = &oldRec
	}
	if err := sigchain.SigactionWide(sig.Num(signum), newPtr, oldPtr); err != nil {
		return -1
	}
	if oldact != nil {
		fromRecord(oldRec, oldact)
	}
	return 0
}

//export signal
func signal(signum C.int, handler C.sa_handler_t) C.sa_handler_t {
	old := sigchain.Signal(sig.Num(signum), uintptr(unsafe.Pointer(handler)))
	return *(*C.sa_handler_t)(unsafe.Pointer(&old))
}

//export bsd_signal
func bsd_signal(signum C.int, handler C.sa_handler_t) C.sa_handler_t {
	return signal(signum, handler)
}

//export sigprocmask
func sigprocmask(how C.int, set, oldset *C.sigset_t) C.int {
	var newSet, oldSet sig.Set
	var newPtr, oldPtr *sig.Set
	if set != nil {
		newSet = sig.Set(*(*uint64)(unsafe.Pointer(set)))
		newPtr = &newSet
	}
	if oldset != nil {
		oldPtr = &oldSet
	}
	if err := sigchain.SigprocmaskWide(int(how), newPtr, oldPtr); err != nil {
		return -1
	}
	if oldset != nil {
		*(*uint64)(unsafe.Pointer(oldset)) = uint64(oldSet)
	}
	return 0
}

// AddSpecialSignalHandlerFn registers a platform-supplied recovery
// function ahead of the chained application handler for signum. fn
// receives the same three C arguments the kernel would have delivered.
// fn returns nothing, and the registered special handler always reports
// the signal as handled, so once fn has run neither a later special
// handler nor the chained application handler runs for that delivery.
//
//export AddSpecialSignalHandlerFn
func AddSpecialSignalHandlerFn(signum C.int, fn C.sa_sigaction_t) C.int {
	fnAddr := uintptr(unsafe.Pointer(fn))
	action := sigchain.SigchainAction{
		Fn: func(signo sig.Num, info *sigchain.SigInfo, ctx sigchain.UContext) bool {
			sigchain.CallThreeArgHandler(fnAddr, uintptr(signo), info.Raw(), ctx.Raw())
			return true
		},
	}
	if err := sigchain.AddSpecialSignalHandlerFn(sig.Num(signum), action); err != nil {
		return -1
	}
	registryMu.Lock()
	registry[signum] = append(registry[signum], fnAddr)
	registryMu.Unlock()
	return 0
}

// RemoveSpecialSignalHandlerFn removes the special handler previously
// registered for signum at address fn.
//
//export RemoveSpecialSignalHandlerFn
func RemoveSpecialSignalHandlerFn(signum C.int, fn C.sa_sigaction_t) C.int {
	target := uintptr(unsafe.Pointer(fn))

	registryMu.Lock()
	idx := -1
	for i, a := range registry[signum] {
		if a == target {
			idx = i
			break
		}
	}
	registryMu.Unlock()
	if idx < 0 {
		return -1
	}

	pos := 0
	if err := sigchain.RemoveSpecialSignalHandlerFn(sig.Num(signum), func(sigchain.SignalHandlerFn) bool {
		match := pos == idx
		pos++
		return match
	}); err != nil {
		return -1
	}

	registryMu.Lock()
	registry[signum] = append(registry[signum][:idx], registry[signum][idx+1:]...)
	registryMu.Unlock()
	return 0
}

// EnsureFrontOfChain re-asserts this library's dispatcher as signum's
// kernel-visible disposition if some other component installed its own
// handler on top since the last call.
//
//export EnsureFrontOfChain
func EnsureFrontOfChain(signum C.int) C.int {
	if err := sigchain.EnsureFrontOfChain(sig.Num(signum)); err != nil {
		return -1
	}
	return 0
}

// SkipAddSignalHandler toggles the global bypass described on
// sigchain.SkipAddSignalHandler: nonzero enables it.
//
//export SkipAddSignalHandler
func SkipAddSignalHandler(value C.int) {
	sigchain.SkipAddSignalHandler(value != 0)
}
