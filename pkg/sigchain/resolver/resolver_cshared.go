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

package resolver

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

static void *sigchain_dlopen_libc(void) {
	return dlopen("libc.so", RTLD_NOW);
}

static void *sigchain_dlsym_default(const char *name) {
	return dlsym(RTLD_DEFAULT, name);
}

static void *sigchain_dlsym(void *handle, const char *name) {
	if (handle == 0) {
		return 0;
	}
	return dlsym(handle, name);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/Katya-Incorporated/platform-art/pkg/log"
)

// libcSigaction and libcSigprocmask hold the addresses of the real libc
// entry points once resolved in the cshared build. The dispatcher itself
// never needs them — rt_sigaction/rt_sigprocmask issued via
// unix.RawSyscall6 already bypass every PLT-level interposer, cshared
// build or not — but resolving and exposing them here lets a host that
// links this package track what the "real" libc entry points are for its
// own bookkeeping (e.g. glibc-internal pthread cancellation state some
// libc builds tie to sigprocmask specifically), matching the resolution
// step spec.md's algorithm performs regardless of whether this library's
// own dispatch path ends up using the result.
var (
	libcSigaction   uintptr
	libcSigprocmask uintptr
)

// LibcSigaction and LibcSigprocmask expose the resolved addresses for
// such a host. Both are zero until Init has completed.
func LibcSigaction() uintptr   { return libcSigaction }
func LibcSigprocmask() uintptr { return libcSigprocmask }

// resolveSharedLibrary resolves sigaction/sigprocmask from the host's
// libc, falling back to a default-scope lookup, and rejects any result
// that aliases our own exported wrapper or its statically linked
// namesake — either would recurse forever the first time a signal fires.
func resolveSharedLibrary(ourSigaction, ourStaticSigaction uintptr) error {
	handle := C.sigchain_dlopen_libc()

	resolve := func(name string) (uintptr, error) {
		cname := C.CString(name)
		defer C.free(unsafe.Pointer(cname))

		addr := C.sigchain_dlsym(handle, cname)
		if addr == nil {
			addr = C.sigchain_dlsym_default(cname)
		}
		if addr == nil {
			return 0, fmt.Errorf("symbol %q not found in libc or default scope", name)
		}
		resolved := uintptr(addr)
		if resolved == ourSigaction || resolved == ourStaticSigaction {
			return 0, fmt.Errorf("symbol %q resolved to sigchain's own wrapper; would recurse", name)
		}
		return resolved, nil
	}

	sa, err := resolve("sigaction")
	if err != nil {
		return err
	}
	sp, err := resolve("sigprocmask")
	if err != nil {
		return err
	}
	libcSigaction = sa
	libcSigprocmask = sp
	return nil
}

var ownAddrs = struct {
	sigaction       uintptr
	staticSigaction uintptr
	set             bool
}{}

// SetOwnAddresses records the addresses of sigchain's own exported
// sigaction wrapper (and, if statically linked into the same binary as
// libc, the resulting duplicate symbol) so the recursion guard in
// resolveSharedLibrary has something to compare against. It must be
// called before Init in a cshared build.
func SetOwnAddresses(exported, static uintptr) {
	ownAddrs.sigaction = exported
	ownAddrs.staticSigaction = static
	ownAddrs.set = true
}

var once sync.Once

// Init performs the one-time, idempotent resolution of the real
// sigaction/sigprocmask entry points via dlopen/dlsym. See
// SetOwnAddresses.
func Init() {
	once.Do(func() {
		if !ownAddrs.set {
			log.Fatalf("sigchain/resolver: SetOwnAddresses must be called before Init in a cshared build")
		}
		if err := resolveSharedLibrary(ownAddrs.sigaction, ownAddrs.staticSigaction); err != nil {
			log.Fatalf("sigchain/resolver: failed to resolve libc signal entry points: %v", err)
		}
	})
}
