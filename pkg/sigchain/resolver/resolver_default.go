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

//go:build !cshared

package resolver

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/Katya-Incorporated/platform-art/pkg/log"
)

var once sync.Once

// Init performs the one-time, idempotent resolution of the real
// sigaction/sigprocmask entry points. It is safe to call Init more than
// once and from multiple goroutines; only the first call does any work.
// Failure to resolve a required symbol is unrecoverable: sigchain cannot
// provide any of its guarantees without a way to reach the kernel that
// bypasses its own wrappers, so Init fatals rather than returning an
// error the caller might ignore.
func Init() {
	once.Do(func() {
		if err := probe(); err != nil {
			log.Fatalf("sigchain/resolver: failed to resolve libc signal entry points: %v", err)
		}
	})
}

// probe verifies that the syscalls this package depends on are usable by
// issuing a harmless rt_sigprocmask(SIG_BLOCK, nil, &old) call.
func probe() error {
	var mask uint64
	if _, _, errno := unix.RawSyscall6(unix.SYS_RT_SIGPROCMASK, 0 /* SIG_BLOCK */, 0, uintptr(unsafe.Pointer(&mask)), wideMaskLen, 0, 0); errno != 0 {
		return fmt.Errorf("rt_sigprocmask probe: %w", errno)
	}
	return nil
}
