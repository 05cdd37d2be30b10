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

//go:build linux && arm64

package sigchain

import (
	"unsafe"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
)

// kernelUContextArm64 mirrors arch/arm64/include/uapi/asm/ucontext.h's
// struct ucontext, the layout the kernel actually places on the signal
// stack (not glibc's ucontext_t, which adds its own padding ahead of the
// same fields). uc_sigmask sits immediately after uc_stack, before the
// machine context — unlike x86_64, where the kernel's struct ucontext
// places it after uc_mcontext. See context_linux_amd64.go.
type kernelUContextArm64 struct {
	Flags  uint64
	Link   uint64
	Stack  signalStack
	Sigset uint64
	// mcontext_t and the reserved extension records follow; sigchain
	// never reads them directly and forwards the raw pointer unchanged
	// to the chained user action.
}

type signalStack struct {
	SP    uint64
	Flags int32
	_     int32
	Size  uint64
}

func ucontextSigmask(ptr unsafe.Pointer) sig.Set {
	return sig.Set((*kernelUContextArm64)(ptr).Sigset)
}
