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

//go:build linux && amd64

package sigchain

import (
	"unsafe"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
)

// kernelUContextAmd64 mirrors arch/x86/include/uapi/asm/ucontext.h's
// struct ucontext: on x86_64, unlike arm64, uc_sigmask comes after
// uc_mcontext rather than before it. sigContextAmd64 reproduces just
// enough of struct sigcontext's known fixed-size prefix (fpstate pointer
// down to oldmask/cr2) to compute that offset; sigchain never interprets
// the general-purpose register fields themselves.
type kernelUContextAmd64 struct {
	Flags    uint64
	Link     uint64
	Stack    signalStack
	MContext sigContextAmd64
	Sigset   uint64
}

type signalStack struct {
	SP    uint64
	Flags int32
	_     int32
	Size  uint64
}

// sigContextAmd64 mirrors struct sigcontext from
// arch/x86/include/uapi/asm/sigcontext.h: 19 general-purpose/segment
// register words, an error code, trap number, old signal mask, a faulting
// address, an fpstate pointer, and reserved padding, in that order.
type sigContextAmd64 struct {
	_        [19]uint64 // r8..r15, rdi, rsi, rbp, rbx, rdx, rax, rcx, rsp, rip, eflags, cs/gs/fs/__pad0 (packed)
	ErrCode  uint64
	TrapNo   uint64
	OldMask  uint64
	CR2      uint64
	FPState  uint64
	Reserved [8]uint64
}

func ucontextSigmask(ptr unsafe.Pointer) sig.Set {
	return sig.Set((*kernelUContextAmd64)(ptr).Sigset)
}
