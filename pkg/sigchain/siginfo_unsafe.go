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

import "unsafe"

// rawSiginfo mirrors the common 64-bit Linux siginfo_t prefix: si_signo,
// si_errno, si_code, then (after 4 bytes of padding to restore 8-byte
// alignment) the start of the kernel's sifields union. For every fault
// signal sigchain cares about (ILL, FPE, SEGV, BUS, TRAP), the union's
// first member is the faulting address, so reading it through this
// prefix is architecture-independent on Linux/amd64 and Linux/arm64.
type rawSiginfo struct {
	Signo int32
	Errno int32
	Code  int32
	_     int32
	Addr  uint64
}

// sigInfoFromRaw builds a SigInfo view over the kernel-delivered
// siginfo_t at ptr, without copying or interpreting the rest of the
// union.
func sigInfoFromRaw(ptr unsafe.Pointer) *SigInfo {
	raw := (*rawSiginfo)(ptr)
	return &SigInfo{
		Signo: raw.Signo,
		Code:  raw.Code,
		Addr:  uintptr(raw.Addr),
		raw:   ptr,
	}
}

// stripTagBits clears hardware address-tag bits (e.g. ARM Top-Byte
// Ignore / MTE tag bits) from addr, for platforms where supportsTagBits
// is true.
func stripTagBits(addr uintptr) uintptr {
	if !supportsTagBits() {
		return addr
	}
	return addr &^ (uintptr(0xff) << 56)
}
