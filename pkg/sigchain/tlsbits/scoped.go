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

package tlsbits

import (
	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
)

// ScopedHandlingSignal is the only construct allowed to temporarily set a
// thread's handling bit. It captures the bit's prior value, optionally
// sets it, and returns a restore function that puts the prior value back.
// The returned function must be called exactly once, typically via defer,
// which is the idiomatic Go realization of the RAII guard spec.md
// describes.
//
// If set is false (the ALLOW_NORETURN case), the bit is left untouched on
// entry — the caller is promising its special handler may not return, so
// there would be nothing to restore, and setting the bit would mean it
// could never be cleared.
//
//go:nosplit
func ScopedHandlingSignal(tid int32, signo sig.Num, set bool) (restore func()) {
	if !set {
		return func() {}
	}
	prev := Set(tid, signo, true)
	return func() {
		Set(tid, signo, prev)
	}
}
