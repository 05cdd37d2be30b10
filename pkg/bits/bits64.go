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

// Package bits provides non-atomic bit manipulation helpers shared by the
// ABI and sigchain packages.
package bits

import "math/bits"

// IsOn64 returns true if *all* bits set in 'bits' are set in 'mask'.
func IsOn64(mask, b uint64) bool {
	return mask&b == b
}

// IsAnyOn64 returns true if *any* bit set in 'bits' is set in 'mask'.
func IsAnyOn64(mask, b uint64) bool {
	return mask&b != 0
}

// Mask64 returns a uint64 with all of the given bits set.
func Mask64(is ...int) uint64 {
	ret := uint64(0)
	for _, i := range is {
		ret |= MaskOf64(i)
	}
	return ret
}

// MaskOf64 is like Mask64, but sets only a single bit (more efficiently).
func MaskOf64(i int) uint64 {
	return uint64(1) << uint64(i)
}

// TrailingZeros64 returns the number of trailing zero bits in n.
func TrailingZeros64(n uint64) int {
	return bits.TrailingZeros64(n)
}

// MostSignificantOne64 returns the index of the most significant set bit
// in n. If n is 0, MostSignificantOne64 returns 64.
func MostSignificantOne64(n uint64) int {
	if n == 0 {
		return 64
	}
	return 63 - bits.LeadingZeros64(n)
}

// ForEachSetBit64 invokes f with the index of each set bit in n, in
// ascending order.
func ForEachSetBit64(n uint64, f func(i int)) {
	for n != 0 {
		i := TrailingZeros64(n)
		f(i)
		n &^= MaskOf64(i)
	}
}
