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

package bits

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTrailingZeros64(t *testing.T) {
	for i := 0; i <= 64; i++ {
		n := uint64(1) << uint(i)
		if got, want := TrailingZeros64(n), i; got != want {
			t.Errorf("TrailingZeros64(%#x) = %d, want %d", n, got, want)
		}
	}
	for i := 0; i < 64; i++ {
		n := ^uint64(0) >> uint(i)
		if got, want := TrailingZeros64(n), 0; got != want {
			t.Errorf("TrailingZeros64(%#x) = %d, want %d", n, got, want)
		}
	}
}

func TestMostSignificantOne64(t *testing.T) {
	for i := 0; i <= 64; i++ {
		n := uint64(1) << uint(i)
		if got, want := MostSignificantOne64(n), i; got != want {
			t.Errorf("MostSignificantOne64(%#x) = %d, want %d", n, got, want)
		}
	}
	for i := 0; i < 64; i++ {
		n := ^uint64(0) << uint(i)
		if got, want := MostSignificantOne64(n), 63; got != want {
			t.Errorf("MostSignificantOne64(%#x) = %d, want %d", n, got, want)
		}
	}
}

func TestForEachSetBit64(t *testing.T) {
	for _, want := range [][]int{
		{},
		{0},
		{63},
		{0, 1},
		{1, 3, 5},
		{0, 63},
	} {
		n := Mask64(want...)
		got := make([]int, 0)
		ForEachSetBit64(n, func(i int) {
			got = append(got, i)
		})
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("ForEachSetBit64(%#x) mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestIsOn64(t *testing.T) {
	cases := []struct {
		mask, bits uint64
		wantAny    bool
		wantAll    bool
	}{
		{Mask64(0), Mask64(0), true, true},
		{Mask64(0), Mask64(1), false, false},
		{Mask64(0), Mask64(0, 1), true, false},
		{Mask64(1, 63), Mask64(1, 63), true, true},
		{Mask64(1, 63), Mask64(0, 62), false, false},
	}
	for _, c := range cases {
		if got := IsAnyOn64(c.mask, c.bits); got != c.wantAny {
			t.Errorf("IsAnyOn64(%#x, %#x) = %v, want %v", c.mask, c.bits, got, c.wantAny)
		}
		if got := IsOn64(c.mask, c.bits); got != c.wantAll {
			t.Errorf("IsOn64(%#x, %#x) = %v, want %v", c.mask, c.bits, got, c.wantAll)
		}
	}
}
