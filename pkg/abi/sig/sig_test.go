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

package sig

import "testing"

func TestSetAddRemoveContains(t *testing.T) {
	var s Set
	if s.Contains(SIGSEGV) {
		t.Fatalf("empty set should not contain SIGSEGV")
	}
	s = s.Add(SIGSEGV)
	if !s.Contains(SIGSEGV) {
		t.Fatalf("set should contain SIGSEGV after Add")
	}
	if s.Contains(SIGBUS) {
		t.Fatalf("set should not contain SIGBUS")
	}
	s = s.Remove(SIGSEGV)
	if s.Contains(SIGSEGV) {
		t.Fatalf("set should not contain SIGSEGV after Remove")
	}
}

func TestMakeSetAndForEach(t *testing.T) {
	want := map[Num]bool{SIGSEGV: true, SIGBUS: true, SIGILL: true}
	s := MakeSet(SIGSEGV, SIGBUS, SIGILL)

	got := map[Num]bool{}
	ForEach(s, func(n Num) { got[n] = true })

	if len(got) != len(want) {
		t.Fatalf("ForEach produced %d signals, want %d", len(got), len(want))
	}
	for n := range want {
		if !got[n] {
			t.Errorf("ForEach missed signal %d", n)
		}
	}
}

func TestFullContainsEveryValidSignal(t *testing.T) {
	full := Full()
	for n := Num(1); n < NSIG; n++ {
		if !full.Contains(n) {
			t.Errorf("Full() does not contain valid signal %d", n)
		}
	}
}

func TestIsValid(t *testing.T) {
	cases := []struct {
		n    Num
		want bool
	}{
		{0, false},
		{1, true},
		{NSIG - 1, true},
		{NSIG, false},
		{-1, false},
	}
	for _, c := range cases {
		if got := c.n.IsValid(); got != c.want {
			t.Errorf("Num(%d).IsValid() = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestIsSyncFault(t *testing.T) {
	cases := []struct {
		sig    Num
		code   int32
		isSync bool
	}{
		{SIGSEGV, SEGV_MAPERR, true},
		{SIGBUS, SEGV_ACCERR, true},
		{SIGILL, 0, true},
		{SIGFPE, 0, true},
		{SIGTRAP, TRAP_TRACE, true},
		{SIGTRAP, TRAP_BRKPT, true},
		{SIGTRAP, TRAP_HWBKPT, false},
		{SIGCHLD, 0, false},
		{SIGTERM, 0, false},
	}
	for _, c := range cases {
		if got := IsSyncFault(c.sig, c.code); got != c.isSync {
			t.Errorf("IsSyncFault(%d, %d) = %v, want %v", c.sig, c.code, got, c.isSync)
		}
	}
}

func TestIndexRoundTrip(t *testing.T) {
	for n := Num(1); n < NSIG; n++ {
		if got := SetOf(n); !got.Contains(n) {
			t.Errorf("SetOf(%d) does not contain %d", n, n)
		}
	}
}
