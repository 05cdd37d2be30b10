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

import (
	"testing"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
)

func TestFilterSpecialHandledRemovesOnlyHandledSignals(t *testing.T) {
	const signo = sig.SIGRTMIN + 4
	if err := AddSpecialSignalHandlerFn(signo, SigchainAction{
		Fn: func(sig.Num, *SigInfo, UContext) bool { return true },
	}); err != nil {
		t.Fatalf("AddSpecialSignalHandlerFn: %v", err)
	}

	in := sig.MakeSet(signo, sig.SIGTERM)
	out := filterSpecialHandled(in)

	if out.Contains(signo) {
		t.Errorf("filterSpecialHandled should drop a signal with a registered special handler")
	}
	if !out.Contains(sig.SIGTERM) {
		t.Errorf("filterSpecialHandled should leave an unrelated signal untouched")
	}
}

func TestSigprocmaskDropsSpeciallyHandledSignal(t *testing.T) {
	const signo = sig.SIGRTMIN + 5
	if err := AddSpecialSignalHandlerFn(signo, SigchainAction{
		Fn: func(sig.Num, *SigInfo, UContext) bool { return true },
	}); err != nil {
		t.Fatalf("AddSpecialSignalHandlerFn: %v", err)
	}

	block := sig.SetOf(signo)
	var old sig.Set
	if err := SigprocmaskWide(sig.SIG_BLOCK, &block, &old); err != nil {
		t.Fatalf("SigprocmaskWide: %v", err)
	}

	var current sig.Set
	if err := SigprocmaskWide(sig.SIG_BLOCK, nil, &current); err != nil {
		t.Fatalf("SigprocmaskWide (query): %v", err)
	}
	if current.Contains(signo) {
		t.Errorf("the kernel-visible mask should not include a signal with a special handler")
	}
}

func TestEnsureFrontOfChainClaimsIfNeeded(t *testing.T) {
	const signo = sig.SIGRTMIN + 6
	if Claimed(signo) {
		t.Skip("signal already claimed by an earlier test in this process")
	}
	if err := EnsureFrontOfChain(signo); err != nil {
		t.Fatalf("EnsureFrontOfChain: %v", err)
	}
	if !Claimed(signo) {
		t.Fatalf("EnsureFrontOfChain should claim an unclaimed signal")
	}
	// Calling it again once we are already the front of the chain must be
	// a no-op, not a re-claim.
	if err := EnsureFrontOfChain(signo); err != nil {
		t.Fatalf("second EnsureFrontOfChain: %v", err)
	}
}

func TestSignalWrapperReportsPreviousHandler(t *testing.T) {
	const signo = sig.SIGRTMIN + 7
	first := Signal(signo, sig.SIG_IGN)
	_ = first // whatever the kernel's prior disposition was; not asserted on
	second := Signal(signo, sig.SIG_DFL)
	if second != sig.SIG_IGN {
		t.Errorf("Signal should report the previously installed handler: got %#x, want SIG_IGN", second)
	}
}
