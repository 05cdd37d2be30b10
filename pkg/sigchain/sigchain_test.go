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
	"fmt"
	"sync"
	"testing"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
	"github.com/Katya-Incorporated/platform-art/pkg/log"
	"github.com/Katya-Incorporated/platform-art/pkg/sigchain/chaintest"
)

// panicLogger is a log.Logger whose Fatalf panics instead of exiting the
// process, so a test can observe sigchain's fatal paths without killing
// the test binary.
type panicLogger struct{}

func (panicLogger) Debugf(string, ...any)  {}
func (panicLogger) Infof(string, ...any)   {}
func (panicLogger) Warningf(string, ...any) {}
func (panicLogger) Fatalf(format string, v ...any) {
	panic(fmt.Sprintf(format, v...))
}

// withPanicLogger swaps log.Default for panicLogger and returns a function
// that restores it.
func withPanicLogger() func() {
	old := log.Default
	log.Default = panicLogger{}
	return func() { log.Default = old }
}

func expectFatal(t *testing.T, msg string) {
	if r := recover(); r == nil {
		t.Fatalf(msg)
	}
}

func TestClaimIsIdempotent(t *testing.T) {
	const signo = sig.SIGUSR1
	if Claimed(signo) {
		t.Skip("signal already claimed by an earlier test in this process")
	}
	if err := Claim(signo); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !Claimed(signo) {
		t.Fatalf("Claimed should report true after Claim succeeds")
	}
	if err := Claim(signo); err != nil {
		t.Fatalf("second Claim call should be a no-op, got: %v", err)
	}
}

func TestClaimRejectsInvalidSignal(t *testing.T) {
	if err := Claim(sig.Num(0)); err == nil {
		t.Fatalf("Claim(0) should fail")
	}
	if err := Claim(sig.Num(sig.NSIG)); err == nil {
		t.Fatalf("Claim(NSIG) should fail")
	}
}

func TestAddSpecialSignalHandlerFnDispatchesAheadOfChain(t *testing.T) {
	const signo = sig.SIGUSR2
	var mu sync.Mutex
	var ranSpecial, ranChained bool

	if err := AddSpecialSignalHandlerFn(signo, SigchainAction{
		Fn: func(s sig.Num, info *SigInfo, ctx UContext) bool {
			mu.Lock()
			ranSpecial = true
			mu.Unlock()
			return true
		},
	}); err != nil {
		t.Fatalf("AddSpecialSignalHandlerFn: %v", err)
	}

	var oldAct SigActionRecord
	if err := Sigaction(signo, &SigActionRecord{
		Handler: 0, // SIG_DFL; unreachable since the special handler always claims the signal
		Flags:   uint64(sig.SA_RESTART),
	}, &oldAct); err != nil {
		t.Fatalf("Sigaction: %v", err)
	}

	if err := chaintest.Raise(signo); err != nil {
		t.Fatalf("Raise: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !ranSpecial {
		t.Errorf("special handler did not run")
	}
	if ranChained {
		t.Errorf("chained action should not have run: special handler reported handled=true")
	}
}

func TestAddSpecialSignalHandlerFnExhaustion(t *testing.T) {
	const signo = sig.SIGRTMIN
	noop := SigchainAction{Fn: func(sig.Num, *SigInfo, UContext) bool { return true }}
	for i := 0; i < maxSpecialHandlers; i++ {
		if err := AddSpecialSignalHandlerFn(signo, noop); err != nil {
			t.Fatalf("AddSpecialSignalHandlerFn #%d: %v", i, err)
		}
	}

	defer withPanicLogger()()
	defer expectFatal(t, "AddSpecialSignalHandlerFn should abort once maxSpecialHandlers is reached")
	AddSpecialSignalHandlerFn(signo, noop)
}

func TestRemoveSpecialSignalHandlerFnNotFound(t *testing.T) {
	const signo = sig.SIGRTMIN + 1
	if err := Claim(signo); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	defer withPanicLogger()()
	defer expectFatal(t, "RemoveSpecialSignalHandlerFn should abort when nothing is registered")
	RemoveSpecialSignalHandlerFn(signo, func(SignalHandlerFn) bool { return true })
}

func TestSkipAddSignalHandlerBypassesSigaction(t *testing.T) {
	const signo = sig.SIGRTMIN + 2
	SkipAddSignalHandler(true)
	defer SkipAddSignalHandler(false)

	var old SigActionRecord
	if err := Sigaction(signo, &SigActionRecord{Handler: sig.SIG_IGN}, &old); err != nil {
		t.Fatalf("Sigaction: %v", err)
	}
	if Claimed(signo) {
		t.Fatalf("Sigaction must not claim a signal while the global skip toggle is set")
	}
}

func TestNonConsumingSpecialHandlerFallsThroughToNextHandler(t *testing.T) {
	const signo = sig.SIGRTMIN + 8
	var rec chaintest.Recorder
	first := rec.CountingHandler("first", false)
	second := rec.CountingHandler("second", true)

	if err := AddSpecialSignalHandlerFn(signo, SigchainAction{
		Fn: func(s sig.Num, info *SigInfo, ctx UContext) bool { return first(int32(s)) },
	}); err != nil {
		t.Fatalf("AddSpecialSignalHandlerFn (first): %v", err)
	}
	if err := AddSpecialSignalHandlerFn(signo, SigchainAction{
		Fn: func(s sig.Num, info *SigInfo, ctx UContext) bool { return second(int32(s)) },
	}); err != nil {
		t.Fatalf("AddSpecialSignalHandlerFn (second): %v", err)
	}

	if err := chaintest.Raise(signo); err != nil {
		t.Fatalf("Raise: %v", err)
	}

	if err := chaintest.ExpectEvents(rec.Events(), []string{"first", "second"}); err != nil {
		t.Errorf("%v", err)
	}
}

func TestConcurrentRaiseReachesSpecialHandlerExactlyOncePerRaise(t *testing.T) {
	const signo = sig.SIGRTMIN + 9
	const n = 16

	var rec chaintest.Recorder
	handled := rec.CountingHandler("handled", true)
	if err := AddSpecialSignalHandlerFn(signo, SigchainAction{
		Fn: func(s sig.Num, info *SigInfo, ctx UContext) bool { return handled(int32(s)) },
	}); err != nil {
		t.Fatalf("AddSpecialSignalHandlerFn: %v", err)
	}

	// If the per-thread handling bit ever leaked across threads, a raise
	// landing on a thread that (incorrectly) reads another thread's bit as
	// set would skip the special handler entirely, under-counting events
	// below; delivering concurrently from n goroutines, each free to land
	// on a different OS thread, is what exercises that sharing.
	if err := chaintest.RaiseConcurrently(signo, n); err != nil {
		t.Fatalf("RaiseConcurrently: %v", err)
	}

	want := make([]string, n)
	for i := range want {
		want[i] = "handled"
	}
	if err := chaintest.ExpectEvents(rec.Events(), want); err != nil {
		t.Errorf("%v", err)
	}
}

func TestDumpChainStateReflectsClaims(t *testing.T) {
	const signo = sig.SIGRTMIN + 3
	if err := Claim(signo); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	var found bool
	for _, info := range DumpChainState() {
		if info.Signo == signo {
			found = true
			if !info.Claimed {
				t.Errorf("ChainInfo.Claimed should be true for a claimed signal")
			}
		}
	}
	if !found {
		t.Errorf("DumpChainState did not include signal %d", signo)
	}
}
