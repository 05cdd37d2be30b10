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
	"sync"
	"testing"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
)

func TestGetSetRoundTrip(t *testing.T) {
	tid := int32(1000001)
	if Get(tid, sig.SIGSEGV) {
		t.Fatalf("bit should start clear")
	}
	if prev := Set(tid, sig.SIGSEGV, true); prev {
		t.Fatalf("Set should report previous value false")
	}
	if !Get(tid, sig.SIGSEGV) {
		t.Fatalf("bit should be set after Set(true)")
	}
	if !GetAny(tid) {
		t.Fatalf("GetAny should report true once any bit is set")
	}
	if prev := Set(tid, sig.SIGSEGV, false); !prev {
		t.Fatalf("Set should report previous value true")
	}
	if GetAny(tid) {
		t.Fatalf("GetAny should report false once every bit is clear")
	}
}

func TestDistinctSignalsIndependent(t *testing.T) {
	tid := int32(1000002)
	Set(tid, sig.SIGSEGV, true)
	if Get(tid, sig.SIGBUS) {
		t.Fatalf("setting SIGSEGV's bit should not affect SIGBUS's bit")
	}
	Set(tid, sig.SIGSEGV, false)
}

func TestScopedHandlingSignalRestoresPrevious(t *testing.T) {
	tid := int32(1000003)
	Set(tid, sig.SIGBUS, true)

	restore := ScopedHandlingSignal(tid, sig.SIGBUS, true)
	if !Get(tid, sig.SIGBUS) {
		t.Fatalf("bit should remain set while scoped")
	}
	restore()
	if !Get(tid, sig.SIGBUS) {
		t.Fatalf("restore should put back the previous value (true)")
	}
	Set(tid, sig.SIGBUS, false)
}

func TestScopedHandlingSignalAllowNoreturnIsNoop(t *testing.T) {
	tid := int32(1000004)
	restore := ScopedHandlingSignal(tid, sig.SIGILL, false)
	if Get(tid, sig.SIGILL) {
		t.Fatalf("set=false must not touch the bit")
	}
	restore()
	if Get(tid, sig.SIGILL) {
		t.Fatalf("restoring a no-op scope must not set the bit")
	}
}

func TestDistinctThreadsIndependent(t *testing.T) {
	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(tid int32) {
			defer wg.Done()
			if Get(tid, sig.SIGUSR1) {
				t.Errorf("tid %d should start with a clear bit", tid)
			}
			Set(tid, sig.SIGUSR1, true)
			if !Get(tid, sig.SIGUSR1) {
				t.Errorf("tid %d bit did not stick", tid)
			}
			Set(tid, sig.SIGUSR1, false)
		}(int32(2_000_000 + i))
	}
	wg.Wait()
}
