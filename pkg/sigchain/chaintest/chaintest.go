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

// Package chaintest provides an in-process harness for exercising
// pkg/sigchain's claimed-signal behavior without a real embedding VM:
// helpers to raise signals against the current process, record which
// phases of the chain actually ran, and drive concurrent raises through
// golang.org/x/sync/errgroup.
package chaintest

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
)

// Raise sends signo to the calling thread via tgkill(2), the same path
// raise(3) uses, and is what a test should call to exercise a claimed
// signal's full dispatch chain synchronously.
func Raise(signo sig.Num) error {
	return unix.Tgkill(unix.Getpid(), unix.Gettid(), unix.Signal(signo))
}

// RaiseConcurrently calls Raise(signo) from n separate goroutines in
// parallel via an errgroup, and returns once every raise has completed (or
// the first error is seen). Each goroutine's OS thread is whatever the Go
// runtime happens to schedule it onto; LockOSThread is deliberately not
// used here, because the property under test — that the chain behaves
// correctly regardless of which thread delivery lands on — is exactly
// what varying the thread assignment exercises.
func RaiseConcurrently(signo sig.Num, n int) error {
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return Raise(signo)
		})
	}
	return g.Wait()
}

// Recorder accumulates an ordered, concurrency-safe log of phase names a
// test's special handler or chained action reports, so a test can assert
// on dispatch order without racing on a plain slice.
type Recorder struct {
	mu  sync.Mutex
	log []string
}

// Record appends name to the log. Safe to call from multiple goroutines.
// It takes a mutex, so calling it from inside a signal handler (as
// pkg/sigchain's tests do from their special handlers) is only safe when
// the interrupted thread cannot be holding r's mutex at that moment.
func (r *Recorder) Record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, name)
}

// Events returns a copy of the recorded log.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.log))
	copy(out, r.log)
	return out
}

// CountingHandler returns a SignalHandlerFn-compatible closure (as a
// plain func(int32) bool over the signal number, since chaintest does not
// depend on pkg/sigchain to avoid an import cycle with its own tests) that
// records name via r.Record and returns handled on every call, for tests
// that just need to know a handler ran and how many times.
func (r *Recorder) CountingHandler(name string, handled bool) func(int32) bool {
	return func(int32) bool {
		r.Record(name)
		return handled
	}
}

// ExpectEvents returns an error if got does not equal want, formatted for
// a test failure message.
func ExpectEvents(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("event count mismatch: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			return fmt.Errorf("event %d mismatch: got %v, want %v", i, got, want)
		}
	}
	return nil
}
