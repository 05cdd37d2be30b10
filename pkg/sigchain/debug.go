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
	"time"

	"github.com/Katya-Incorporated/platform-art/pkg/abi/sig"
	"github.com/Katya-Incorporated/platform-art/pkg/log"
)

// ChainInfo is a point-in-time snapshot of one signal's chain state, for
// diagnostics commands that want visibility into what this library has
// claimed without reaching into package internals.
type ChainInfo struct {
	Signo           sig.Num
	Claimed         bool
	NumHandlers     int
	ActionFlags     uint64
	KernelSupported uint64
}

// DumpChainState returns a snapshot of every claimed signal's chain state,
// ordered by signal number. It takes each record's lock in turn, so it
// must never be called from inside a signal handler.
func DumpChainState() []ChainInfo {
	var out []ChainInfo
	for s := sig.Num(1); s < sig.NSIG; s++ {
		record := recordFor(s)
		if !record.claimed.Load() {
			continue
		}
		record.mu.Lock()
		out = append(out, ChainInfo{
			Signo:           s,
			Claimed:         true,
			NumHandlers:     record.numHandlers,
			ActionFlags:     record.action.Flags,
			KernelSupported: record.kernelSupportedFlags.Load(),
		})
		record.mu.Unlock()
	}
	return out
}

// StartChainGuard starts a background goroutine that calls
// EnsureFrontOfChain for every claimed signal once per interval, and
// returns a function that stops it. It runs entirely outside signal
// context; ordinary use of this library does not require it — it exists
// for a host that wants proactive detection of some other component
// clobbering a claimed signal's disposition behind this library's back,
// rather than relying on each call site to call EnsureFrontOfChain itself.
func StartChainGuard(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				guardTick()
			}
		}
	}()
	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
	}
}

func guardTick() {
	for s := sig.Num(1); s < sig.NSIG; s++ {
		if !recordFor(s).claimed.Load() {
			continue
		}
		if err := EnsureFrontOfChain(s); err != nil {
			log.Warningf("sigchain: chain guard failed to re-assert front of chain for signal %d: %v", s, err)
		}
	}
}
