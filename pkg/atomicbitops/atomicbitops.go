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

// Package atomicbitops provides lock-free scalar types built on
// sync/atomic. sigchain uses them for the state it reads and updates
// atomically around signal handling (claim state, kernel-supported flags,
// the per-thread handling bits, the dispatcher's rate gate) rather than a
// plain word guarded by a mutex: a mutex may block, and blocking inside a
// signal handler is not async-signal-safe.
package atomicbitops

import "sync/atomic"

// Uint32 is an atomic uint32.
//
// The zero value is 0.
type Uint32 struct {
	value uint32
}

// FromUint32 returns a Uint32 initialized to v.
func FromUint32(v uint32) Uint32 {
	return Uint32{value: v}
}

// Load is analogous to atomic.LoadUint32.
func (u *Uint32) Load() uint32 { return atomic.LoadUint32(&u.value) }

// Store is analogous to atomic.StoreUint32.
func (u *Uint32) Store(v uint32) { atomic.StoreUint32(&u.value, v) }

// Swap is analogous to atomic.SwapUint32.
func (u *Uint32) Swap(v uint32) uint32 { return atomic.SwapUint32(&u.value, v) }

// CompareAndSwap is analogous to atomic.CompareAndSwapUint32.
func (u *Uint32) CompareAndSwap(old, new uint32) bool {
	return atomic.CompareAndSwapUint32(&u.value, old, new)
}

// Or atomically sets u to u|v and returns the previous value.
func (u *Uint32) Or(v uint32) uint32 {
	for {
		o := u.Load()
		if u.CompareAndSwap(o, o|v) {
			return o
		}
	}
}

// And atomically sets u to u&v and returns the previous value.
func (u *Uint32) And(v uint32) uint32 {
	for {
		o := u.Load()
		if u.CompareAndSwap(o, o&v) {
			return o
		}
	}
}

// Uint64 is an atomic uint64.
//
// The zero value is 0.
type Uint64 struct {
	value uint64
}

// FromUint64 returns a Uint64 initialized to v.
func FromUint64(v uint64) Uint64 {
	return Uint64{value: v}
}

// Load is analogous to atomic.LoadUint64.
func (u *Uint64) Load() uint64 { return atomic.LoadUint64(&u.value) }

// Store is analogous to atomic.StoreUint64.
func (u *Uint64) Store(v uint64) { atomic.StoreUint64(&u.value, v) }

// Swap is analogous to atomic.SwapUint64.
func (u *Uint64) Swap(v uint64) uint64 { return atomic.SwapUint64(&u.value, v) }

// CompareAndSwap is analogous to atomic.CompareAndSwapUint64.
func (u *Uint64) CompareAndSwap(old, new uint64) bool {
	return atomic.CompareAndSwapUint64(&u.value, old, new)
}

// Or atomically sets the bits in v on u and returns the previous value.
func (u *Uint64) Or(v uint64) uint64 {
	for {
		o := u.Load()
		if u.CompareAndSwap(o, o|v) {
			return o
		}
	}
}

// AndNot atomically clears the bits in v on u and returns the previous
// value.
func (u *Uint64) AndNot(v uint64) uint64 {
	for {
		o := u.Load()
		if u.CompareAndSwap(o, o&^v) {
			return o
		}
	}
}

// Bool is an atomic boolean, implemented as a Uint32 with 0 meaning false
// and 1 meaning true.
type Bool struct {
	u Uint32
}

// FromBool returns a Bool initialized to val.
func FromBool(val bool) Bool {
	if val {
		return Bool{u: FromUint32(1)}
	}
	return Bool{}
}

// Load returns the current value.
func (b *Bool) Load() bool { return b.u.Load() == 1 }

// Store sets the current value.
func (b *Bool) Store(val bool) {
	if val {
		b.u.Store(1)
		return
	}
	b.u.Store(0)
}

// Swap atomically sets val and returns the previous value.
func (b *Bool) Swap(val bool) bool {
	var n uint32
	if val {
		n = 1
	}
	return b.u.Swap(n) == 1
}

// CompareAndSwap is analogous to a CAS on a boolean: it atomically sets the
// value to new if and only if it is currently old.
func (b *Bool) CompareAndSwap(old, new bool) bool {
	var o, n uint32
	if old {
		o = 1
	}
	if new {
		n = 1
	}
	return b.u.CompareAndSwap(o, n)
}
