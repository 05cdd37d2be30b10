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

//go:build !arm64

package sigchain

// supportsTagBits reports whether the running architecture can carry
// hardware address-tag bits (ARM's Top Byte Ignore / Memory Tagging
// Extension) in a fault's si_addr. Only arm64 does.
func supportsTagBits() bool { return false }
