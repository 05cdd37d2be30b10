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

//go:build linux || darwin

package unwind

import "golang.org/x/sys/unix"

// WriteRaw issues a direct write(2) syscall, bypassing any buffering.
func (f fdWriter) WriteRaw(p []byte) {
	for len(p) > 0 {
		n, err := unix.Write(f.fd, p)
		if n <= 0 || err != nil {
			return
		}
		p = p[n:]
	}
}
