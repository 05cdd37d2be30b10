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

package log

import "golang.org/x/time/rate"

type rateLimited struct {
	inner Logger
	lim   *rate.Limiter
}

func newLimiter(eventsPerSecond float64, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(eventsPerSecond), burst)
}

func (rl *rateLimited) Debugf(format string, v ...any) {
	if rl.lim.Allow() {
		rl.inner.Debugf(format, v...)
	}
}

func (rl *rateLimited) Infof(format string, v ...any) {
	if rl.lim.Allow() {
		rl.inner.Infof(format, v...)
	}
}

func (rl *rateLimited) Warningf(format string, v ...any) {
	if rl.lim.Allow() {
		rl.inner.Warningf(format, v...)
	}
}

// Fatalf is never rate limited: a fatal condition must always be reported,
// because the process is about to exit anyway.
func (rl *rateLimited) Fatalf(format string, v ...any) {
	rl.inner.Fatalf(format, v...)
}
