// Copyright 2024 The gVisor Authors.
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

package waitq

import (
	"time"
)

// Timeout bounds how long a pend may remain suspended. The zero value
// is NoWait.
type Timeout struct {
	forever  bool
	duration time.Duration
}

// NoWait makes blocking operations fail immediately instead of
// suspending.
var NoWait = Timeout{}

// Forever suspends until explicitly woken.
var Forever = Timeout{forever: true}

// After returns a Timeout that expires after d. Non-positive durations
// collapse to NoWait.
func After(d time.Duration) Timeout {
	if d <= 0 {
		return NoWait
	}
	return Timeout{duration: d}
}

// IsNoWait returns true iff t forbids suspension.
func (t Timeout) IsNoWait() bool {
	return !t.forever && t.duration == 0
}

// IsForever returns true iff t never expires.
func (t Timeout) IsForever() bool {
	return t.forever
}
