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

// Package sync provides synchronization primitives, notably the spinlock
// used to serialize kernel object state.
package sync

import (
	"runtime"
	"sync/atomic"
)

// spinAttempts is the number of acquisition attempts made before each
// yield of the processor.
const spinAttempts = 128

// SpinLock is a test-and-set mutual exclusion lock. It is held only for
// constant-time critical sections plus the time to copy bytes through a
// buffer, so acquisition busy-waits briefly and then yields between
// attempts rather than parking the caller.
//
// The zero value is an unlocked SpinLock. A SpinLock must not be copied
// after first use.
type SpinLock struct {
	v int32
}

// Lock acquires l, spinning until it is available.
func (l *SpinLock) Lock() {
	for attempts := 0; !l.TryLock(); attempts++ {
		if attempts >= spinAttempts {
			runtime.Gosched()
			attempts = 0
		}
	}
}

// TryLock attempts to acquire l without blocking and returns true on
// success.
func (l *SpinLock) TryLock() bool {
	return atomic.CompareAndSwapInt32(&l.v, 0, 1)
}

// Unlock releases l.
func (l *SpinLock) Unlock() {
	if atomic.SwapInt32(&l.v, 0) == 0 {
		panic("sync: unlock of unlocked SpinLock")
	}
}
