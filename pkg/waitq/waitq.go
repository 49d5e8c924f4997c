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

// Package waitq provides the implementation of a FIFO wait queue, where
// goroutines can be suspended until an event of interest happens, a
// timeout expires, or the wait is cancelled by a lifecycle transition on
// the owning object.
//
// The queue itself holds no lock. Every method except the suspension
// inside PendCurrent must be called while holding the spinlock that
// serializes the owning object; PendCurrent releases that lock for the
// duration of the suspension and re-acquires it before returning. A
// waiter that has released the lock is already linked into the queue, so
// a wake issued under the lock cannot be lost.
//
// Wake-ups are advisory. A woken goroutine must re-evaluate the
// condition it was waiting for under the lock, because the state may
// have changed between the wake and the lock re-acquisition.
package waitq

import (
	"time"

	"gvisor.dev/kpipe/pkg/sync"
)

// Waiter represents a single suspended goroutine. It is linked into at
// most one Queue at a time.
type Waiter struct {
	waiterEntry

	// wake carries at most one pending wake-up. The single slot makes
	// Ready safe to call at most once per unpend without ever blocking
	// the waker.
	wake chan struct{}

	// queued is true while the waiter is linked into a queue. Guarded by
	// the owning object's lock.
	queued bool
}

// Ready makes an unpended waiter runnable. The scheduler may defer the
// actual context switch; Ready itself never blocks and may be called
// under the lock.
func (w *Waiter) Ready() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// block suspends the caller until a wake-up or the expiry of timeout,
// returning true in the former case. Called with no locks held.
func (w *Waiter) block(timeout Timeout) bool {
	if timeout.IsForever() {
		<-w.wake
		return true
	}
	t := time.NewTimer(timeout.duration)
	defer t.Stop()
	select {
	case <-w.wake:
		return true
	case <-t.C:
		return false
	}
}

// Queue is a FIFO wait queue. The zero value is an empty queue ready
// for use.
type Queue struct {
	list waiterList
}

// Empty returns true iff no waiters are queued.
func (q *Queue) Empty() bool {
	return q.list.Empty()
}

// PendCurrent suspends the calling goroutine on q.
//
// Preconditions: l is held and serializes q.
//
// The caller is enqueued and l is released atomically with respect to
// wakers (any waker must itself hold l, and the waiter is visible in q
// before l is released). On wake-up or timeout, l is re-acquired and
// the waiter is unlinked. The return value reports whether a wake-up
// arrived, but callers must still re-evaluate their predicate: the
// wake reason and the object state are only coherent under l.
func (q *Queue) PendCurrent(l *sync.SpinLock, timeout Timeout) bool {
	w := Waiter{
		wake:   make(chan struct{}, 1),
		queued: true,
	}
	q.list.PushBack(&w)
	l.Unlock()

	woken := w.block(timeout)

	l.Lock()
	if w.queued {
		// Timed out while still linked.
		q.list.Remove(&w)
		w.queued = false
	} else if !woken {
		// Unpended concurrently with the timeout: the wake-up was
		// issued and counts, even though block gave up first.
		woken = true
	}
	return woken
}

// UnpendFirst removes the earliest waiter from q and returns it, or nil
// if q is empty. The caller wakes the waiter with Ready.
func (q *Queue) UnpendFirst() *Waiter {
	w := q.list.Front()
	if w == nil {
		return nil
	}
	q.list.Remove(w)
	w.queued = false
	return w
}

// UnpendAll removes every waiter from q in FIFO order and returns them.
func (q *Queue) UnpendAll() []*Waiter {
	var ws []*Waiter
	for {
		w := q.UnpendFirst()
		if w == nil {
			return ws
		}
		ws = append(ws, w)
	}
}
