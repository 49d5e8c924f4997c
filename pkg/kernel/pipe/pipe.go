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

// Package pipe provides the implementation of a bounded blocking byte
// pipe: an in-memory FIFO byte channel between cooperating goroutines
// with timed blocking, a connection-like open/close lifecycle, and a
// reset operation that cancels in-flight waiters.
//
// A single spinlock serializes every operation. Blocked callers are
// suspended on one of two wait queues (readers on "data", writers on
// "space") and are woken one at a time per successful transfer, or all
// at once by Reset and Close. Every wake-up is validated against the
// actual buffer state after the lock is re-acquired.
package pipe

import (
	"gvisor.dev/kpipe/pkg/errors/linuxerr"
	"gvisor.dev/kpipe/pkg/ringbuf"
	"gvisor.dev/kpipe/pkg/sync"
	"gvisor.dev/kpipe/pkg/waitq"
)

// Lifecycle flag bits.
const (
	// flagOpen is set from Init until Close.
	flagOpen uint8 = 1 << iota

	// flagReset is set by Reset and cleared by the last waiter to drain
	// afterwards.
	flagReset
)

// Pipe is a bounded blocking byte pipe. It is safe for concurrent use
// by any number of readers and writers.
//
// A Pipe must be initialized with Init before use, and must not be
// reused after Close without a fresh Init.
type Pipe struct {
	// mu serializes all pipe state below. It is held for O(bytes
	// copied) plus constant wait-queue bookkeeping, and is never held
	// across a suspension.
	mu sync.SpinLock

	// buf holds the bytes in flight, backed by caller storage.
	buf ringbuf.Buf

	// data queues readers waiting for the pipe to become non-empty;
	// space queues writers waiting for it to become non-full.
	data  waitq.Queue
	space waitq.Queue

	// flags holds the lifecycle bits. Guarded by mu.
	flags uint8

	// waiting counts goroutines currently suspended on either queue.
	// Guarded by mu.
	waiting int
}

// cond is a wait predicate evaluated under mu. waitFor suspends while
// the predicate holds.
type cond func() bool

func (p *Pipe) full() bool {
	return p.buf.Space() == 0
}

func (p *Pipe) empty() bool {
	return p.buf.Len() == 0
}

// Init binds storage as the pipe's buffer and opens the pipe. The
// storage is exclusively owned by the pipe until Close.
//
// Reinitializing a pipe that still has waiters is a caller error.
func (p *Pipe) Init(storage []byte) {
	p.buf.Init(storage)
	p.data = waitq.Queue{}
	p.space = waitq.Queue{}
	p.flags = flagOpen
	p.waiting = 0
}

// waitFor suspends the caller on wq until the condition reported by c
// clears, the timeout expires, or the pipe is reset or closed.
//
// Preconditions: p.mu is held.
// Postconditions: p.mu is held, on every return path.
//
// Returns nil when the condition cleared, linuxerr.EAGAIN when timeout
// was NoWait or expired (or a reset is still draining), linuxerr.EPIPE
// when the pipe was closed while waiting, and linuxerr.ECANCELED when
// the wait was cancelled by Reset. The last waiter to observe a reset
// clears the reset flag on its way out.
//
// A wake-up that finds the condition back in force (another caller took
// the bytes or space first) suspends again when timeout is Forever; with
// a bounded timeout it returns linuxerr.EAGAIN.
func (p *Pipe) waitFor(wq *waitq.Queue, c cond, timeout waitq.Timeout) error {
	if timeout.IsNoWait() || p.flags&flagReset != 0 {
		return linuxerr.EAGAIN
	}

	for {
		p.waiting++
		woken := wq.PendCurrent(&p.mu, timeout)
		p.waiting--

		switch {
		case p.flags&flagOpen == 0:
			return linuxerr.EPIPE
		case p.flags&flagReset != 0:
			if p.waiting == 0 {
				p.flags &^= flagReset
			}
			return linuxerr.ECANCELED
		case !c():
			// The condition cleared while we slept; the caller re-enters
			// its fast path.
			return nil
		case !woken || !timeout.IsForever():
			// Timeout, or a bounded wait whose wake-up lost the race,
			// with the condition still in force.
			return linuxerr.EAGAIN
		}
		// Woken with no deadline but the condition is back in force:
		// wait again.
	}
}

// notify wakes the earliest waiter on wq, if any. Called under mu; the
// scheduler may defer the actual context switch.
func (p *Pipe) notify(wq *waitq.Queue) {
	if w := wq.UnpendFirst(); w != nil {
		w.Ready()
	}
}

// notifyAll wakes every waiter on wq. Called under mu.
func (p *Pipe) notifyAll(wq *waitq.Queue) {
	for _, w := range wq.UnpendAll() {
		w.Ready()
	}
}

// Write copies bytes from src into the pipe and returns the number
// copied, which may be less than len(src). A partial success returns
// immediately; callers wanting to move the remainder re-issue the call.
//
// If the pipe is full, Write blocks until space drains, bounded by
// timeout. Errors: linuxerr.EAGAIN if timeout was waitq.NoWait or
// expired, or if a bounded wait was woken but another caller took the
// freed space first, linuxerr.EPIPE if the pipe is or becomes closed,
// linuxerr.ECANCELED if the wait was cancelled by Reset.
func (p *Pipe) Write(src []byte, timeout waitq.Timeout) (int, error) {
	if len(src) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	for p.full() {
		if err := p.waitFor(&p.space, p.full, timeout); err != nil {
			p.mu.Unlock()
			return 0, err
		}
	}

	if p.flags&flagOpen == 0 {
		p.mu.Unlock()
		return 0, linuxerr.EPIPE
	}

	n := p.buf.Put(src)
	if n > 0 {
		p.notify(&p.data)
	}
	p.mu.Unlock()
	return n, nil
}

// Read copies up to len(dst) buffered bytes into dst and returns the
// number copied. If the pipe is empty and open, Read blocks until bytes
// arrive, bounded by timeout.
//
// A closed pipe is drained before EOF: Read keeps returning buffered
// bytes after Close, and reports linuxerr.EPIPE only once the buffer is
// empty. Other errors match Write.
func (p *Pipe) Read(dst []byte, timeout waitq.Timeout) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	if p.empty() && p.flags&flagOpen != 0 {
		// EPIPE from the wait means the pipe closed while we slept.
		// Fall through in that case: bytes deposited before the close
		// must still be delivered, and the empty check below surfaces
		// EOF once they are gone.
		if err := p.waitFor(&p.data, p.empty, timeout); err != nil && err != linuxerr.EPIPE {
			p.mu.Unlock()
			return 0, err
		}
	}
	if p.empty() && p.flags&flagOpen == 0 {
		p.mu.Unlock()
		return 0, linuxerr.EPIPE
	}

	n := p.buf.Get(dst)
	if n > 0 {
		p.notify(&p.space)
	}
	p.mu.Unlock()
	return n, nil
}

// Reset discards all buffered bytes and cancels every blocked reader
// and writer, which return linuxerr.ECANCELED. The pipe itself remains
// open and usable.
//
// The reset state lingers until the last cancelled waiter has drained;
// during that window new blocking attempts fail with linuxerr.EAGAIN
// rather than suspend.
func (p *Pipe) Reset() error {
	p.mu.Lock()
	p.buf.Reset()
	if p.waiting > 0 {
		// Cleared by the last waiter to drain, not here: clearing on
		// this side would race late-woken waiters into misreading
		// their wake as a timeout.
		p.flags |= flagReset
	}
	p.notifyAll(&p.data)
	p.notifyAll(&p.space)
	p.mu.Unlock()
	return nil
}

// Close permanently disables the pipe and wakes every blocked reader
// and writer. Writers fail with linuxerr.EPIPE immediately; readers
// drain any buffered bytes first. Closing an already-closed pipe
// returns linuxerr.EALREADY.
func (p *Pipe) Close() error {
	p.mu.Lock()
	if p.flags&flagOpen == 0 {
		p.mu.Unlock()
		return linuxerr.EALREADY
	}
	p.flags = 0
	p.notifyAll(&p.data)
	p.notifyAll(&p.space)
	p.mu.Unlock()
	return nil
}

// Len returns the current number of buffered bytes.
func (p *Pipe) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Len()
}

// Space returns the number of bytes the pipe can accept before filling.
func (p *Pipe) Space() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Space()
}

// Capacity returns the fixed capacity of the pipe's buffer.
func (p *Pipe) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Capacity()
}
